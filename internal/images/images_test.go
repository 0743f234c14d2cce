package images

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/stretchr/testify/assert"
)

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		base     string
		expected string
	}{
		{"absolute", "https://a.com/i.jpg", "", "https://a.com/i.jpg"},
		{"protocol relative", "//cdn.com/i.png", "", "https://cdn.com/i.png"},
		{"relative against article", "/img.png", "https://src.com/article", "https://src.com/img.png"},
		{"relative without base", "/img.png", "", ""},
		{"non http scheme", "ftp://a.com/i.jpg", "", ""},
		{"empty", "", "https://src.com", ""},
		{"whitespace trimmed", "  https://a.com/i.jpg  ", "", "https://a.com/i.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveURL(tt.src, tt.base))
		})
	}
}

func mediaExtension(attrs map[string]string) ext.Extension {
	return ext.Extension{Name: "content", Attrs: attrs}
}

func TestFromItemMediaContent(t *testing.T) {
	item := &gofeed.Item{
		Extensions: ext.Extensions{
			"media": {
				"content": []ext.Extension{
					mediaExtension(map[string]string{"url": "https://a.com/media.jpg", "medium": "image"}),
				},
			},
		},
		Enclosures: []*gofeed.Enclosure{
			{URL: "https://a.com/enclosure.jpg", Type: "image/jpeg"},
		},
	}

	// media:content outranks the enclosure.
	assert.Equal(t, "https://a.com/media.jpg", FromItem(item, "https://a.com/post"))
}

func TestFromItemSkipsNonImageMedia(t *testing.T) {
	item := &gofeed.Item{
		Extensions: ext.Extensions{
			"media": {
				"content": []ext.Extension{
					mediaExtension(map[string]string{"url": "https://a.com/clip.mp4", "medium": "video"}),
				},
			},
		},
		Enclosures: []*gofeed.Enclosure{
			{URL: "https://a.com/enclosure.jpg", Type: "image/jpeg"},
		},
	}

	assert.Equal(t, "https://a.com/enclosure.jpg", FromItem(item, "https://a.com/post"))
}

func TestFromItemMediaThumbnail(t *testing.T) {
	item := &gofeed.Item{
		Extensions: ext.Extensions{
			"media": {
				"thumbnail": []ext.Extension{
					{Name: "thumbnail", Attrs: map[string]string{"url": "https://a.com/thumb.jpg"}},
				},
			},
		},
	}

	assert.Equal(t, "https://a.com/thumb.jpg", FromItem(item, "https://a.com/post"))
}

func TestFromItemEmbeddedImg(t *testing.T) {
	item := &gofeed.Item{
		Description: `<p>Intro</p><img data-src="/lazy.jpg">`,
	}

	assert.Equal(t, "https://site.com/lazy.jpg", FromItem(item, "https://site.com/post"))
}

func TestFromItemNothingResolvable(t *testing.T) {
	item := &gofeed.Item{Description: "plain text only"}
	assert.Equal(t, "", FromItem(item, "https://site.com/post"))
}

func testResolver(hostInterval time.Duration) *Resolver {
	return NewResolver(Options{
		Timeout:      2 * time.Second,
		Retries:      1,
		RetryDelay:   time.Millisecond,
		HostInterval: hostInterval,
		CacheTTL:     time.Minute,
	})
}

func TestFetchOgImage(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `<html><head><meta property="og:image" content="/img.png"></head><body></body></html>`)
	}))
	defer srv.Close()

	r := testResolver(0)
	pageURL := srv.URL + "/article"

	got := r.FetchOgImage(context.Background(), pageURL)
	assert.Equal(t, srv.URL+"/img.png", got)

	// Second lookup for the same page comes from the cache.
	got = r.FetchOgImage(context.Background(), pageURL)
	assert.Equal(t, srv.URL+"/img.png", got)
	assert.Equal(t, int64(1), hits.Load())
}

func TestFetchOgImageFailureCachedNegative(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := testResolver(0)
	pageURL := srv.URL + "/missing"

	assert.Equal(t, "", r.FetchOgImage(context.Background(), pageURL))
	assert.Equal(t, "", r.FetchOgImage(context.Background(), pageURL))
	assert.Equal(t, int64(1), hits.Load())
}

func TestFetchOgImageRejectsNonHTTP(t *testing.T) {
	r := testResolver(0)
	assert.Equal(t, "", r.FetchOgImage(context.Background(), "#"))
}

func TestExtractOgImageFallbacks(t *testing.T) {
	page := `<html><head><meta name="twitter:image" content="https://cdn.com/t.jpg"></head></html>`
	assert.Equal(t, "https://cdn.com/t.jpg", extractOgImage(page, "https://site.com/a"))

	assert.Equal(t, "", extractOgImage("<html><head></head></html>", "https://site.com/a"))
}

func TestRemoveLeadingDuplicateImage(t *testing.T) {
	content := `<figure><img src="https://img.com/a.jpg"></figure><p>Body text continues here.</p>`

	out := RemoveLeadingDuplicateImage(content, "https://img.com/a.jpg", "https://site.com/post")
	assert.NotContains(t, out, "<img")
	assert.NotContains(t, out, "<figure")
	assert.Contains(t, out, "Body text continues here.")
}

func TestRemoveLeadingDuplicateImageDifferentImage(t *testing.T) {
	content := `<img src="https://img.com/other.jpg"><p>Body</p>`
	out := RemoveLeadingDuplicateImage(content, "https://img.com/a.jpg", "https://site.com/post")
	assert.Equal(t, content, out)
}

func TestRemoveLeadingDuplicateImageNotLeading(t *testing.T) {
	var filler string
	for i := 0; i < 40; i++ {
		filler += "<p>padding paragraph text</p>"
	}
	content := filler + `<img src="https://img.com/a.jpg">`

	out := RemoveLeadingDuplicateImage(content, "https://img.com/a.jpg", "https://site.com/post")
	assert.Contains(t, out, "<img")
}

func TestHostLimiterPacesSameHost(t *testing.T) {
	hl := newHostLimiter(30 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	assert.NoError(t, hl.Wait(ctx, "https://x.com/a"))
	assert.NoError(t, hl.Wait(ctx, "https://x.com/b"))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestHostLimiterZeroIntervalIsNoop(t *testing.T) {
	hl := newHostLimiter(0)
	start := time.Now()
	assert.NoError(t, hl.Wait(context.Background(), "https://x.com/a"))
	assert.NoError(t, hl.Wait(context.Background(), "https://x.com/b"))
	assert.Less(t, time.Since(start), 20*time.Millisecond)
}

func TestTTLCacheExpiry(t *testing.T) {
	c := newTTLCache()
	c.Set("k", "v", 20*time.Millisecond)

	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	time.Sleep(30 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
}
