package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsgrid/internal/article"
	"newsgrid/internal/config"
	"newsgrid/internal/images"
)

func testConfig() *config.Config {
	return &config.Config{
		FetchTimeout:     2 * time.Second,
		FetchRetries:     1,
		FetchRetryDelay:  time.Millisecond,
		MinTitleLength:   10,
		MinSummaryLength: 25,
		MaxSummaryLength: 250,
	}
}

func testFetcher() *Fetcher {
	resolver := images.NewResolver(images.Options{
		Timeout:    time.Second,
		Retries:    1,
		RetryDelay: time.Millisecond,
		CacheTTL:   time.Minute,
	})
	return NewFetcher(testConfig(), resolver)
}

func serveFeed(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, body)
	}))
}

const gatedFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Test Channel</title>
<item>
  <title>Stocks rally on Fed decision announced today</title>
  <link>https://ex.com/good</link>
  <description>Markets moved sharply after the central bank cut its policy rate and signalled more easing ahead.</description>
  <pubDate>Mon, 05 Jan 2026 15:04:05 GMT</pubDate>
</item>
<item>
  <title>Short</title>
  <link>https://ex.com/short-title</link>
  <description>A description that is clearly long enough to pass the summary gate.</description>
</item>
<item>
  <title>Stocks climb as earnings beat estimates</title>
  <link>https://ex.com/dup-summary</link>
  <description>Stocks climb as earnings beat estimates today</description>
</item>
<item>
  <title>This item has no usable link at all</title>
  <description>Another description that is clearly long enough to pass the gate.</description>
</item>
</channel>
</rss>`

func TestFetchSourceAppliesQualityGates(t *testing.T) {
	srv := serveFeed(t, gatedFeed)
	defer srv.Close()

	source := config.Source{Name: "TestWire", FeedURL: srv.URL, DefaultCategory: "Business & Finance"}
	got := testFetcher().FetchSource(context.Background(), source, Options{})

	require.Len(t, got, 1)
	a := got[0]
	assert.Equal(t, "Stocks rally on Fed decision announced today", a.Title)
	assert.Equal(t, "https://ex.com/good", a.SourceLink)
	assert.Equal(t, "Business & Finance", a.Category)
	assert.Equal(t, "httpsexcomgood-testwire", a.ID)
	assert.Equal(t, "/business-finance/httpsexcomgood-testwire", a.Link)
	assert.Equal(t, "TestWire", a.Source)
	assert.Equal(t, 2026, a.Date.Year())
}

func TestFetchSourceCategoriesOnly(t *testing.T) {
	srv := serveFeed(t, gatedFeed)
	defer srv.Close()

	source := config.Source{Name: "TestWire", FeedURL: srv.URL, DefaultCategory: "Business & Finance"}
	got := testFetcher().FetchSource(context.Background(), source, Options{CategoriesOnly: true})

	// Quality gates do not apply; every item classifies as business.
	require.Len(t, got, 4)
	for _, a := range got {
		assert.Equal(t, "Business & Finance", a.Category)
		assert.Equal(t, article.LinkSentinel, a.Link)
		assert.Equal(t, "For category generation", a.Summary)
	}
}

func TestFetchSourceCategoriesOnlySkipsGeneral(t *testing.T) {
	srv := serveFeed(t, gatedFeed)
	defer srv.Close()

	source := config.Source{Name: "TestWire", FeedURL: srv.URL}
	got := testFetcher().FetchSource(context.Background(), source, Options{CategoriesOnly: true})

	// Titles 1 and 3 classify as business on their keywords; the rest
	// stay General and are dropped.
	for _, a := range got {
		assert.NotEqual(t, "General", a.Category)
	}
	assert.Len(t, got, 2)
}

func TestFetchSourceServerFailure(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	source := config.Source{Name: "Broken", FeedURL: srv.URL}
	got := testFetcher().FetchSource(context.Background(), source, Options{})
	assert.Empty(t, got)
	assert.Equal(t, int64(1), hits.Load())
}

func TestFetchSourceRetriesOnFailure(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, gatedFeed)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.FetchRetries = 3
	fetcher := NewFetcher(cfg, images.NewResolver(images.Options{Timeout: time.Second, Retries: 1, RetryDelay: time.Millisecond, CacheTTL: time.Minute}))

	source := config.Source{Name: "Flaky", FeedURL: srv.URL, DefaultCategory: "Business & Finance"}
	got := fetcher.FetchSource(context.Background(), source, Options{})
	assert.Len(t, got, 1)
	assert.Equal(t, int64(2), hits.Load())
}

func TestFetchSourceUnparseableBody(t *testing.T) {
	srv := serveFeed(t, "this is not xml at all")
	defer srv.Close()

	source := config.Source{Name: "Garbage", FeedURL: srv.URL}
	got := testFetcher().FetchSource(context.Background(), source, Options{})
	assert.Empty(t, got)
}

const guidFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Guid Channel</title>
<item>
  <title>Opaque identifier item without any real link</title>
  <guid isPermaLink="false">https://ex.com/internal-tracking-guid</guid>
  <description>A description that is clearly long enough to pass the summary gate.</description>
</item>
<item>
  <title>Explicit permalink guid carries the article link</title>
  <guid isPermaLink="true">https://ex.com/true-permalink</guid>
  <description>Editors walked through the full timeline of events behind the decision.</description>
</item>
<item>
  <title>Default guid semantics treat it as a permalink</title>
  <guid>https://ex.com/default-permalink</guid>
  <description>Officials outlined the next steps during a lengthy press briefing.</description>
</item>
</channel>
</rss>`

func TestFetchSourceGuidPermalinkHandling(t *testing.T) {
	srv := serveFeed(t, guidFeed)
	defer srv.Close()

	source := config.Source{Name: "GuidWire", FeedURL: srv.URL, DefaultCategory: "Top News"}
	got := testFetcher().FetchSource(context.Background(), source, Options{})

	// The isPermaLink="false" guid is an opaque id: with no <link> the
	// item has no usable URL and is discarded.
	require.Len(t, got, 2)

	links := map[string]bool{}
	for _, a := range got {
		links[a.SourceLink] = true
	}
	assert.True(t, links["https://ex.com/true-permalink"])
	assert.True(t, links["https://ex.com/default-permalink"])
	assert.False(t, links["https://ex.com/internal-tracking-guid"])
}

const atomFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Channel</title>
  <entry>
    <title>Satellite mission confirms long held theory</title>
    <link rel="alternate" href="https://ex.com/atom-entry"/>
    <id>urn:uuid:abc</id>
    <summary>Researchers described the measurement campaign as the most precise of its kind to date.</summary>
    <updated>2026-01-05T10:00:00Z</updated>
    <category term="Science"/>
  </entry>
</feed>`

func TestFetchSourceParsesAtom(t *testing.T) {
	srv := serveFeed(t, atomFeed)
	defer srv.Close()

	source := config.Source{Name: "AtomWire", FeedURL: srv.URL}
	got := testFetcher().FetchSource(context.Background(), source, Options{})

	require.Len(t, got, 1)
	assert.Equal(t, "https://ex.com/atom-entry", got[0].SourceLink)
	assert.Equal(t, "Science", got[0].Category)
	assert.Equal(t, time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC), got[0].Date.UTC())
}
