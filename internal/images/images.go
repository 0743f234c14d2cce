// Package images resolves a representative image URL per article from
// feed media fields, embedded HTML, or the article's live page.
package images

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"newsgrid/internal/logger"
	"newsgrid/internal/metrics"
	"newsgrid/internal/normalize"
	"newsgrid/internal/retry"
)

const ogUserAgent = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"

// Lazy-loading attributes checked on <img> tags, in priority order.
var imgSrcAttrs = []string{"src", "data-src", "data-original", "data-lazy-src"}

var ogSelectors = []string{
	`meta[property="og:image"]`,
	`meta[name="og:image"]`,
	`meta[property="twitter:image"]`,
	`meta[name="twitter:image"]`,
}

// Options configures the live-page OG fallback.
type Options struct {
	Timeout      time.Duration
	Retries      int
	RetryDelay   time.Duration
	HostInterval time.Duration
	CacheTTL     time.Duration
}

// Resolver extracts image URLs from feed items and, as a fallback,
// from article pages. OG lookups are memoized per page URL and paced
// per host so one origin is never hammered.
type Resolver struct {
	client  *http.Client
	opts    Options
	cache   *ttlCache
	limiter *hostLimiter
}

func NewResolver(opts Options) *Resolver {
	if opts.Timeout == 0 {
		opts.Timeout = 8 * time.Second
	}
	if opts.Retries == 0 {
		opts.Retries = 2
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 1 * time.Second
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = 1 * time.Hour
	}

	return &Resolver{
		client:  &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		cache:   newTTLCache(),
		limiter: newHostLimiter(opts.HostInterval),
	}
}

// FromItem walks the structured media fields in priority order, then
// any <img> embedded in the content fields. The first candidate that
// resolves to a valid absolute http(s) URL wins; there is no quality
// ranking. Returns "" when nothing resolves.
func FromItem(item *gofeed.Item, articleLink string) string {
	var candidates []string

	if media, ok := item.Extensions["media"]; ok {
		for _, content := range media["content"] {
			if u := imageExtensionURL(content.Attrs); u != "" {
				candidates = append(candidates, u)
			}
		}
		for _, group := range media["group"] {
			for _, content := range group.Children["content"] {
				if u := imageExtensionURL(content.Attrs); u != "" {
					candidates = append(candidates, u)
				}
			}
		}
	}

	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			candidates = append(candidates, enc.URL)
		}
	}

	if media, ok := item.Extensions["media"]; ok {
		for _, thumb := range media["thumbnail"] {
			if u := thumb.Attrs["url"]; u != "" {
				candidates = append(candidates, u)
			}
		}
	}

	if item.Image != nil && item.Image.URL != "" {
		candidates = append(candidates, item.Image.URL)
	}

	for _, field := range contentFields(item) {
		normalized := normalize.Content(field)
		if normalized == "" {
			continue
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(normalized))
		if err != nil {
			continue
		}
		doc.Find("img").Each(func(_ int, img *goquery.Selection) {
			if src := firstImgSrc(img); src != "" {
				candidates = append(candidates, src)
			}
		})
	}

	for _, src := range candidates {
		if resolved := ResolveURL(src, articleLink); resolved != "" {
			return resolved
		}
	}
	return ""
}

// FetchOgImage retrieves the article's live page and extracts the
// first og:image / twitter:image meta value. Best effort: every fetch
// or parse failure yields "", never an error.
func (r *Resolver) FetchOgImage(ctx context.Context, pageURL string) string {
	if !strings.HasPrefix(pageURL, "http") {
		return ""
	}

	if cached, ok := r.cache.Get(pageURL); ok {
		return cached
	}

	if err := r.limiter.Wait(ctx, pageURL); err != nil {
		return ""
	}

	metrics.Global.IncrementOgFallbackFetches()

	var body []byte
	err := retry.WithRetry(ctx, retry.Config{
		MaxAttempts: r.opts.Retries,
		Delay:       r.opts.RetryDelay,
		Backoff:     true,
	}, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", ogUserAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")

		resp, err := r.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("HTTP %d from %s", resp.StatusCode, pageURL)
		}

		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		logger.Warn("og image fetch failed", "url", pageURL, "error", err)
		r.cache.Set(pageURL, "", r.opts.CacheTTL)
		return ""
	}

	imageURL := extractOgImage(string(body), pageURL)
	r.cache.Set(pageURL, imageURL, r.opts.CacheTTL)
	return imageURL
}

func extractOgImage(htmlContent, pageURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var raw string
	for _, selector := range ogSelectors {
		if content, ok := doc.Find(selector).First().Attr("content"); ok && content != "" {
			raw = content
			break
		}
	}
	if raw == "" {
		return ""
	}

	return ResolveURL(html.UnescapeString(strings.TrimSpace(raw)), pageURL)
}

// RemoveLeadingDuplicateImage strips the first <img> from the retained
// HTML content when it is the same image the resolver picked and it
// sits within the first ~300 characters of the markup, so rendered
// pages do not show the hero twice. An empty <figure> or <a> wrapper
// left behind is removed with it.
func RemoveLeadingDuplicateImage(content, imageURL, articleLink string) string {
	if content == "" || imageURL == "" {
		return content
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content
	}

	firstImg := doc.Find("img").First()
	if firstImg.Length() == 0 {
		return content
	}

	src := firstImgSrc(firstImg)
	if src == "" || ResolveURL(src, articleLink) != imageURL {
		return content
	}

	idx := strings.Index(strings.ToLower(content), "<img")
	if idx < 0 || idx >= 300 {
		return content
	}

	parent := firstImg.Parent()
	firstImg.Remove()
	if tag := goquery.NodeName(parent); tag == "figure" || tag == "a" {
		if parent.Children().Length() == 0 && strings.TrimSpace(parent.Text()) == "" {
			parent.Remove()
		}
	}

	stripped, err := doc.Find("body").Html()
	if err != nil {
		return content
	}
	return stripped
}

// ResolveURL makes an image candidate absolute: protocol-relative URLs
// get https, relative paths resolve against the article link. Only
// http(s) results are accepted.
func ResolveURL(src, baseLink string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}

	if strings.HasPrefix(src, "//") {
		src = "https:" + src
	}

	if !strings.HasPrefix(src, "http") {
		if !strings.HasPrefix(baseLink, "http") {
			return ""
		}
		base, err := url.Parse(baseLink)
		if err != nil {
			return ""
		}
		ref, err := url.Parse(src)
		if err != nil {
			return ""
		}
		src = base.ResolveReference(ref).String()
	}

	u, err := url.Parse(src)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return u.String()
}

func imageExtensionURL(attrs map[string]string) string {
	u := attrs["url"]
	if u == "" {
		return ""
	}
	if attrs["medium"] == "image" || strings.HasPrefix(attrs["type"], "image/") {
		return u
	}
	return ""
}

func firstImgSrc(img *goquery.Selection) string {
	for _, attr := range imgSrcAttrs {
		if src, ok := img.Attr(attr); ok && strings.TrimSpace(src) != "" {
			return strings.TrimSpace(src)
		}
	}
	return ""
}

func contentFields(item *gofeed.Item) []any {
	fields := []any{item.Content, item.Description}
	for _, extName := range []string{"content"} {
		if ext, ok := item.Extensions[extName]; ok {
			if encoded, ok := ext["encoded"]; ok {
				fields = append(fields, encoded)
			}
		}
	}
	if item.Custom != nil {
		if summary, ok := item.Custom["summary"]; ok {
			fields = append(fields, summary)
		}
	}
	return fields
}
