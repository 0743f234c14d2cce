// Package feed retrieves configured sources over HTTP and turns their
// items into normalized article candidates.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"newsgrid/internal/article"
	"newsgrid/internal/classify"
	"newsgrid/internal/config"
	"newsgrid/internal/identity"
	"newsgrid/internal/images"
	"newsgrid/internal/logger"
	"newsgrid/internal/metrics"
	"newsgrid/internal/normalize"
	"newsgrid/internal/retry"
)

const (
	feedUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/100.0.4896.127 Safari/537.36 NewsAggregator/1.0 (+http://example.com/bot.html)"
	feedAccept    = "application/rss+xml,application/xml,application/atom+xml;q=0.9,text/xml;q=0.8,*/*;q=0.7"

	untitledPlaceholder = "untitled article"
)

// Options controls per-run fetching behavior.
type Options struct {
	// CategoriesOnly skips quality gates and images; only items that
	// classify into a non-General category are returned.
	CategoriesOnly bool
	// FetchImages enables the live-page OG fallback for sources that
	// allow it.
	FetchImages bool
}

// Fetcher retrieves and processes one source at a time. A single
// Fetcher is shared by all concurrent source tasks.
type Fetcher struct {
	client   *http.Client
	cfg      *config.Config
	resolver *images.Resolver
}

func NewFetcher(cfg *config.Config, resolver *images.Resolver) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: cfg.FetchTimeout},
		cfg:      cfg,
		resolver: resolver,
	}
}

// FetchSource retrieves, parses and processes one source. It never
// returns an error: every failure is logged and yields an empty slice
// so one bad source cannot affect the others.
func (f *Fetcher) FetchSource(ctx context.Context, source config.Source, opts Options) []article.Candidate {
	logger.Info("fetching source", "source", source.Name, "url", source.FeedURL)

	raw, err := f.fetchRaw(ctx, source.FeedURL)
	if err != nil {
		logger.Error("source fetch failed", "source", source.Name, "error", err)
		metrics.Global.IncrementSourcesFailed()
		return nil
	}

	body := decodeFeedBody(raw, source.Name)

	// gofeed detects RSS2, Atom and RDF from the document itself.
	parsed, err := newFeedParser().ParseString(body)
	if err != nil {
		logger.Error("feed parse failed", "source", source.Name, "error", err)
		metrics.Global.IncrementSourcesFailed()
		return nil
	}

	if len(parsed.Items) == 0 {
		logger.Warn("no items found in feed", "source", source.Name)
		metrics.Global.IncrementSourcesFetched()
		return nil
	}

	candidates := make([]article.Candidate, 0, len(parsed.Items))
	for index, item := range parsed.Items {
		metrics.Global.IncrementItemsProcessed()
		cand := f.processItem(ctx, item, source, index, opts)
		if cand == nil {
			metrics.Global.IncrementItemsRejected()
			continue
		}
		candidates = append(candidates, *cand)
	}

	logger.Info("source processed",
		"source", source.Name,
		"items", len(parsed.Items),
		"accepted", len(candidates))
	metrics.Global.IncrementSourcesFetched()
	return candidates
}

func (f *Fetcher) fetchRaw(ctx context.Context, feedURL string) ([]byte, error) {
	var body []byte

	err := retry.WithRetry(ctx, retry.Config{
		MaxAttempts: f.cfg.FetchRetries,
		Delay:       f.cfg.FetchRetryDelay,
		Backoff:     true,
	}, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", feedUserAgent)
		req.Header.Set("Accept", feedAccept)

		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
		}

		body, err = io.ReadAll(resp.Body)
		return err
	})

	return body, err
}

// processItem builds one candidate, or nil when a quality gate
// rejects the item. Gate rejections are expected steady-state
// behavior, not errors.
func (f *Fetcher) processItem(ctx context.Context, item *gofeed.Item, source config.Source, index int, opts Options) *article.Candidate {
	now := time.Now()

	title := strings.TrimSpace(normalizeTitle(item))
	link := extractLink(item)
	date := extractDate(item, now)
	id := identity.BuildID(link, title, source.Name, date, index)

	rawCategory := extractRawCategory(item, source)
	category := classify.Classify(rawCategory, title)

	if opts.CategoriesOnly {
		if category == classify.General {
			return nil
		}
		return &article.Candidate{
			ID:         id,
			Title:      title,
			Summary:    "For category generation",
			Date:       date,
			Source:     source.Name,
			Category:   string(category),
			Link:       article.LinkSentinel,
			SourceLink: link,
			FetchedAt:  now,
		}
	}

	if title == "" || len(title) < f.cfg.MinTitleLength || strings.ToLower(title) == untitledPlaceholder {
		return nil
	}
	if link == article.LinkSentinel {
		return nil
	}

	fullContent := extractFullContent(item)
	content := fullContent

	summary := buildSummary(item.Description, fullContent, source.Name, f.cfg.MaxSummaryLength)
	if len(summary) < f.cfg.MinSummaryLength || strings.EqualFold(summary, noSummaryPlaceholder) {
		return nil
	}
	if isSummaryJustTitle(title, summary) {
		return nil
	}

	imageURL := images.FromItem(item, link)
	if imageURL == "" && source.OgImageFallback && opts.FetchImages {
		imageURL = f.resolver.FetchOgImage(ctx, link)
	}

	if imageURL != "" && content != "" {
		content = images.RemoveLeadingDuplicateImage(content, imageURL, link)
	}

	categorySlug := identity.Slugify(string(category))
	if categorySlug == "" {
		categorySlug = "general"
	}

	return &article.Candidate{
		ID:         id,
		Title:      title,
		Summary:    summary,
		Content:    content,
		Date:       date,
		Source:     source.Name,
		Category:   string(category),
		ImageURL:   imageURL,
		Link:       "/" + categorySlug + "/" + id,
		SourceLink: link,
		FetchedAt:  now,
	}
}

func normalizeTitle(item *gofeed.Item) string {
	return normalize.Content(item.Title)
}
