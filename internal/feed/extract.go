package feed

import (
	"html"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"newsgrid/internal/article"
	"newsgrid/internal/config"
	"newsgrid/internal/normalize"
)

// extractLink resolves the item's canonical external URL. The parser
// already folds the common shapes into Item.Link (string links, Atom
// rel=alternate objects); the remaining precedence is any absolute
// entry of the link list, then a permalink-style guid, then nothing.
// Anything that is not absolute http(s) collapses to the sentinel.
func extractLink(item *gofeed.Item) string {
	if link := cleanLink(item.Link); strings.HasPrefix(link, "http") {
		return link
	}

	for _, raw := range item.Links {
		if link := cleanLink(raw); strings.HasPrefix(link, "http") {
			return link
		}
	}

	// guid covers both RSS <guid> and the Atom <id>. A guid explicitly
	// declared isPermaLink="false" is an opaque identifier even when it
	// looks like a URL, so it never becomes the link.
	if item.Custom[guidPermalinkKey] != "false" {
		if link := cleanLink(item.GUID); strings.HasPrefix(link, "http") {
			return link
		}
	}

	return article.LinkSentinel
}

func cleanLink(raw string) string {
	return html.UnescapeString(strings.TrimSpace(raw))
}

// dc:date and other oddball date strings the typed parser did not
// recognize are retried against these layouts.
var fallbackDateLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// extractDate picks the publication timestamp: published, then
// updated, then dc:date. Absent or unparseable dates become now.
func extractDate(item *gofeed.Item, now time.Time) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}

	var raw string
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Date) > 0 {
		raw = item.DublinCoreExt.Date[0]
	} else if item.Published != "" {
		raw = item.Published
	} else if item.Updated != "" {
		raw = item.Updated
	}

	if raw = strings.TrimSpace(normalize.Content(raw)); raw != "" {
		for _, layout := range fallbackDateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
	}

	return now
}

// extractRawCategory joins the item's distinct category values and
// keeps the first comma segment as classification input, falling back
// to the source's configured default, then "General".
func extractRawCategory(item *gofeed.Item, source config.Source) string {
	fallback := source.DefaultCategory
	if fallback == "" {
		fallback = "General"
	}

	seen := make(map[string]struct{}, len(item.Categories))
	var distinct []string
	for _, cat := range item.Categories {
		cat = strings.TrimSpace(normalize.Content(cat))
		if cat == "" {
			continue
		}
		if _, dup := seen[cat]; dup {
			continue
		}
		seen[cat] = struct{}{}
		distinct = append(distinct, cat)
	}

	if len(distinct) == 0 {
		return fallback
	}

	joined := strings.Join(distinct, ", ")
	first := strings.TrimSpace(strings.SplitN(joined, ",", 2)[0])
	if first == "" {
		return fallback
	}
	return first
}

// extractFullContent picks the richest HTML body the feed offers:
// content:encoded / atom content first, then description/summary.
func extractFullContent(item *gofeed.Item) string {
	if content := normalize.Content(item.Content); content != "" {
		return content
	}
	return normalize.Content(item.Description)
}
