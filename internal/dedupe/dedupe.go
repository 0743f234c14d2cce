// Package dedupe merges candidate batches against the persisted
// article set and performs the idempotent upserts.
package dedupe

import (
	"context"
	"net/url"
	"strings"

	"newsgrid/internal/article"
	"newsgrid/internal/logger"
)

// Tracking parameters that never distinguish two copies of the same
// article. Stripped before links are compared.
var trackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"fbclid", "gclid", "msclkid", "mc_eid", "mc_cid",
	"_ga", "source", "src", "ref", "spm", "share_id", "share_source",
	"feedType", "feedName", "rssfeed", "syndication", "CMP", "ncid", "ICID",
}

// ExistingArticle is the projection of a persisted article used to
// build the dedup snapshot.
type ExistingArticle struct {
	Title      string
	SourceLink string
}

// BulkResult reports one unordered bulk upsert. WriteErrors carries
// per-row failures; they never abort the batch.
type BulkResult struct {
	Inserted    int
	Upserted    int
	Matched     int
	WriteErrors []error
}

// Store is the persistence port. Upserts are keyed by candidate ID,
// which carries a uniqueness constraint.
type Store interface {
	FindExisting(ctx context.Context) ([]ExistingArticle, error)
	BulkUpsert(ctx context.Context, candidates []article.Candidate) (BulkResult, error)
}

// NormalizeSourceLink canonicalizes an external URL for dedup
// comparison: tracking parameters removed, remaining query sorted,
// trailing slash trimmed, port and fragment dropped. Returns "" for
// anything that is not an absolute http(s) URL.
func NormalizeSourceLink(link string) string {
	link = strings.TrimSpace(link)
	if !strings.HasPrefix(link, "http") {
		return ""
	}

	u, err := url.Parse(link)
	if err != nil {
		return link
	}

	q := u.Query()
	for _, param := range trackingParams {
		q.Del(param)
	}

	path := u.Path
	if path != "/" && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}

	normalized := u.Scheme + "://" + u.Hostname() + path
	if encoded := q.Encode(); encoded != "" {
		normalized += "?" + encoded
	}
	return normalized
}

// NormalizeTitle canonicalizes a title for dedup comparison.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// Deduplicator filters candidate batches against a Store snapshot and
// upserts the survivors.
type Deduplicator struct {
	store Store
}

func New(store Store) *Deduplicator {
	return &Deduplicator{store: store}
}

// UpsertBatch loads the persisted (title, sourceLink) pairs once,
// skips every candidate that collides with them or with an earlier
// candidate in the same batch (link checked first, then title), and
// bulk-upserts the rest keyed by ID. The snapshot is taken per batch:
// two concurrent runs can still race, which upsert-by-id tolerates.
func (d *Deduplicator) UpsertBatch(ctx context.Context, candidates []article.Candidate) (article.Stats, error) {
	stats := article.Stats{}
	if len(candidates) == 0 {
		logger.Info("no candidates to persist")
		return stats, nil
	}

	existing, err := d.store.FindExisting(ctx)
	if err != nil {
		return stats, err
	}

	existingLinks := make(map[string]struct{}, len(existing))
	existingTitles := make(map[string]struct{}, len(existing))
	for _, doc := range existing {
		if link := NormalizeSourceLink(doc.SourceLink); link != "" {
			existingLinks[link] = struct{}{}
		}
		if doc.Title != "" {
			existingTitles[NormalizeTitle(doc.Title)] = struct{}{}
		}
	}

	batchLinks := make(map[string]struct{})
	batchTitles := make(map[string]struct{})
	survivors := make([]article.Candidate, 0, len(candidates))

	for _, cand := range candidates {
		normLink := NormalizeSourceLink(cand.SourceLink)
		normTitle := NormalizeTitle(cand.Title)

		if normLink != "" {
			if _, dup := existingLinks[normLink]; dup {
				stats.SkippedBySourceLink++
				continue
			}
			if _, dup := batchLinks[normLink]; dup {
				stats.SkippedBySourceLink++
				continue
			}
		}

		if _, dup := existingTitles[normTitle]; dup {
			stats.SkippedByTitle++
			continue
		}
		if _, dup := batchTitles[normTitle]; dup {
			stats.SkippedByTitle++
			continue
		}

		if normLink != "" {
			batchLinks[normLink] = struct{}{}
		}
		batchTitles[normTitle] = struct{}{}
		survivors = append(survivors, cand)
	}

	stats.ProcessedInBatch = len(survivors)
	logger.Info("deduplication complete",
		"skipped_by_link", stats.SkippedBySourceLink,
		"skipped_by_title", stats.SkippedByTitle,
		"to_upsert", len(survivors))

	if len(survivors) == 0 {
		return stats, nil
	}

	result, err := d.store.BulkUpsert(ctx, survivors)
	if err != nil {
		return stats, err
	}

	stats.NewlyAdded = result.Inserted + result.Upserted
	if len(result.WriteErrors) > 0 {
		logger.Error("bulk upsert finished with write errors",
			"error_count", len(result.WriteErrors),
			"first_error", result.WriteErrors[0])
	}
	logger.Info("bulk upsert complete",
		"inserted", result.Inserted,
		"upserted", result.Upserted,
		"matched", result.Matched,
		"newly_added", stats.NewlyAdded)

	return stats, nil
}
