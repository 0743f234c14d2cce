// Package pipeline fans the feed fetcher out across all configured
// sources and assembles the final article batch.
package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"newsgrid/internal/article"
	"newsgrid/internal/config"
	"newsgrid/internal/dedupe"
	"newsgrid/internal/feed"
	"newsgrid/internal/identity"
	"newsgrid/internal/logger"
	"newsgrid/internal/metrics"
)

// Options selects what one pipeline run does.
type Options struct {
	CategoriesOnly bool
	FetchImages    bool
	Persist        bool
	Limit          int
}

// Result carries the assembled batch and, when persistence ran, its
// stats.
type Result struct {
	Articles []article.Candidate
	Stats    *article.Stats
}

// Pipeline wires the fetcher and the deduplicator together.
type Pipeline struct {
	cfg     *config.Config
	fetcher *feed.Fetcher
	deduper *dedupe.Deduplicator
}

func New(cfg *config.Config, fetcher *feed.Fetcher, deduper *dedupe.Deduplicator) *Pipeline {
	return &Pipeline{cfg: cfg, fetcher: fetcher, deduper: deduper}
}

// Run fetches every source concurrently and waits for all of them to
// settle; a source failing completely only costs its own articles.
// The aggregate is sorted newest-first, capped, given guaranteed
// unique IDs and optionally persisted.
func (p *Pipeline) Run(ctx context.Context, sources []config.Source, opts Options) (Result, error) {
	start := time.Now()
	defer func() {
		metrics.Global.RecordRunDuration(time.Since(start))
		metrics.Global.SetLastRun()
	}()

	logger.Info("starting pipeline run", "sources", len(sources), "categories_only", opts.CategoriesOnly)

	results := make([][]article.Candidate, len(sources))
	var wg sync.WaitGroup
	for i, source := range sources {
		wg.Add(1)
		go func(i int, source config.Source) {
			defer wg.Done()
			fetchOpts := feed.Options{
				CategoriesOnly: opts.CategoriesOnly,
				FetchImages:    opts.FetchImages && source.OgImageFallback,
			}
			results[i] = p.fetcher.FetchSource(ctx, source, fetchOpts)
		}(i, source)
	}
	wg.Wait()

	var all []article.Candidate
	for _, batch := range results {
		all = append(all, batch...)
	}

	if opts.CategoriesOnly {
		return Result{Articles: distinctCategories(all)}, nil
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Date.After(all[j].Date)
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = p.cfg.ArticleCap
	}
	if len(all) > limit {
		all = all[:limit]
	}

	all = identity.EnsureUnique(all)

	logger.Info("pipeline run assembled", "articles", len(all))

	if !opts.Persist {
		return Result{Articles: all}, nil
	}

	stats, err := p.deduper.UpsertBatch(ctx, all)
	if err != nil {
		metrics.Global.SetError(err.Error())
		return Result{Articles: all}, err
	}

	metrics.Global.AddDuplicatesSkipped(stats.SkippedBySourceLink + stats.SkippedByTitle)
	metrics.Global.AddArticlesUpserted(stats.NewlyAdded)

	return Result{Articles: all, Stats: &stats}, nil
}

// distinctCategories reduces a category-only run to one placeholder
// candidate per distinct display category.
func distinctCategories(candidates []article.Candidate) []article.Candidate {
	seen := make(map[string]struct{})
	var out []article.Candidate
	for _, cand := range candidates {
		if _, dup := seen[cand.Category]; dup {
			continue
		}
		seen[cand.Category] = struct{}{}
		out = append(out, article.Candidate{Category: cand.Category})
	}
	return out
}
