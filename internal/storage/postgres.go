package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"newsgrid/internal/article"
	"newsgrid/internal/dedupe"
	"newsgrid/internal/logger"
)

// PostgresStore persists articles in a PostgreSQL table with a
// uniqueness constraint on the pipeline-assigned id.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects, pings and runs the idempotent schema
// setup. The handle is passed around explicitly; there is no package
// singleton.
func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}

	if err := store.ensureSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("postgres store connected")
	return store, nil
}

func (ps *PostgresStore) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		summary TEXT NOT NULL,
		content TEXT,
		date TIMESTAMPTZ NOT NULL,
		source TEXT NOT NULL,
		category TEXT NOT NULL,
		image_url TEXT,
		link TEXT NOT NULL,
		source_link TEXT NOT NULL,
		fetched_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_articles_date ON articles(date DESC);
	CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category);
	CREATE INDEX IF NOT EXISTS idx_articles_source_link ON articles(source_link);
	`

	_, err := ps.db.Exec(schema)
	return err
}

// FindExisting loads the (title, sourceLink) projection of every
// persisted article for the dedup snapshot.
func (ps *PostgresStore) FindExisting(ctx context.Context) ([]dedupe.ExistingArticle, error) {
	rows, err := ps.db.QueryContext(ctx, `SELECT title, source_link FROM articles`)
	if err != nil {
		return nil, fmt.Errorf("querying existing articles: %w", err)
	}
	defer rows.Close()

	var existing []dedupe.ExistingArticle
	for rows.Next() {
		var doc dedupe.ExistingArticle
		if err := rows.Scan(&doc.Title, &doc.SourceLink); err != nil {
			return nil, err
		}
		existing = append(existing, doc)
	}
	return existing, rows.Err()
}

// BulkUpsert writes candidates keyed by id. created_at is set only on
// first insert; every other column is overwritten. Rows are written
// unordered: a failing row is collected as a write error and the rest
// of the batch proceeds.
func (ps *PostgresStore) BulkUpsert(ctx context.Context, candidates []article.Candidate) (dedupe.BulkResult, error) {
	result := dedupe.BulkResult{}

	const upsert = `
	INSERT INTO articles (id, title, summary, content, date, source, category, image_url, link, source_link, fetched_at, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
	ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title,
		summary = EXCLUDED.summary,
		content = EXCLUDED.content,
		date = EXCLUDED.date,
		source = EXCLUDED.source,
		category = EXCLUDED.category,
		image_url = EXCLUDED.image_url,
		link = EXCLUDED.link,
		source_link = EXCLUDED.source_link,
		fetched_at = EXCLUDED.fetched_at
	RETURNING (xmax = 0) AS inserted`

	for _, cand := range candidates {
		var inserted bool
		err := ps.db.QueryRowContext(ctx, upsert,
			cand.ID, cand.Title, cand.Summary, nullable(cand.Content), cand.Date,
			cand.Source, cand.Category, nullable(cand.ImageURL), cand.Link,
			cand.SourceLink, cand.FetchedAt,
		).Scan(&inserted)
		if err != nil {
			result.WriteErrors = append(result.WriteErrors, fmt.Errorf("upserting %s: %w", cand.ID, err))
			continue
		}

		if inserted {
			result.Inserted++
		} else {
			result.Matched++
		}
	}

	return result, nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
