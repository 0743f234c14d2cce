package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsgrid/internal/article"
)

func testCandidate(id, title, link string) article.Candidate {
	return article.Candidate{
		ID:         id,
		Title:      title,
		Summary:    "A summary long enough to be realistic for tests.",
		Date:       time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC),
		Source:     "TestWire",
		Category:   "Technology",
		Link:       "/technology/" + id,
		SourceLink: link,
		FetchedAt:  time.Now(),
	}
}

func TestFileStoreInsertAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.json")
	ctx := context.Background()

	store, err := NewFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, 0, store.Count())

	result, err := store.BulkUpsert(ctx, []article.Candidate{
		testCandidate("a-1", "First", "https://x.com/1"),
		testCandidate("a-2", "Second", "https://x.com/2"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.Empty(t, result.WriteErrors)
	assert.Equal(t, 2, store.Count())

	// A fresh store instance sees the persisted rows.
	reloaded, err := NewFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Count())

	existing, err := reloaded.FindExisting(ctx)
	require.NoError(t, err)
	assert.Len(t, existing, 2)

	links := map[string]bool{}
	for _, e := range existing {
		links[e.SourceLink] = true
	}
	assert.True(t, links["https://x.com/1"])
	assert.True(t, links["https://x.com/2"])
}

func TestFileStoreUpsertByID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.json")
	ctx := context.Background()

	store, err := NewFileStore(path)
	require.NoError(t, err)

	first := testCandidate("a-1", "Original title", "https://x.com/1")
	_, err = store.BulkUpsert(ctx, []article.Candidate{first})
	require.NoError(t, err)
	created := store.items["a-1"].CreatedAt

	updated := first
	updated.Title = "Updated title"
	result, err := store.BulkUpsert(ctx, []article.Candidate{updated})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 1, result.Matched)
	assert.Equal(t, 1, store.Count())
	assert.Equal(t, "Updated title", store.items["a-1"].Title)
	assert.Equal(t, created, store.items["a-1"].CreatedAt)
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, store.Count())
}
