package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"newsgrid/internal/article"
	"newsgrid/internal/dedupe"
)

// storedArticle is a persisted article row: the candidate fields plus
// the immutable creation timestamp.
type storedArticle struct {
	article.Candidate
	CreatedAt time.Time `json:"createdAt"`
}

// FileStore keeps articles in a JSON file keyed by id. It implements
// the same persistence port as PostgresStore for DB-less runs.
type FileStore struct {
	filePath string
	items    map[string]storedArticle
	mu       sync.RWMutex
}

// NewFileStore loads the store file if it exists; a missing file means
// an empty store.
func NewFileStore(filePath string) (*FileStore, error) {
	fs := &FileStore{
		filePath: filePath,
		items:    make(map[string]storedArticle),
	}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FileStore) load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, err := os.Stat(fs.filePath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(fs.filePath)
	if err != nil {
		return fmt.Errorf("failed to read store file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var items []storedArticle
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to unmarshal store file: %w", err)
	}

	for _, item := range items {
		fs.items[item.ID] = item
	}
	return nil
}

func (fs *FileStore) save() error {
	items := make([]storedArticle, 0, len(fs.items))
	for _, item := range fs.items {
		items = append(items, item)
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	if err := os.WriteFile(fs.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	return nil
}

func (fs *FileStore) FindExisting(ctx context.Context) ([]dedupe.ExistingArticle, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	existing := make([]dedupe.ExistingArticle, 0, len(fs.items))
	for _, item := range fs.items {
		existing = append(existing, dedupe.ExistingArticle{
			Title:      item.Title,
			SourceLink: item.SourceLink,
		})
	}
	return existing, nil
}

// BulkUpsert inserts or overwrites by id. CreatedAt survives updates.
func (fs *FileStore) BulkUpsert(ctx context.Context, candidates []article.Candidate) (dedupe.BulkResult, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	result := dedupe.BulkResult{}
	for _, cand := range candidates {
		if prev, exists := fs.items[cand.ID]; exists {
			fs.items[cand.ID] = storedArticle{Candidate: cand, CreatedAt: prev.CreatedAt}
			result.Matched++
		} else {
			fs.items[cand.ID] = storedArticle{Candidate: cand, CreatedAt: time.Now()}
			result.Inserted++
		}
	}

	if err := fs.save(); err != nil {
		result.WriteErrors = append(result.WriteErrors, err)
	}
	return result, nil
}

// Count reports the number of persisted articles.
func (fs *FileStore) Count() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.items)
}
