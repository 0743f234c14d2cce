package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	SourcesFetched     int64
	SourcesFailed      int64
	ItemsProcessed     int64
	ItemsRejected      int64
	DuplicatesSkipped  int64
	ArticlesUpserted   int64
	OgFallbackFetches  int64
	EncodingRecoveries int64

	// Timings
	LastRunDuration    time.Duration
	AverageRunDuration time.Duration
	TotalRunDuration   time.Duration
	RunCount           int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) IncrementSourcesFetched() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourcesFetched++
}

func (m *Metrics) IncrementSourcesFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourcesFailed++
}

func (m *Metrics) IncrementItemsProcessed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsProcessed++
}

func (m *Metrics) IncrementItemsRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsRejected++
}

func (m *Metrics) AddDuplicatesSkipped(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesSkipped += int64(n)
}

func (m *Metrics) AddArticlesUpserted(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesUpserted += int64(n)
}

func (m *Metrics) IncrementOgFallbackFetches() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OgFallbackFetches++
}

func (m *Metrics) IncrementEncodingRecoveries() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EncodingRecoveries++
}

func (m *Metrics) RecordRunDuration(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastRunDuration = duration
	m.TotalRunDuration += duration
	m.RunCount++

	if m.RunCount > 0 {
		m.AverageRunDuration = m.TotalRunDuration / time.Duration(m.RunCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"sources_fetched":         m.SourcesFetched,
		"sources_failed":          m.SourcesFailed,
		"items_processed":         m.ItemsProcessed,
		"items_rejected":          m.ItemsRejected,
		"duplicates_skipped":      m.DuplicatesSkipped,
		"articles_upserted":       m.ArticlesUpserted,
		"og_fallback_fetches":     m.OgFallbackFetches,
		"encoding_recoveries":     m.EncodingRecoveries,
		"last_run_duration_ms":    m.LastRunDuration.Milliseconds(),
		"average_run_duration_ms": m.AverageRunDuration.Milliseconds(),
		"last_run_time":           m.LastRunTime.Format(time.RFC3339),
		"last_error_time":         m.LastErrorTime.Format(time.RFC3339),
		"last_error":              m.LastError,
		"is_healthy":              m.IsHealthy,
	}
}
