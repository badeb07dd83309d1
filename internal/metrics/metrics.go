package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	TrendsSeen        int64
	TrendsFiltered    int64
	DuplicatesSkipped int64
	PostsPublished    int64
	ImagesAttached    int64
	PublishFailures   int64

	// Timings
	LastRunDuration time.Duration

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) IncrementTrendsSeen() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TrendsSeen++
}

func (m *Metrics) IncrementTrendsFiltered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TrendsFiltered++
}

func (m *Metrics) IncrementDuplicatesSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesSkipped++
}

func (m *Metrics) IncrementPostsPublished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PostsPublished++
}

func (m *Metrics) IncrementImagesAttached() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ImagesAttached++
}

func (m *Metrics) IncrementPublishFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishFailures++
}

func (m *Metrics) RecordRun(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunDuration = duration
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
		"trends_seen":          m.TrendsSeen,
		"trends_filtered":      m.TrendsFiltered,
		"duplicates_skipped":   m.DuplicatesSkipped,
		"posts_published":      m.PostsPublished,
		"images_attached":      m.ImagesAttached,
		"publish_failures":     m.PublishFailures,
		"last_run_duration_ms": m.LastRunDuration.Milliseconds(),
		"last_run_time":        m.LastRunTime.Format(time.RFC3339),
		"last_error_time":      m.LastErrorTime.Format(time.RFC3339),
		"last_error":           m.LastError,
		"is_healthy":           m.IsHealthy,
	}
}
