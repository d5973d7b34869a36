package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"casecount/internal/infrastructure"
	"casecount/pkg/contracts/domain"
)

// storedResult is one cached analysis.
type storedResult struct {
	result    *domain.AnalysisResult
	storedAt  time.Time
	expiresAt time.Time
}

// ResultStoreStats is a snapshot of the store's counters.
type ResultStoreStats struct {
	Entries    int     `json:"entries"`
	Capacity   int     `json:"capacity"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	Evicted    int64   `json:"evicted"`
	TTLSeconds float64 `json:"ttl_seconds"`
	Closed     bool    `json:"closed"`
}

// ResultStore keeps analysis results in memory so a results page can link
// to its download by token. Entries expire after ttl; when the store is full
// the oldest entry is evicted. Results are copied on the way in and out.
type ResultStore struct {
	mu       sync.RWMutex
	entries  map[string]storedResult
	ttl      time.Duration
	capacity int
	hits     int64
	misses   int64
	evicted  int64
	closed   bool

	now       func() time.Time
	metrics   *infrastructure.BusinessMetrics
	logger    *slog.Logger
	stopChan  chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// ResultStoreOption customizes a ResultStore.
type ResultStoreOption func(*ResultStore)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ResultStoreOption {
	return func(s *ResultStore) { s.now = now }
}

// WithStoreMetrics records cache size and evictions.
func WithStoreMetrics(m *infrastructure.BusinessMetrics) ResultStoreOption {
	return func(s *ResultStore) { s.metrics = m }
}

// WithStoreLogger sets the logger.
func WithStoreLogger(logger *slog.Logger) ResultStoreOption {
	return func(s *ResultStore) { s.logger = logger }
}

// NewResultStore creates a store and starts its sweeper. A sweepInterval of
// zero disables background sweeping; expired entries are still never
// returned. Call Close to stop the sweeper.
func NewResultStore(ttl time.Duration, capacity int, sweepInterval time.Duration, opts ...ResultStoreOption) *ResultStore {
	s := &ResultStore{
		entries:  make(map[string]storedResult),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
		metrics:  infrastructure.NewNoopBusinessMetrics(),
		logger:   infrastructure.GetLogger(),
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = infrastructure.NewNoopBusinessMetrics()
	}
	if s.logger == nil {
		s.logger = infrastructure.GetLogger()
	}
	s.logger = s.logger.With(slog.String("component", "result_store"))

	if sweepInterval > 0 {
		s.wg.Add(1)
		go s.sweepLoop(sweepInterval)
	}
	return s
}

// Put stores a copy of result under a new token and returns the stored copy.
func (s *ResultStore) Put(ctx context.Context, result *domain.AnalysisResult) (*domain.AnalysisResult, error) {
	stored := result.Clone()
	stored.Token = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	if s.capacity <= 0 {
		return nil, ErrStoreDisabled
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	stored.ExpiresAt = &expiresAt

	for len(s.entries) >= s.capacity {
		s.evictOldestLocked(ctx)
	}
	s.entries[stored.Token] = storedResult{result: stored, storedAt: now, expiresAt: expiresAt}
	s.metrics.ResultsCached.Add(ctx, 1)

	return stored.Clone(), nil
}

// Get returns a copy of the result stored under token.
func (s *ResultStore) Get(ctx context.Context, token string) (*domain.AnalysisResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[token]
	if !ok {
		s.misses++
		return nil, false
	}
	if !s.now().Before(entry.expiresAt) {
		s.removeLocked(ctx, token)
		s.misses++
		return nil, false
	}
	s.hits++
	return entry.result.Clone(), true
}

// Delete removes token from the store.
func (s *ResultStore) Delete(ctx context.Context, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[token]; ok {
		delete(s.entries, token)
		s.metrics.ResultsCached.Add(ctx, -1)
	}
}

// Len returns the number of entries, including expired ones not yet swept.
func (s *ResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats returns the store's counters.
func (s *ResultStore) Stats() ResultStoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ResultStoreStats{
		Entries:    len(s.entries),
		Capacity:   s.capacity,
		Hits:       s.hits,
		Misses:     s.misses,
		Evicted:    s.evicted,
		TTLSeconds: s.ttl.Seconds(),
		Closed:     s.closed,
	}
}

// Sweep drops expired entries and returns how many were removed.
func (s *ResultStore) Sweep(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for token, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			s.removeLocked(ctx, token)
			removed++
		}
	}
	if removed > 0 {
		s.logger.DebugContext(ctx, "expired results swept", slog.Int("removed", removed))
	}
	return removed
}

// Close stops the sweeper and drops every entry. It is safe to call more
// than once.
func (s *ResultStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()

		s.mu.Lock()
		s.closed = true
		if n := len(s.entries); n > 0 {
			s.metrics.ResultsCached.Add(context.Background(), int64(-n))
		}
		s.entries = make(map[string]storedResult)
		s.mu.Unlock()
	})
	return nil
}

func (s *ResultStore) removeLocked(ctx context.Context, token string) {
	delete(s.entries, token)
	s.evicted++
	s.metrics.ResultsCached.Add(ctx, -1)
	s.metrics.ResultsEvicted.Add(ctx, 1)
}

func (s *ResultStore) evictOldestLocked(ctx context.Context) {
	var oldestToken string
	var oldestTime time.Time

	for token, entry := range s.entries {
		if oldestToken == "" || entry.storedAt.Before(oldestTime) {
			oldestToken = token
			oldestTime = entry.storedAt
		}
	}

	if oldestToken != "" {
		s.removeLocked(ctx, oldestToken)
		s.logger.DebugContext(ctx, "result evicted at capacity",
			slog.String("token", oldestToken),
			slog.Int("capacity", s.capacity))
	}
}

func (s *ResultStore) sweepLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopChan:
			return
		}
	}
}
