package services

import (
	"sort"
	"sync"
	"time"

	"github.com/google/logger"

	"deluxxe/internal/models"
)

// storedResult holds a finished raffle and when it was last looked at.
type storedResult struct {
	Result       *models.RaffleResult
	LastActivity time.Time
}

// ResultStore keeps finished raffle results in memory.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]*storedResult // Key: RaffleResult.ID
	now     func() time.Time
}

// NewResultStore creates and initializes a new ResultStore.
func NewResultStore() *ResultStore {
	return &ResultStore{
		results: make(map[string]*storedResult),
		now:     time.Now,
	}
}

// Put stores a result under its ID.
func (s *ResultStore) Put(result *models.RaffleResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[result.ID] = &storedResult{Result: result, LastActivity: s.now()}
}

// Get returns a result and refreshes its activity time.
func (s *ResultStore) Get(id string) (*models.RaffleResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.results[id]
	if !exists {
		return nil, false
	}
	stored.LastActivity = s.now()
	return stored.Result, true
}

// List returns every stored result, newest first.
func (s *ResultStore) List() []*models.RaffleResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.RaffleResult, 0, len(s.results))
	for _, stored := range s.results {
		out = append(out, stored.Result)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// CleanUpInactiveResults removes results nobody has looked at for longer
// than ttl and returns how many were removed.
func (s *ResultStore) CleanUpInactiveResults(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, stored := range s.results {
		if s.now().Sub(stored.LastActivity) > ttl {
			logger.Infof("Expiring raffle result: %s", id)
			delete(s.results, id)
			removed++
		}
	}
	return removed
}

// Delete removes a single result.
func (s *ResultStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[id]; !ok {
		return false
	}
	delete(s.results, id)
	logger.Infof("Deleted raffle result: %s", id)
	return true
}
