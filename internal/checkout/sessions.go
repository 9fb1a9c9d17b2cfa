package checkout

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// SessionTTL is how long an untouched checkout session survives.
	SessionTTL = 30 * time.Minute

	// CleanupInterval is how often the background sweep runs.
	CleanupInterval = time.Minute
)

type sessionEntry struct {
	flow    *Flow
	touched time.Time
}

// Sessions holds the open checkout flows keyed by session id. Abandoned
// sessions expire after SessionTTL; their form data is discarded with them.
type Sessions struct {
	mu    sync.RWMutex
	flows map[string]*sessionEntry

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

func NewSessions() *Sessions {
	s := &Sessions{
		flows:       make(map[string]*sessionEntry),
		stopCleanup: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

func (s *Sessions) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expireSessions()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *Sessions) expireSessions() {
	cutoff := time.Now().Add(-SessionTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entry := range s.flows {
		if entry.touched.Before(cutoff) {
			delete(s.flows, id)
		}
	}
}

// Open registers a flow and returns its session id.
func (s *Sessions) Open(flow *Flow) string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[id] = &sessionEntry{flow: flow, touched: time.Now()}
	return id
}

// Get returns the flow for id and refreshes its TTL.
func (s *Sessions) Get(id string) (*Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.flows[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	entry.touched = time.Now()
	return entry.flow, nil
}

// Remove drops a finished session.
func (s *Sessions) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, id)
}

// Close stops the background sweep and waits for it to finish.
func (s *Sessions) Close() error {
	close(s.stopCleanup)
	s.wg.Wait()
	return nil
}
