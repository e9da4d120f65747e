package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sweepEvery = time.Minute

// Store keeps sessions in memory. Nothing survives a restart.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Controller
	deps     *Deps
	ttl      time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// NewStore creates a store. ttl > 0 starts a goroutine that evicts sessions
// idle for longer than ttl; call Close to stop it.
func NewStore(deps Deps, ttl time.Duration) *Store {
	s := &Store{
		sessions: make(map[string]*Controller),
		deps:     deps.withDefaults(),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	if ttl > 0 {
		go s.cleanup()
	}
	return s
}

func (s *Store) Create() *Controller {
	c := NewController(uuid.NewString(), s.deps)
	s.mu.Lock()
	s.sessions[c.id] = c
	s.mu.Unlock()
	return c
}

func (s *Store) Get(id string) (*Controller, error) {
	s.mu.RLock()
	c, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return c, nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Evict removes sessions idle since before now-ttl and returns how many went.
func (s *Store) Evict(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, c := range s.sessions {
		if c.idle(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Store) cleanup() {
	every := sweepEvery
	if s.ttl < every {
		every = s.ttl
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.Evict(s.deps.Clock.Now()); n > 0 {
				s.deps.Logger.Debug("evicted idle sessions",
					zap.Int("count", n),
					zap.Int("remaining", s.Len()))
			}
		}
	}
}
