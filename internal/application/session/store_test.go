package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/phish-detector/internal/domain/analysis"
)

func TestStore_CreateGetDelete(t *testing.T) {
	s := NewStore(Deps{Sleeper: &gateSleeper{}, Logger: zap.NewNop()}, 0)
	defer s.Close()

	a := s.Create()
	b := s.Create()
	if a.ID() == b.ID() {
		t.Fatal("session ids must be unique")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}

	got, err := s.Get(a.ID())
	if err != nil || got != a {
		t.Fatalf("Get(%s) = %v, %v", a.ID(), got, err)
	}
	if err := s.Delete(a.ID()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(a.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get after delete err = %v", err)
	}
	if err := s.Delete(a.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Delete err = %v", err)
	}
}

func TestStore_Evict(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := NewStore(Deps{Clock: clock, Sleeper: &gateSleeper{}, Logger: zap.NewNop()}, 30*time.Minute)
	defer s.Close()

	stale := s.Create()
	clock.Advance(20 * time.Minute)
	fresh := s.Create()
	clock.Advance(15 * time.Minute)

	if n := s.Evict(clock.Now()); n != 1 {
		t.Fatalf("evicted %d, want 1", n)
	}
	if _, err := s.Get(stale.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Error("stale session should be gone")
	}
	if _, err := s.Get(fresh.ID()); err != nil {
		t.Error("fresh session should survive")
	}
}

func TestStore_EvictSkipsPending(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	sl := &gateSleeper{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	s := NewStore(Deps{Clock: clock, Sleeper: sl, Logger: zap.NewNop()}, time.Minute)
	defer s.Close()

	c := s.Create()
	done := make(chan error, 1)
	go func() {
		_, err := c.Analyze(context.Background(), analysis.Input{Text: "free prize", Type: analysis.TypeEmail})
		done <- err
	}()
	<-sl.entered

	clock.Advance(time.Hour)
	if n := s.Evict(clock.Now()); n != 0 {
		t.Errorf("evicted %d pending sessions", n)
	}

	// the chat flow is independent of the pending analysis: it reaches its
	// own delay instead of failing with ErrBusy
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Ask(ctx, "thanks"); !errors.Is(err, context.Canceled) {
		t.Errorf("ask while analyzing err = %v, want context.Canceled", err)
	}

	close(sl.gate)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}
