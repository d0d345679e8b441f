// Package memstore is a single-process Store with per-key expiry, used for
// local runs and tests. Expired keys are invisible on read and reclaimed by Run.
package memstore

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/cwrk-planet/signaling-service/internal/storage"

	"github.com/benbjohnson/clock"
)

type entry struct {
	value   []byte
	expires time.Time // zero: no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

type Store struct {
	clock clock.Clock

	mu    sync.Mutex
	items map[string]entry
}

var _ storage.Store = (*Store)(nil)

func New(clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.New()
	}
	return &Store{clock: clk, items: make(map[string]entry)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = s.clock.Now().Add(ttl)
	}

	s.mu.Lock()
	s.items[key] = e
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

func (s *Store) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	e, ok := s.lookup(key)
	var n int64
	if ok {
		n, _ = strconv.ParseInt(string(e.value), 10, 64)
	}
	n++
	if !ok || e.expires.IsZero() {
		e.expires = now.Add(window)
	}
	e.value = []byte(strconv.FormatInt(n, 10))
	s.items[key] = e
	return n, e.expires.Sub(now), nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// Len counts live keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	n := 0
	for _, e := range s.items {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

// Sweep drops expired keys and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	removed := 0
	for k, e := range s.items {
		if e.expired(now) {
			delete(s.items, k)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	t := s.clock.Ticker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				slog.Debug("memstore: swept expired keys", slog.Int("count", n))
			}
		}
	}
}

// lookup must be called with mu held.
func (s *Store) lookup(key string) (entry, bool) {
	e, ok := s.items[key]
	if !ok {
		return entry{}, false
	}
	if e.expired(s.clock.Now()) {
		delete(s.items, key)
		return entry{}, false
	}
	return e, true
}
