// Package cache provides a deduplicating in-memory cache for expensive
// computations such as audio synthesis or AI explanations. A miss triggers
// the caller-supplied compute function at most once per key, no matter how
// many goroutines ask concurrently; everyone else waits for that one result.
//
// Entries expire lazily: TTL is checked on lookup, never by a background
// timer inside the store. A periodic sweep can be layered on top via
// SweepExpired. When the store is full, the least recently accessed entry is
// evicted; an in-flight computation is never evicted because it only enters
// the store once it succeeds.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ComputeFunc produces the value for a missing key. It may block on network
// or disk; the store imposes no timeout of its own. A failed computation is
// not cached and its error is delivered verbatim to every waiter.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// Entry is the persistable form of a cache entry.
type Entry struct {
	Key            string        `json:"key" db:"key"`
	Value          []byte        `json:"value" db:"value"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	LastAccessedAt time.Time     `json:"last_accessed_at" db:"last_accessed_at"`
	TTL            time.Duration `json:"ttl" db:"ttl"` // zero => no time expiry
}

// expired reports whether the entry is past its TTL at the given time.
func (e Entry) expired(now time.Time) bool {
	return e.TTL > 0 && now.After(e.CreatedAt.Add(e.TTL))
}

// Stats counts cache lifecycle events.
type Stats struct {
	Hits      int64
	Misses    int64
	Expired   int64
	Evictions int64
}

// Config configures a Store. Zero values mean unbounded capacity and the
// system clock.
type Config struct {
	// Capacity is the maximum number of entries; 0 disables capacity eviction.
	Capacity int
	// Now supplies the current time; defaults to time.Now.
	Now func() time.Time
}

// Store is a capacity-bounded, TTL-aware cache with a single-flight
// guarantee per key. Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	entries  map[string]*list.Element // of *Entry
	lru      *list.List               // front = most recently accessed
	capacity int
	now      func() time.Time
	stats    Stats
	sf       singleflight.Group
}

// New creates a store from the given config.
func New(cfg Config) *Store {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
		capacity: cfg.Capacity,
		now:      now,
	}
}

// GetOrCompute returns the cached value for key, computing it if absent or
// expired. Among concurrent callers for the same key, exactly one runs
// compute; the rest receive the same value or the same error. Errors are not
// cached, so the next call retries. A ttl of zero stores the entry without
// time expiry.
//
// If ctx is done while waiting, only this caller gives up with ctx.Err();
// the computation keeps running for the remaining waiters and its result is
// still stored.
func (s *Store) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) ([]byte, error) {
	if v, ok := s.lookup(key); ok {
		return v, nil
	}

	ch := s.sf.DoChan(key, func() (any, error) {
		// A previous flight may have stored the value between our miss and
		// this flight starting.
		if v, ok := s.lookup(key); ok {
			return v, nil
		}
		// The computation outlives any single waiter.
		v, err := compute(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		s.put(key, v, ttl)
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate removes the entry for key immediately, regardless of TTL, and
// detaches any in-flight computation so the next call recomputes.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	if el, ok := s.entries[key]; ok {
		s.removeLocked(key, el)
	}
	s.mu.Unlock()
	s.sf.Forget(key)
}

// Len returns the number of stored entries, including not-yet-collected
// expired ones.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats returns a copy of the lifecycle counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// SweepExpired removes every expired entry and returns how many were
// removed. Intended to be driven by an external periodic job.
func (s *Store) SweepExpired() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, el := range s.entries {
		if el.Value.(*Entry).expired(now) {
			s.removeLocked(key, el)
			s.stats.Expired++
			removed++
		}
	}
	return removed
}

// Snapshot returns copies of all live entries, most recently accessed first.
func (s *Store) Snapshot() []Entry {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]Entry, 0, len(s.entries))
	for el := s.lru.Front(); el != nil; el = el.Next() {
		e := el.Value.(*Entry)
		if e.expired(now) {
			continue
		}
		cp := *e
		cp.Value = append([]byte(nil), e.Value...)
		entries = append(entries, cp)
	}
	return entries
}

// Restore replaces the store contents with the given entries. Entries that
// are already expired are dropped; the rest are inserted in order until
// capacity is reached.
func (s *Store) Restore(entries []Entry) int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*list.Element, len(entries))
	s.lru.Init()
	restored := 0
	for _, e := range entries {
		if e.Key == "" || e.expired(now) {
			continue
		}
		if _, ok := s.entries[e.Key]; ok {
			continue
		}
		if s.capacity > 0 && restored >= s.capacity {
			break
		}
		cp := e
		cp.Value = append([]byte(nil), e.Value...)
		s.entries[e.Key] = s.lru.PushBack(&cp)
		restored++
	}
	return restored
}

// lookup returns the live value for key and marks it accessed. An expired
// entry is removed and treated as absent.
func (s *Store) lookup(key string) ([]byte, bool) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.entries[key]
	if !ok {
		s.stats.Misses++
		return nil, false
	}
	e := el.Value.(*Entry)
	if e.expired(now) {
		s.removeLocked(key, el)
		s.stats.Expired++
		s.stats.Misses++
		return nil, false
	}
	e.LastAccessedAt = now
	s.lru.MoveToFront(el)
	s.stats.Hits++
	return e.Value, true
}

// put stores a freshly computed value, evicting least recently accessed
// entries if the insertion exceeds capacity.
func (s *Store) put(key string, value []byte, ttl time.Duration) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.entries[key]; ok {
		// Exactly one entry per key: refresh in place.
		e := el.Value.(*Entry)
		e.Value = value
		e.CreatedAt = now
		e.LastAccessedAt = now
		e.TTL = ttl
		s.lru.MoveToFront(el)
		return
	}
	e := &Entry{Key: key, Value: value, CreatedAt: now, LastAccessedAt: now, TTL: ttl}
	s.entries[key] = s.lru.PushFront(e)
	for s.capacity > 0 && len(s.entries) > s.capacity {
		back := s.lru.Back()
		if back == nil {
			break
		}
		s.removeLocked(back.Value.(*Entry).Key, back)
		s.stats.Evictions++
	}
}

func (s *Store) removeLocked(key string, el *list.Element) {
	s.lru.Remove(el)
	delete(s.entries, key)
}
