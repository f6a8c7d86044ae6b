// Package itemstore holds the durable per-item learning state shared by the
// review scheduler and the persistence layer. Reads may run concurrently;
// writes to a single item are serialized by a per-item mutex.
package itemstore

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/example/wordmem/pkg/models"
)

// Default scheduling state for newly imported items.
const (
	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3
	DefaultDifficulty = 1
)

// ErrNotFound is returned when an operation references an unknown word.
// Use errors.Is to check: errors.Is(err, itemstore.ErrNotFound)
var ErrNotFound = errors.New("itemstore: item not found")

// entry wraps an item with its own mutex and insertion sequence number.
// The per-item mutex serializes answer updates against the same word while
// letting updates to different words proceed concurrently.
type entry struct {
	mu   sync.Mutex
	item models.VocabularyItem
	seq  int
}

// Store is an in-memory collection of vocabulary items keyed by word.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	nextSeq int
}

// New creates an empty store.
func New() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Import seeds new items from the given records with default scheduling
// state, due immediately. Records whose word already exists are skipped so a
// re-import never resets learning progress. Returns the number of items added.
func (s *Store) Import(records []models.ImportRecord, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, rec := range records {
		if rec.Word == "" {
			continue
		}
		if _, ok := s.entries[rec.Word]; ok {
			continue
		}
		difficulty := rec.Difficulty
		if difficulty < 1 || difficulty > 5 {
			difficulty = DefaultDifficulty
		}
		s.entries[rec.Word] = &entry{
			item: models.VocabularyItem{
				Word:          rec.Word,
				Meaning:       rec.Meaning,
				Pronunciation: rec.Pronunciation,
				Difficulty:    difficulty,
				EaseFactor:    DefaultEaseFactor,
				DueAt:         now,
				CreatedAt:     now,
			},
			seq: s.nextSeq,
		}
		s.nextSeq++
		added++
	}
	return added
}

// Get returns a copy of the item for the given word.
func (s *Store) Get(word string) (models.VocabularyItem, bool) {
	s.mu.RLock()
	e, ok := s.entries[word]
	s.mu.RUnlock()
	if !ok {
		return models.VocabularyItem{}, false
	}
	e.mu.Lock()
	item := e.item
	e.mu.Unlock()
	return item, true
}

// Update applies fn to the item for the given word under its per-item lock.
// Returns ErrNotFound for an unknown word.
func (s *Store) Update(word string, fn func(*models.VocabularyItem)) (models.VocabularyItem, error) {
	s.mu.RLock()
	e, ok := s.entries[word]
	s.mu.RUnlock()
	if !ok {
		return models.VocabularyItem{}, ErrNotFound
	}
	e.mu.Lock()
	fn(&e.item)
	item := e.item
	e.mu.Unlock()
	return item, nil
}

// ForEach calls fn with a copy of every item and its insertion sequence
// number. Items are visited in insertion order. The snapshot of each item is
// consistent, but items updated during the walk may be observed either
// before or after their update.
func (s *Store) ForEach(fn func(item models.VocabularyItem, seq int)) {
	for _, e := range s.ordered() {
		e.mu.Lock()
		item := e.item
		seq := e.seq
		e.mu.Unlock()
		fn(item, seq)
	}
}

// Remove deletes the item for the given word. Removal is caller-driven; the
// scheduling core itself never deletes items.
func (s *Store) Remove(word string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[word]; !ok {
		return false
	}
	delete(s.entries, word)
	return true
}

// Len returns the number of items in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot returns copies of all items in insertion order, suitable for
// persistence or statistics.
func (s *Store) Snapshot() []models.VocabularyItem {
	ordered := s.ordered()
	items := make([]models.VocabularyItem, 0, len(ordered))
	for _, e := range ordered {
		e.mu.Lock()
		items = append(items, e.item)
		e.mu.Unlock()
	}
	return items
}

// Restore replaces the store contents with the given items, in order. Items
// that violate an invariant (ease factor below the minimum, negative
// interval or counters, zero due date) are clamped to the nearest valid
// value rather than rejected, so one bad record never loses a whole
// snapshot. Returns the number of items that needed clamping.
func (s *Store) Restore(items []models.VocabularyItem, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*entry, len(items))
	s.nextSeq = 0
	clamped := 0
	for _, item := range items {
		if item.Word == "" {
			continue
		}
		if clampItem(&item, now) {
			clamped++
		}
		if _, ok := s.entries[item.Word]; ok {
			continue
		}
		s.entries[item.Word] = &entry{item: item, seq: s.nextSeq}
		s.nextSeq++
	}
	return clamped
}

// clampItem repairs invariant violations in place and reports whether any
// field was changed.
func clampItem(item *models.VocabularyItem, now time.Time) bool {
	changed := false
	if item.EaseFactor < MinEaseFactor {
		if item.EaseFactor == 0 && item.ReviewCount == 0 {
			// Missing field on a never-reviewed item, not a corrupted one.
			item.EaseFactor = DefaultEaseFactor
		} else {
			item.EaseFactor = MinEaseFactor
		}
		changed = true
	}
	if item.IntervalDays < 0 {
		item.IntervalDays = 0
		changed = true
	}
	if item.Repetitions < 0 {
		item.Repetitions = 0
		changed = true
	}
	if item.Lapses < 0 {
		item.Lapses = 0
		changed = true
	}
	if item.ReviewCount < 0 {
		item.ReviewCount = 0
		changed = true
	}
	if item.CorrectCount < 0 {
		item.CorrectCount = 0
		changed = true
	}
	if item.CorrectCount > item.ReviewCount {
		item.CorrectCount = item.ReviewCount
		changed = true
	}
	if item.DueAt.IsZero() {
		item.DueAt = now
		changed = true
	}
	return changed
}

// ordered returns the entries sorted by insertion sequence.
func (s *Store) ordered() []*entry {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	return entries
}
