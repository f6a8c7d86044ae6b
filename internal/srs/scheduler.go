package srs

import (
	"fmt"
	"time"

	"github.com/example/wordmem/internal/itemstore"
	"github.com/example/wordmem/pkg/models"
)

// Scheduler decides review order and updates learning state from answers.
// It is safe for concurrent use: answers against the same word are
// serialized by the store's per-item lock, answers against different words
// proceed independently, and due-time reads see a consistent snapshot that
// may race benignly with concurrent answers.
type Scheduler struct {
	store *itemstore.Store
	cfg   Config
}

// NewScheduler creates a scheduler over the given store. Zero-valued config
// fields are filled with the standard SM-2 defaults.
func NewScheduler(store *itemstore.Store, cfg Config) *Scheduler {
	return &Scheduler{store: store, cfg: cfg.withDefaults()}
}

// NextDue returns the item with the earliest due date that is already due.
// Ties are broken by fewer repetitions (less well learned first), then by
// insertion order, so the result is deterministic. The second return value
// is false when nothing is due.
func (s *Scheduler) NextDue() (models.VocabularyItem, bool) {
	now := s.cfg.Now()
	return s.pick(func(item models.VocabularyItem) bool {
		return !item.DueAt.After(now)
	})
}

// PeekSoonest returns the globally soonest-due item regardless of whether it
// is due yet. Callers use it as an explicit not-yet-due fallback when
// NextDue reports nothing; it is never implied by NextDue.
func (s *Scheduler) PeekSoonest() (models.VocabularyItem, bool) {
	return s.pick(func(models.VocabularyItem) bool { return true })
}

// pick scans the store for the eligible item with the smallest
// (dueAt, repetitions, insertion) ordering key.
func (s *Scheduler) pick(eligible func(models.VocabularyItem) bool) (models.VocabularyItem, bool) {
	var best models.VocabularyItem
	bestSeq := 0
	found := false
	s.store.ForEach(func(item models.VocabularyItem, seq int) {
		if !eligible(item) {
			return
		}
		if !found || dueBefore(item, seq, best, bestSeq) {
			best = item
			bestSeq = seq
			found = true
		}
	})
	return best, found
}

// dueBefore reports whether a should be reviewed before b.
func dueBefore(a models.VocabularyItem, aSeq int, b models.VocabularyItem, bSeq int) bool {
	if !a.DueAt.Equal(b.DueAt) {
		return a.DueAt.Before(b.DueAt)
	}
	if a.Repetitions != b.Repetitions {
		return a.Repetitions < b.Repetitions
	}
	return aSeq < bSeq
}

// RecordAnswer grades a recall of the given word and updates its scheduling
// state atomically. It returns the updated item, or ErrInvalidQuality /
// itemstore.ErrNotFound. The update never silently drops: either the item
// state advances or an error is reported.
func (s *Scheduler) RecordAnswer(word string, quality Quality) (models.VocabularyItem, error) {
	if quality < QualityBlackout || quality > QualityPerfect {
		return models.VocabularyItem{}, fmt.Errorf("%w: %d", ErrInvalidQuality, quality)
	}
	now := s.cfg.Now()
	item, err := s.store.Update(word, func(item *models.VocabularyItem) {
		applyAnswer(item, quality, now, s.cfg)
	})
	if err != nil {
		return models.VocabularyItem{}, fmt.Errorf("record answer for %q: %w", word, err)
	}
	return item, nil
}

// RecordResult is the binary-answer convenience form of RecordAnswer.
func (s *Scheduler) RecordResult(word string, correct bool) (models.VocabularyItem, error) {
	return s.RecordAnswer(word, QualityForCorrect(correct))
}

// DueCount returns how many items are due at the current time.
func (s *Scheduler) DueCount() int {
	now := s.cfg.Now()
	count := 0
	s.store.ForEach(func(item models.VocabularyItem, _ int) {
		if !item.DueAt.After(now) {
			count++
		}
	})
	return count
}

// TimeToNext returns how long until the soonest item becomes due. It returns
// zero when an item is already due and false when the store is empty.
func (s *Scheduler) TimeToNext() (time.Duration, bool) {
	item, ok := s.PeekSoonest()
	if !ok {
		return 0, false
	}
	d := item.DueAt.Sub(s.cfg.Now())
	if d < 0 {
		d = 0
	}
	return d, true
}
