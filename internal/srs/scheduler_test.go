package srs

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/example/wordmem/internal/itemstore"
	"github.com/example/wordmem/pkg/models"
)

// fakeClock is a settable time source for deterministic scheduling tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func newTestScheduler(t *testing.T, words ...string) (*Scheduler, *itemstore.Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := itemstore.New()
	records := make([]models.ImportRecord, 0, len(words))
	for _, w := range words {
		records = append(records, models.ImportRecord{Word: w, Meaning: "meaning of " + w})
	}
	if added := store.Import(records, clock.Now()); added != len(words) {
		t.Fatalf("imported %d items, want %d", added, len(words))
	}
	return NewScheduler(store, Config{Now: clock.Now}), store, clock
}

// TestReviewLifecycle follows one item through correct, correct, incorrect
// answers and checks every field along the way.
func TestReviewLifecycle(t *testing.T) {
	s, store, clock := newTestScheduler(t, "ubiquitous")
	t0 := clock.Now()

	item, ok := store.Get("ubiquitous")
	if !ok {
		t.Fatal("item missing after import")
	}
	if item.EaseFactor != 2.5 || item.IntervalDays != 0 || item.Repetitions != 0 || !item.DueAt.Equal(t0) {
		t.Fatalf("unexpected initial state: %+v", item)
	}

	item, err := s.RecordResult("ubiquitous", true)
	if err != nil {
		t.Fatal(err)
	}
	if item.IntervalDays != 1 || item.Repetitions != 1 || !item.DueAt.Equal(t0.AddDate(0, 0, 1)) {
		t.Fatalf("after 1st correct: %+v", item)
	}

	clock.Set(t0.AddDate(0, 0, 1))
	item, err = s.RecordResult("ubiquitous", true)
	if err != nil {
		t.Fatal(err)
	}
	if item.IntervalDays != 6 || item.Repetitions != 2 || !item.DueAt.Equal(t0.AddDate(0, 0, 7)) {
		t.Fatalf("after 2nd correct: %+v", item)
	}

	clock.Set(t0.AddDate(0, 0, 7))
	item, err = s.RecordResult("ubiquitous", false)
	if err != nil {
		t.Fatal(err)
	}
	if item.IntervalDays != 1 || item.Repetitions != 0 || item.Lapses != 1 {
		t.Fatalf("after lapse: %+v", item)
	}
	if math.Abs(item.EaseFactor-2.3) > 1e-9 {
		t.Fatalf("ease = %v, want 2.3 after lapse", item.EaseFactor)
	}
	if !item.DueAt.Equal(t0.AddDate(0, 0, 8)) {
		t.Fatalf("due = %v, want %v", item.DueAt, t0.AddDate(0, 0, 8))
	}
}

func TestNextDueOnlyReturnsDueItems(t *testing.T) {
	s, _, clock := newTestScheduler(t, "alpha")

	if _, err := s.RecordResult("alpha", true); err != nil {
		t.Fatal(err)
	}

	// The only item is now due tomorrow.
	if item, ok := s.NextDue(); ok {
		t.Fatalf("NextDue returned %q due at %v, nothing should be due", item.Word, item.DueAt)
	}

	// PeekSoonest is the explicit fallback and still sees it.
	item, ok := s.PeekSoonest()
	if !ok || item.Word != "alpha" {
		t.Fatalf("PeekSoonest = %+v, %v; want alpha", item, ok)
	}

	clock.Advance(24 * time.Hour)
	item, ok = s.NextDue()
	if !ok || item.Word != "alpha" {
		t.Fatalf("NextDue after advance = %+v, %v; want alpha", item, ok)
	}
	if item.DueAt.After(clock.Now()) {
		t.Fatalf("NextDue returned item due in the future: %v > %v", item.DueAt, clock.Now())
	}
}

func TestNextDueTieBreaks(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := itemstore.New()
	due := clock.Now().Add(-time.Hour)

	// Same due time; "second" is better learned, "third" ties "first" on
	// repetitions but was inserted later.
	store.Restore([]models.VocabularyItem{
		{Word: "first", EaseFactor: 2.5, Repetitions: 1, DueAt: due},
		{Word: "second", EaseFactor: 2.5, Repetitions: 4, DueAt: due},
		{Word: "third", EaseFactor: 2.5, Repetitions: 1, DueAt: due},
	}, clock.Now())

	s := NewScheduler(store, Config{Now: clock.Now})
	item, ok := s.NextDue()
	if !ok || item.Word != "first" {
		t.Fatalf("NextDue = %+v, want first (fewest repetitions, earliest insertion)", item)
	}

	store.Remove("first")
	item, ok = s.NextDue()
	if !ok || item.Word != "third" {
		t.Fatalf("NextDue = %+v, want third (fewer repetitions than second)", item)
	}
}

func TestRecordAnswerUnknownWord(t *testing.T) {
	s, _, _ := newTestScheduler(t, "alpha")
	_, err := s.RecordResult("missing", true)
	if !errors.Is(err, itemstore.ErrNotFound) {
		t.Fatalf("err = %v, want itemstore.ErrNotFound", err)
	}
}

func TestRecordAnswerInvalidQuality(t *testing.T) {
	s, _, _ := newTestScheduler(t, "alpha")
	if _, err := s.RecordAnswer("alpha", Quality(9)); !errors.Is(err, ErrInvalidQuality) {
		t.Fatalf("err = %v, want ErrInvalidQuality", err)
	}
	if _, err := s.RecordAnswer("alpha", Quality(-1)); !errors.Is(err, ErrInvalidQuality) {
		t.Fatalf("err = %v, want ErrInvalidQuality", err)
	}
}

// TestConcurrentAnswersSameItem hammers one item from many goroutines. The
// per-item lock serializes the updates, so every answer must be counted.
func TestConcurrentAnswersSameItem(t *testing.T) {
	s, store, _ := newTestScheduler(t, "alpha")

	const n = 64
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := s.RecordResult("alpha", true); err != nil {
				t.Errorf("RecordResult: %v", err)
			}
		}()
	}
	wg.Wait()

	item, _ := store.Get("alpha")
	if item.ReviewCount != n || item.Repetitions != n || item.CorrectCount != n {
		t.Fatalf("counts = review %d / reps %d / correct %d, want %d each",
			item.ReviewCount, item.Repetitions, item.CorrectCount, n)
	}
}

// TestConcurrentAnswersAndReads interleaves scans with writes on different
// items to catch data races under -race.
func TestConcurrentAnswersAndReads(t *testing.T) {
	s, _, _ := newTestScheduler(t, "a", "b", "c", "d")

	var wg sync.WaitGroup
	for _, w := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func(word string) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if _, err := s.RecordResult(word, i%3 != 0); err != nil {
					t.Errorf("RecordResult(%s): %v", word, err)
					return
				}
			}
		}(w)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.NextDue()
			s.PeekSoonest()
			s.DueCount()
		}
	}()
	wg.Wait()
}

func TestTimeToNext(t *testing.T) {
	empty, _, _ := newTestScheduler(t)
	if _, ok := empty.TimeToNext(); ok {
		t.Fatal("TimeToNext on empty store should report false")
	}

	s, _, _ := newTestScheduler(t, "alpha")
	d, ok := s.TimeToNext()
	if !ok || d != 0 {
		t.Fatalf("TimeToNext = %v, %v; want 0 for a due item", d, ok)
	}

	if _, err := s.RecordResult("alpha", true); err != nil {
		t.Fatal(err)
	}
	d, ok = s.TimeToNext()
	if !ok || d != 24*time.Hour {
		t.Fatalf("TimeToNext = %v, %v; want 24h", d, ok)
	}
}
