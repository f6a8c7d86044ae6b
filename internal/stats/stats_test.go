package stats

import (
	"math"
	"testing"
	"time"

	"github.com/example/wordmem/pkg/models"
)

var t0 = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func sampleItems() []models.VocabularyItem {
	return []models.VocabularyItem{
		{
			Word: "mastered", Difficulty: 2, EaseFactor: 2.8,
			Repetitions: 6, IntervalDays: 40, ReviewCount: 8, CorrectCount: 8,
			LastReviewAt: t0.AddDate(0, 0, -2), DueAt: t0.AddDate(0, 0, 38),
		},
		{
			Word: "struggling", Difficulty: 4, EaseFactor: 1.3,
			Repetitions: 0, IntervalDays: 1, ReviewCount: 10, CorrectCount: 4, Lapses: 6,
			LastReviewAt: t0.AddDate(0, 0, -1), DueAt: t0,
		},
		{
			Word: "fresh", Difficulty: 3, EaseFactor: 2.5,
			DueAt: t0,
		},
		{
			Word: "learning", Difficulty: 1, EaseFactor: 2.5,
			Repetitions: 2, IntervalDays: 6, ReviewCount: 2, CorrectCount: 2,
			LastReviewAt: t0.AddDate(0, 0, -1), DueAt: t0.AddDate(0, 0, 5),
		},
	}
}

func TestComputeSummary(t *testing.T) {
	s := Compute(sampleItems(), t0)

	if s.TotalItems != 4 || s.Reviewed != 3 || s.Mastered != 1 {
		t.Fatalf("totals = %+v", s)
	}
	if s.DueNow != 2 { // "struggling" and never-reviewed "fresh"
		t.Fatalf("due now = %d, want 2", s.DueNow)
	}
	if math.Abs(s.Accuracy-70) > 1e-9 { // 14 correct of 20 answers
		t.Fatalf("accuracy = %v, want 70", s.Accuracy)
	}
	if math.Abs(s.AvgDifficulty-2.5) > 1e-9 {
		t.Fatalf("avg difficulty = %v, want 2.5", s.AvgDifficulty)
	}
	if math.Abs(s.AvgEaseFactor-2.275) > 1e-9 {
		t.Fatalf("avg ease = %v, want 2.275", s.AvgEaseFactor)
	}
}

func TestComputeEmpty(t *testing.T) {
	s := Compute(nil, t0)
	if s.TotalItems != 0 || s.Accuracy != 0 || s.AvgDifficulty != 0 {
		t.Fatalf("empty summary = %+v", s)
	}
}

func TestErrorProne(t *testing.T) {
	worst := ErrorProne(sampleItems(), 2)
	if len(worst) != 2 {
		t.Fatalf("got %d items, want 2", len(worst))
	}
	if worst[0].Word != "struggling" {
		t.Fatalf("worst item = %q, want struggling", worst[0].Word)
	}
	// Never-reviewed items are excluded even when the limit allows more.
	all := ErrorProne(sampleItems(), 10)
	for _, item := range all {
		if item.ReviewCount == 0 {
			t.Fatalf("unreviewed item %q included", item.Word)
		}
	}
	if len(all) != 3 {
		t.Fatalf("got %d reviewed items, want 3", len(all))
	}
}

func TestDailyProgress(t *testing.T) {
	items := sampleItems()
	progress := DailyProgress(items, 7, t0)
	if len(progress) != 2 {
		t.Fatalf("got %d days: %+v", len(progress), progress)
	}
	// Oldest first.
	if progress[0].Date != t0.AddDate(0, 0, -2).Format("2006-01-02") || progress[0].Count != 1 {
		t.Fatalf("day 0 = %+v", progress[0])
	}
	if progress[1].Date != t0.AddDate(0, 0, -1).Format("2006-01-02") || progress[1].Count != 2 {
		t.Fatalf("day 1 = %+v", progress[1])
	}

	// Reviews older than the window fall out.
	old := items
	old[0].LastReviewAt = t0.AddDate(0, 0, -30)
	progress = DailyProgress(old, 7, t0)
	if len(progress) != 1 || progress[0].Count != 2 {
		t.Fatalf("windowed progress = %+v", progress)
	}
}
