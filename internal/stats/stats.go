// Package stats derives learning statistics from an item-store snapshot.
package stats

import (
	"sort"
	"time"

	"github.com/example/wordmem/pkg/models"
)

// An item is considered mastered after this many consecutive correct answers
// with at least this review interval.
const (
	masteredRepetitions = 5
	masteredInterval    = 30
)

// Summary describes overall learning progress.
type Summary struct {
	TotalItems    int     `json:"total_items"`
	Reviewed      int     `json:"reviewed"`
	DueNow        int     `json:"due_now"`
	Mastered      int     `json:"mastered"`
	Accuracy      float64 `json:"accuracy"`       // percentage over all recorded answers
	AvgDifficulty float64 `json:"avg_difficulty"` // mean of the 1-5 import difficulty
	AvgEaseFactor float64 `json:"avg_ease_factor"`
}

// DayCount is the number of reviews recorded on a given day.
type DayCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// Compute summarizes the given items at the given time.
func Compute(items []models.VocabularyItem, now time.Time) Summary {
	s := Summary{TotalItems: len(items)}
	if len(items) == 0 {
		return s
	}

	totalReviews := 0
	totalCorrect := 0
	totalDifficulty := 0
	totalEase := 0.0
	for _, item := range items {
		if item.ReviewCount > 0 {
			s.Reviewed++
		}
		if !item.DueAt.After(now) {
			s.DueNow++
		}
		if item.Repetitions >= masteredRepetitions && item.IntervalDays >= masteredInterval {
			s.Mastered++
		}
		totalReviews += item.ReviewCount
		totalCorrect += item.CorrectCount
		totalDifficulty += item.Difficulty
		totalEase += item.EaseFactor
	}

	if totalReviews > 0 {
		s.Accuracy = float64(totalCorrect) / float64(totalReviews) * 100
	}
	s.AvgDifficulty = float64(totalDifficulty) / float64(len(items))
	s.AvgEaseFactor = totalEase / float64(len(items))
	return s
}

// ErrorProne returns up to limit reviewed items ordered by descending error
// rate. Items that were never reviewed are excluded.
func ErrorProne(items []models.VocabularyItem, limit int) []models.VocabularyItem {
	reviewed := make([]models.VocabularyItem, 0, len(items))
	for _, item := range items {
		if item.ReviewCount > 0 {
			reviewed = append(reviewed, item)
		}
	}
	sort.SliceStable(reviewed, func(i, j int) bool {
		return errorRate(reviewed[i]) > errorRate(reviewed[j])
	})
	if len(reviewed) > limit {
		reviewed = reviewed[:limit]
	}
	return reviewed
}

func errorRate(item models.VocabularyItem) float64 {
	if item.ReviewCount == 0 {
		return 0
	}
	return float64(item.ReviewCount-item.CorrectCount) / float64(item.ReviewCount)
}

// DailyProgress tallies reviews per day over the trailing number of days,
// oldest first. Days without reviews are omitted.
func DailyProgress(items []models.VocabularyItem, days int, now time.Time) []DayCount {
	cutoff := now.AddDate(0, 0, -days)
	counts := make(map[string]int)
	for _, item := range items {
		if item.LastReviewAt.IsZero() || item.LastReviewAt.Before(cutoff) {
			continue
		}
		counts[item.LastReviewAt.Format("2006-01-02")]++
	}

	dates := make([]string, 0, len(counts))
	for d := range counts {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	progress := make([]DayCount, 0, len(dates))
	for _, d := range dates {
		progress = append(progress, DayCount{Date: d, Count: counts[d]})
	}
	return progress
}
