package models

import "time"

// VocabularyItem tracks the learning state of a single word using the SM-2 algorithm
type VocabularyItem struct {
	Word          string    `json:"word" db:"word"`
	Meaning       string    `json:"meaning" db:"meaning"`
	Pronunciation string    `json:"pronunciation" db:"pronunciation"`
	Difficulty    int       `json:"difficulty" db:"difficulty"` // 1-5 scale of difficulty
	EaseFactor    float64   `json:"ease_factor" db:"ease_factor"`
	IntervalDays  int       `json:"interval_days" db:"interval_days"` // Days until the next review
	Repetitions   int       `json:"repetitions" db:"repetitions"`     // Consecutive correct answers since the last lapse
	Lapses        int       `json:"lapses" db:"lapses"`               // Number of incorrect answers
	ReviewCount   int       `json:"review_count" db:"review_count"`
	CorrectCount  int       `json:"correct_count" db:"correct_count"`
	LastQuality   int       `json:"last_quality" db:"last_quality"` // 0-5 rating of the last recall
	LastReviewAt  time.Time `json:"last_review_at" db:"last_review_at"`
	DueAt         time.Time `json:"due_at" db:"due_at"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
