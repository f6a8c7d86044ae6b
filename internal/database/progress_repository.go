package database

import (
	"fmt"

	"github.com/example/wordmem/pkg/models"
)

// ProgressRepository persists whole item-store snapshots.
type ProgressRepository struct {
	db *DB
}

// NewProgressRepository creates a new repository instance
func NewProgressRepository(db *DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// SaveSnapshot replaces the stored snapshot with the given items. The whole
// write happens in one transaction so a crash never leaves a half-written
// snapshot. Item order is preserved for deterministic review tie-breaking.
func (r *ProgressRepository) SaveSnapshot(items []models.VocabularyItem) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %v", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM items"); err != nil {
		return fmt.Errorf("failed to clear items: %v", err)
	}

	query := `
		INSERT INTO items (
			word, meaning, pronunciation, difficulty,
			ease_factor, interval_days, repetitions, lapses,
			review_count, correct_count, last_quality,
			last_review_at, due_at, created_at, position
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	for i, item := range items {
		_, err := tx.Exec(
			query,
			item.Word,
			item.Meaning,
			item.Pronunciation,
			item.Difficulty,
			item.EaseFactor,
			item.IntervalDays,
			item.Repetitions,
			item.Lapses,
			item.ReviewCount,
			item.CorrectCount,
			item.LastQuality,
			item.LastReviewAt,
			item.DueAt,
			item.CreatedAt,
			i,
		)
		if err != nil {
			return fmt.Errorf("failed to save item %q: %v", item.Word, err)
		}
	}

	return tx.Commit()
}

// LoadSnapshot returns all stored items in their original order.
func (r *ProgressRepository) LoadSnapshot() ([]models.VocabularyItem, error) {
	var items []models.VocabularyItem
	query := `
		SELECT word, meaning, pronunciation, difficulty,
		       ease_factor, interval_days, repetitions, lapses,
		       review_count, correct_count, last_quality,
		       last_review_at, due_at, created_at
		FROM items
		ORDER BY position ASC
	`
	if err := r.db.Select(&items, query); err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %v", err)
	}
	return items, nil
}
