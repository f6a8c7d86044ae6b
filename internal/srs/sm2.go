// Package srs implements spaced-repetition review scheduling using a
// simplified SM-2 algorithm over an item store.
package srs

import (
	"errors"
	"math"
	"time"

	"github.com/example/wordmem/pkg/models"
)

// Quality represents the quality of a recall on the SM-2 0-5 scale.
type Quality int

const (
	// Complete blackout, unable to recall
	QualityBlackout Quality = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect Quality = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar Quality = 2
	// Correct response but required significant effort
	QualityCorrectDifficult Quality = 3
	// Correct response after some hesitation
	QualityCorrectHesitation Quality = 4
	// Perfect response with no hesitation
	QualityPerfect Quality = 5
)

// ErrInvalidQuality is returned for quality values outside the 0-5 scale.
var ErrInvalidQuality = errors.New("srs: invalid quality")

// QualityForCorrect maps a binary answer onto the graded scale: correct
// answers count as a recall with some hesitation, incorrect ones as a
// recognized-but-not-recalled lapse.
func QualityForCorrect(correct bool) Quality {
	if correct {
		return QualityCorrectHesitation
	}
	return QualityIncorrect
}

// Config holds the tunable constants of the SM-2 update. The deltas are
// deliberately configuration rather than hard-coded: the zero value of each
// field is replaced with the standard default.
type Config struct {
	// PassThreshold is the lowest quality counted as a correct answer.
	PassThreshold Quality
	// MinEase is the floor of the ease factor.
	MinEase float64
	// EaseReward is added to the ease factor on a correct answer in the
	// review phase (repetitions > 2).
	EaseReward float64
	// LapsePenalty is subtracted from the ease factor on an incorrect answer.
	LapsePenalty float64
	// FirstInterval and SecondInterval are the fixed intervals, in days, for
	// the first two consecutive correct answers.
	FirstInterval  int
	SecondInterval int
	// MaxInterval caps the computed interval, in days.
	MaxInterval int
	// Now supplies the current time; defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns the standard SM-2 constants.
func DefaultConfig() Config {
	return Config{
		PassThreshold:  QualityCorrectDifficult,
		MinEase:        1.3,
		EaseReward:     0.1,
		LapsePenalty:   0.2,
		FirstInterval:  1,
		SecondInterval: 6,
		MaxInterval:    365,
	}
}

// withDefaults fills zero-valued fields with the standard constants.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.PassThreshold == 0 {
		c.PassThreshold = def.PassThreshold
	}
	if c.MinEase == 0 {
		c.MinEase = def.MinEase
	}
	if c.EaseReward == 0 {
		c.EaseReward = def.EaseReward
	}
	if c.LapsePenalty == 0 {
		c.LapsePenalty = def.LapsePenalty
	}
	if c.FirstInterval == 0 {
		c.FirstInterval = def.FirstInterval
	}
	if c.SecondInterval == 0 {
		c.SecondInterval = def.SecondInterval
	}
	if c.MaxInterval == 0 {
		c.MaxInterval = def.MaxInterval
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// applyAnswer performs one SM-2 state transition in place.
//
// Incorrect: repetitions reset to 0, interval back to one day, ease factor
// penalized down to the floor, lapse recorded.
//
// Correct: repetitions increment; the first two intervals are fixed, after
// that the previous interval is multiplied by the current ease factor and
// the ease factor earns a small reward.
func applyAnswer(item *models.VocabularyItem, quality Quality, now time.Time, cfg Config) {
	item.ReviewCount++
	item.LastQuality = int(quality)
	item.LastReviewAt = now

	if quality < cfg.PassThreshold {
		item.Repetitions = 0
		item.IntervalDays = 1
		item.EaseFactor = math.Max(cfg.MinEase, item.EaseFactor-cfg.LapsePenalty)
		item.Lapses++
	} else {
		item.CorrectCount++
		item.Repetitions++
		switch {
		case item.Repetitions == 1:
			item.IntervalDays = cfg.FirstInterval
		case item.Repetitions == 2:
			item.IntervalDays = cfg.SecondInterval
		default:
			next := int(math.Round(float64(item.IntervalDays) * item.EaseFactor))
			if next > cfg.MaxInterval {
				next = cfg.MaxInterval
			}
			item.IntervalDays = next
			item.EaseFactor = math.Max(cfg.MinEase, item.EaseFactor+cfg.EaseReward)
		}
	}

	item.DueAt = now.AddDate(0, 0, item.IntervalDays)
}
