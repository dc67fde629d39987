// Package sm2 implements the SM-2 spaced repetition algorithm.
//
// The algorithm turns a review quality rating (0-5) into updated
// scheduling fields: an ease factor controlling interval growth, the
// interval in days until the next review, and a count of consecutive
// successful repetitions.
package sm2

import (
	"errors"
	"math"
	"time"
)

// Default scheduling parameters.
const (
	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3
	MaxEaseFactor     = 2.5
)

// ErrInvalidQuality is returned when a review quality is outside [0, 5].
var ErrInvalidQuality = errors.New("quality must be between 0 and 5")

// Card holds the SM-2 scheduling state for a single reviewable item.
// Content fields (front, back, tags) live on the owning card type; this
// struct is only the algorithm data.
type Card struct {
	EaseFactor  float64   `json:"ease_factor"`
	Interval    int       `json:"interval"` // days until next review
	Repetitions int       `json:"repetitions"`
	Due         time.Time `json:"due"`
	LastReview  time.Time `json:"last_review,omitempty"`
}

// NewCard returns scheduling state for a brand-new card: default ease
// factor, zero interval, due immediately.
func NewCard(now time.Time) Card {
	return Card{
		EaseFactor: DefaultEaseFactor,
		Due:        now,
	}
}

// Quality is the 0-5 self-assessment of recall during a review.
type Quality int

const (
	QualityBlackout   Quality = 0 // complete blackout, no recall
	QualityWrong      Quality = 1 // incorrect, recognized once shown
	QualityRecognized Quality = 2 // incorrect, remembered after seeing answer
	QualityHard       Quality = 3 // correct with serious difficulty
	QualityGood       Quality = 4 // correct after hesitation
	QualityPerfect    Quality = 5 // perfect recall
)

// Valid reports whether q is a legal quality rating.
func (q Quality) Valid() bool {
	return q >= QualityBlackout && q <= QualityPerfect
}

// Passing reports whether q counts as a successful review. Quality 3 is
// the pass/fail boundary: 0-2 fail, 3-5 pass.
func (q Quality) Passing() bool {
	return q >= QualityHard
}

// Label returns a human-readable grade label for q.
func (q Quality) Label() string {
	switch q {
	case QualityBlackout:
		return "Blackout"
	case QualityWrong:
		return "Failed (Easy)"
	case QualityRecognized:
		return "Failed (Remembered)"
	case QualityHard:
		return "Hard"
	case QualityGood:
		return "Good"
	case QualityPerfect:
		return "Perfect"
	default:
		return "Unknown"
	}
}

// Params holds the tunable parameters of the scheduler.
type Params struct {
	DefaultEaseFactor float64
	MinEaseFactor     float64
	MaxEaseFactor     float64
	FailInterval      int // interval after a failed review
	FirstInterval     int // interval after the first successful review
	SecondInterval    int // interval after the second successful review
	MaxInterval       int // cap on interval growth, in days
}

// DefaultParams returns the standard SM-2 parameters.
func DefaultParams() Params {
	return Params{
		DefaultEaseFactor: DefaultEaseFactor,
		MinEaseFactor:     MinEaseFactor,
		MaxEaseFactor:     MaxEaseFactor,
		FailInterval:      1,
		FirstInterval:     1,
		SecondInterval:    6,
		MaxInterval:       365,
	}
}

// Scheduler defines the interface for scheduling cards with the SM-2
// algorithm.
type Scheduler interface {
	// Review applies a quality rating to a card's scheduling state as of
	// the given time and returns the updated state. The input card is not
	// mutated. Returns ErrInvalidQuality if quality is outside [0, 5].
	Review(card Card, quality Quality, now time.Time) (Card, error)

	// PreviewInterval returns the interval in days that Review would
	// assign for the given quality, without mutating the card.
	PreviewInterval(card Card, quality Quality) (int, error)

	// RetentionScore estimates recall probability as a percentage in
	// [0, 100]. The score grows with the ease factor and decays as time
	// passes beyond the card's due date.
	RetentionScore(card Card, asOf time.Time) float64
}

// SchedulerImpl implements the Scheduler interface.
type SchedulerImpl struct {
	params Params
}

// NewScheduler creates a scheduler with the default SM-2 parameters.
func NewScheduler() Scheduler {
	return &SchedulerImpl{params: DefaultParams()}
}

// NewSchedulerWithParams creates a scheduler with custom parameters.
func NewSchedulerWithParams(params Params) Scheduler {
	return &SchedulerImpl{params: params}
}

// Review implements the Scheduler interface.
func (s *SchedulerImpl) Review(card Card, quality Quality, now time.Time) (Card, error) {
	if !quality.Valid() {
		return Card{}, ErrInvalidQuality
	}

	next := card
	next.EaseFactor = s.nextEaseFactor(card.EaseFactor, quality)

	if quality.Passing() {
		next.Repetitions = card.Repetitions + 1
		next.Interval = s.nextPassInterval(card.Interval, next.Repetitions, next.EaseFactor)
	} else {
		next.Repetitions = 0
		next.Interval = s.params.FailInterval
	}

	next.LastReview = now
	next.Due = now.AddDate(0, 0, next.Interval)
	return next, nil
}

// PreviewInterval implements the Scheduler interface.
func (s *SchedulerImpl) PreviewInterval(card Card, quality Quality) (int, error) {
	if !quality.Valid() {
		return 0, ErrInvalidQuality
	}
	if !quality.Passing() {
		return s.params.FailInterval, nil
	}
	ef := s.nextEaseFactor(card.EaseFactor, quality)
	return s.nextPassInterval(card.Interval, card.Repetitions+1, ef), nil
}

// nextEaseFactor applies the SM-2 ease factor formula and clamps the
// result. The adjustment is applied on every review, pass or fail.
func (s *SchedulerImpl) nextEaseFactor(ef float64, quality Quality) float64 {
	q := float64(quality)
	ef += 0.1 - (5-q)*(0.08+(5-q)*0.02)
	if ef < s.params.MinEaseFactor {
		ef = s.params.MinEaseFactor
	}
	if ef > s.params.MaxEaseFactor {
		ef = s.params.MaxEaseFactor
	}
	return ef
}

// nextPassInterval computes the interval after a successful review, given
// the repetition count including this review.
func (s *SchedulerImpl) nextPassInterval(prevInterval, repetitions int, ef float64) int {
	var interval int
	switch repetitions {
	case 1:
		interval = s.params.FirstInterval
	case 2:
		interval = s.params.SecondInterval
	default:
		interval = int(math.Round(float64(prevInterval) * ef))
	}
	if interval > s.params.MaxInterval {
		interval = s.params.MaxInterval
	}
	return interval
}

// RetentionScore implements the Scheduler interface.
//
// The base score maps the ease factor linearly onto [50, 100]. Once the
// card is past due, the base decays exponentially with overdue days,
// scaled by the current interval so long-interval cards decay slower.
// A card that has never been reviewed scores 0.
func (s *SchedulerImpl) RetentionScore(card Card, asOf time.Time) float64 {
	if card.Repetitions == 0 && card.LastReview.IsZero() {
		return 0
	}

	spread := s.params.MaxEaseFactor - s.params.MinEaseFactor
	base := 100.0
	if spread > 0 {
		base = 50 + 50*(card.EaseFactor-s.params.MinEaseFactor)/spread
	}

	overdueDays := asOf.Sub(card.Due).Hours() / 24.0
	if overdueDays > 0 {
		base *= math.Exp(-overdueDays / float64(card.Interval+1))
	}

	if base < 0 {
		return 0
	}
	if base > 100 {
		return 100
	}
	return base
}

// IsDue reports whether the card should be presented for review as of
// the given time.
func IsDue(card Card, asOf time.Time) bool {
	return !asOf.Before(card.Due)
}
