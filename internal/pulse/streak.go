package pulse

import (
	"fmt"
	"time"
)

// StreakData is the derived streak aggregate. It is a cache over the
// review event log: ReplayStreak over the same events must reproduce it.
type StreakData struct {
	CurrentStreak   int       `json:"current_streak"`
	LongestStreak   int       `json:"longest_streak"`
	LastActive      time.Time `json:"last_active,omitempty"`
	TotalDaysActive int       `json:"total_days_active"`
}

// StreakTracker maintains consecutive-day study streaks as reviews are
// recorded.
type StreakTracker struct {
	data StreakData
}

// NewStreakTracker returns a tracker with no activity.
func NewStreakTracker() *StreakTracker {
	return &StreakTracker{}
}

// NewStreakTrackerWithData returns a tracker seeded with previously
// derived streak data.
func NewStreakTrackerWithData(data StreakData) *StreakTracker {
	return &StreakTracker{data: data}
}

// RecordReview updates the streak for a review happening at the given
// time. Multiple reviews on the same calendar day do not double-count.
func (t *StreakTracker) RecordReview(now time.Time) StreakData {
	day := dateOf(now)

	switch {
	case t.data.LastActive.IsZero():
		t.data.CurrentStreak = 1
	case day.Equal(dateOf(t.data.LastActive)):
		return t.data
	case daysBetween(t.data.LastActive, day) == 1:
		t.data.CurrentStreak++
	default:
		t.data.CurrentStreak = 1
	}

	if t.data.CurrentStreak > t.data.LongestStreak {
		t.data.LongestStreak = t.data.CurrentStreak
	}
	t.data.LastActive = day
	t.data.TotalDaysActive++
	return t.data
}

// Streak returns the effective current streak as of the query time. A
// streak whose last active day is more than one day in the past is
// reported as 0 rather than showing stale data.
func (t *StreakTracker) Streak(asOf time.Time) int {
	if t.data.LastActive.IsZero() {
		return 0
	}
	if daysBetween(t.data.LastActive, asOf) > 1 {
		return 0
	}
	return t.data.CurrentStreak
}

// Data returns the raw streak aggregate.
func (t *StreakTracker) Data() StreakData {
	return t.data
}

// Message returns a motivational message for the current streak.
func (t *StreakTracker) Message() string {
	streak := t.data.CurrentStreak
	switch {
	case streak == 0:
		return "Start your streak today! Every day counts."
	case streak == 1:
		return "Great start! Keep it going tomorrow."
	case streak < 7:
		return fmt.Sprintf("%d day streak! You're building a habit.", streak)
	case streak < 30:
		return fmt.Sprintf("%d days! Making great progress.", streak)
	case streak < 100:
		return fmt.Sprintf("%d day streak! Incredible dedication.", streak)
	default:
		return fmt.Sprintf("%d days! You're a legend.", streak)
	}
}

// ReplayStreak folds the full event log into streak data from scratch.
// Events must be in chronological order.
func ReplayStreak(events []ReviewEvent) StreakData {
	tracker := NewStreakTracker()
	for _, ev := range events {
		tracker.RecordReview(ev.Timestamp)
	}
	return tracker.Data()
}
