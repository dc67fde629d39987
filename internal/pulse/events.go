// Package pulse derives learning analytics from a review event log:
// study streaks, retention curves, weak-spot detection, and progress
// metrics. Everything here is a pure computation over the ordered log;
// derived values can always be recomputed from scratch.
package pulse

import (
	"time"

	"github.com/czaku/wickit/internal/sm2"
)

// ReviewEvent is an immutable record of a single card review. Events
// are appended in chronological order and never mutated or reordered.
type ReviewEvent struct {
	ID        string      `json:"id"`
	CardID    string      `json:"card_id"`
	Quality   sm2.Quality `json:"quality"`
	Timestamp time.Time   `json:"timestamp"`
}

// FilterWindow returns the events with timestamps in [from, to],
// preserving order. A zero from or to leaves that side unbounded.
func FilterWindow(events []ReviewEvent, from, to time.Time) []ReviewEvent {
	out := make([]ReviewEvent, 0, len(events))
	for _, ev := range events {
		if !from.IsZero() && ev.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && ev.Timestamp.After(to) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// ForCard returns the events for a single card, preserving order.
func ForCard(events []ReviewEvent, cardID string) []ReviewEvent {
	out := make([]ReviewEvent, 0)
	for _, ev := range events {
		if ev.CardID == cardID {
			out = append(out, ev)
		}
	}
	return out
}

// dateOf truncates a timestamp to midnight of its calendar day, in the
// timestamp's own location.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween returns the number of calendar days from a to b. Rounding
// absorbs DST shifts.
func daysBetween(a, b time.Time) int {
	return int(dateOf(b).Sub(dateOf(a)).Round(24*time.Hour) / (24 * time.Hour))
}
