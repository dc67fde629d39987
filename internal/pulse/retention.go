package pulse

import (
	"fmt"
	"sort"
	"time"

	"github.com/czaku/wickit/internal/deck"
	"github.com/czaku/wickit/internal/sm2"
)

// Default weak-spot policy: a card is flagged when fewer than 60% of its
// last 5 reviews passed.
const (
	DefaultWeakSpotWindow    = 5
	DefaultWeakSpotThreshold = 0.6
)

// RetentionPoint is one day of the retention curve.
type RetentionPoint struct {
	Date      time.Time `json:"date"`
	Retention float64   `json:"retention"` // pass rate for the day, in percent
	Reviews   int       `json:"reviews"`
}

// ProgressMetrics aggregates counts over the cards and the event log.
type ProgressMetrics struct {
	TotalCards     int     `json:"total_cards"`
	TotalReviews   int     `json:"total_reviews"`
	TotalPassed    int     `json:"total_passed"`
	TotalFailed    int     `json:"total_failed"`
	PassRate       float64 `json:"pass_rate"` // percent
	AverageQuality float64 `json:"average_quality"`
	AverageEase    float64 `json:"average_ease"`
	DueToday       int     `json:"due_today"`
	Overdue        int     `json:"overdue"`
}

// WeakSpot flags a card whose recent pass rate fell below the threshold.
type WeakSpot struct {
	CardID   string  `json:"card_id"`
	PassRate float64 `json:"pass_rate"` // over the recent window, in percent
	Reviews  int     `json:"reviews"`   // reviews considered
}

// Recommendation is a study suggestion derived from the metrics.
type Recommendation struct {
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Message  string `json:"message"`
}

// Summary composes the full analytics report. It is computed purely from
// the cards and the event log.
type Summary struct {
	Metrics          ProgressMetrics  `json:"metrics"`
	Streak           StreakData       `json:"streak"`
	RetentionCurve   []RetentionPoint `json:"retention_curve"`
	AverageRetention float64          `json:"average_retention"`
	RetentionMessage string           `json:"retention_message"`
	WeakSpots        []WeakSpot       `json:"weak_spots"`
	Recommendations  []Recommendation `json:"recommendations"`
}

// Analyzer derives retention analytics from a card set and its review
// event log. It holds no state of its own beyond the inputs and the
// weak-spot policy.
type Analyzer struct {
	cards             []deck.Card
	events            []ReviewEvent
	weakSpotWindow    int
	weakSpotThreshold float64
}

// AnalyzerOption adjusts analyzer policy.
type AnalyzerOption func(*Analyzer)

// WithWeakSpotPolicy overrides the recent-review window and pass-rate
// threshold used for weak-spot detection.
func WithWeakSpotPolicy(window int, threshold float64) AnalyzerOption {
	return func(a *Analyzer) {
		if window > 0 {
			a.weakSpotWindow = window
		}
		if threshold > 0 {
			a.weakSpotThreshold = threshold
		}
	}
}

// NewAnalyzer creates an analyzer over the given cards and
// chronologically ordered events.
func NewAnalyzer(cards []deck.Card, events []ReviewEvent, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		cards:             cards,
		events:            events,
		weakSpotWindow:    DefaultWeakSpotWindow,
		weakSpotThreshold: DefaultWeakSpotThreshold,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Metrics computes the aggregate progress metrics as of the given time.
func (a *Analyzer) Metrics(asOf time.Time) ProgressMetrics {
	m := ProgressMetrics{TotalCards: len(a.cards)}

	var qualitySum int
	for _, ev := range a.events {
		m.TotalReviews++
		qualitySum += int(ev.Quality)
		if ev.Quality.Passing() {
			m.TotalPassed++
		} else {
			m.TotalFailed++
		}
	}
	if m.TotalReviews > 0 {
		m.PassRate = float64(m.TotalPassed) / float64(m.TotalReviews) * 100.0
		m.AverageQuality = float64(qualitySum) / float64(m.TotalReviews)
	}

	var easeSum float64
	today := dateOf(asOf)
	for _, card := range a.cards {
		easeSum += card.SM2.EaseFactor
		if !sm2.IsDue(card.SM2, asOf) {
			continue
		}
		if card.SM2.Due.Before(today) {
			m.Overdue++
		} else {
			m.DueToday++
		}
	}
	if len(a.cards) > 0 {
		m.AverageEase = easeSum / float64(len(a.cards))
	}

	return m
}

// RetentionCurve buckets the events of the last windowDays days by
// calendar day and computes the pass rate per bucket. Points are
// returned in chronological order; days without reviews produce no
// point.
func (a *Analyzer) RetentionCurve(windowDays int, asOf time.Time) []RetentionPoint {
	from := time.Time{}
	if windowDays > 0 {
		from = dateOf(asOf).AddDate(0, 0, -(windowDays - 1))
	}

	type bucket struct {
		total  int
		passed int
	}
	buckets := make(map[time.Time]*bucket)
	for _, ev := range FilterWindow(a.events, from, asOf) {
		day := dateOf(ev.Timestamp)
		b, ok := buckets[day]
		if !ok {
			b = &bucket{}
			buckets[day] = b
		}
		b.total++
		if ev.Quality.Passing() {
			b.passed++
		}
	}

	days := make([]time.Time, 0, len(buckets))
	for day := range buckets {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	curve := make([]RetentionPoint, 0, len(days))
	for _, day := range days {
		b := buckets[day]
		curve = append(curve, RetentionPoint{
			Date:      day,
			Retention: float64(b.passed) / float64(b.total) * 100.0,
			Reviews:   b.total,
		})
	}
	return curve
}

// AverageRetention returns the mean retention over the curve's points.
func (a *Analyzer) AverageRetention(windowDays int, asOf time.Time) float64 {
	curve := a.RetentionCurve(windowDays, asOf)
	if len(curve) == 0 {
		return 0
	}
	var sum float64
	for _, p := range curve {
		sum += p.Retention
	}
	return sum / float64(len(curve))
}

// WeakSpots returns the cards whose pass rate over their most recent
// reviews falls below the threshold, worst first. Ties are broken by
// card id so the order is deterministic.
func (a *Analyzer) WeakSpots() []WeakSpot {
	recent := make(map[string][]ReviewEvent)
	for _, ev := range a.events {
		window := append(recent[ev.CardID], ev)
		if len(window) > a.weakSpotWindow {
			window = window[1:]
		}
		recent[ev.CardID] = window
	}

	spots := make([]WeakSpot, 0)
	for cardID, window := range recent {
		passed := 0
		for _, ev := range window {
			if ev.Quality.Passing() {
				passed++
			}
		}
		rate := float64(passed) / float64(len(window))
		if rate < a.weakSpotThreshold {
			spots = append(spots, WeakSpot{
				CardID:   cardID,
				PassRate: rate * 100.0,
				Reviews:  len(window),
			})
		}
	}

	sort.Slice(spots, func(i, j int) bool {
		if spots[i].PassRate != spots[j].PassRate {
			return spots[i].PassRate < spots[j].PassRate
		}
		return spots[i].CardID < spots[j].CardID
	})
	return spots
}

// Recommendations derives study suggestions from the weak spots and the
// due backlog. It holds no state beyond those inputs.
func (a *Analyzer) Recommendations(asOf time.Time) []Recommendation {
	metrics := a.Metrics(asOf)
	weakSpots := a.WeakSpots()
	avgRetention := a.AverageRetention(0, asOf)

	recs := make([]Recommendation, 0)

	if metrics.TotalReviews > 0 && avgRetention < 50 {
		recs = append(recs, Recommendation{
			Type:     "retention",
			Priority: "high",
			Message:  "Your retention is low. Try reviewing for shorter periods but more frequently.",
		})
	}

	limit := len(weakSpots)
	if limit > 3 {
		limit = 3
	}
	for _, spot := range weakSpots[:limit] {
		recs = append(recs, Recommendation{
			Type:     "weak_spot",
			Priority: "medium",
			Message:  fmt.Sprintf("Focus on card %s - only %.1f%% pass rate recently.", spot.CardID, spot.PassRate),
		})
	}

	if backlog := metrics.Overdue; backlog > 0 {
		recs = append(recs, Recommendation{
			Type:     "backlog",
			Priority: "medium",
			Message:  fmt.Sprintf("%d cards are overdue. Clear the backlog before adding new material.", backlog),
		})
	}

	if len(recs) == 0 {
		recs = append(recs, Recommendation{
			Type:     "positive",
			Priority: "low",
			Message:  "Great work! Keep up the consistent practice.",
		})
	}
	return recs
}

// RetentionMessage returns a summary message for an average retention
// percentage.
func RetentionMessage(avgRetention float64) string {
	switch {
	case avgRetention >= 90:
		return "Excellent retention! You're mastering this."
	case avgRetention >= 75:
		return "Good retention. Keep practicing to improve."
	case avgRetention >= 50:
		return "Fair retention. Consider reviewing more often."
	case avgRetention >= 25:
		return "Low retention. Increase review frequency."
	default:
		return "Very low retention. Focus on difficult cards."
	}
}

// Summarize composes the full analytics report for the given window. An
// empty event log yields zeroed metrics and empty sequences, never an
// error.
func (a *Analyzer) Summarize(windowDays int, asOf time.Time) Summary {
	avgRetention := a.AverageRetention(windowDays, asOf)
	return Summary{
		Metrics:          a.Metrics(asOf),
		Streak:           ReplayStreak(a.events),
		RetentionCurve:   a.RetentionCurve(windowDays, asOf),
		AverageRetention: avgRetention,
		RetentionMessage: RetentionMessage(avgRetention),
		WeakSpots:        a.WeakSpots(),
		Recommendations:  a.Recommendations(asOf),
	}
}
