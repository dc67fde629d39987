package main

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/czaku/wickit/internal/config"
	"github.com/czaku/wickit/internal/deck"
	"github.com/czaku/wickit/internal/pulse"
	"github.com/czaku/wickit/internal/sm2"
	"github.com/czaku/wickit/internal/storage"
)

// timeNow is overridden in tests to provide a deterministic clock.
var timeNow = time.Now

// CardService coordinates storage, the SM-2 scheduler, and analytics.
type CardService struct {
	Storage   storage.Storage
	Scheduler sm2.Scheduler
	Logger    *zap.Logger
	review    config.ReviewConfig
}

// NewCardService creates a service over the given storage backend.
func NewCardService(store storage.Storage, cfg *config.Config) *CardService {
	return &CardService{
		Storage:   store,
		Scheduler: sm2.NewScheduler(),
		Logger:    newLogger(cfg.Log.Level),
		review:    cfg.Review,
	}
}

func newLogger(level string) *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		logConfig.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := logConfig.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// CreateCard creates a new flashcard through the storage layer.
func (s *CardService) CreateCard(front, back string, tags []string) (deck.Card, error) {
	s.Logger.Debug("CreateCard called", zap.String("front", front), zap.Strings("tags", tags))

	card, err := s.Storage.CreateCard(front, back, tags)
	if err != nil {
		s.Logger.Error("Error creating card in storage", zap.Error(err))
		return deck.Card{}, fmt.Errorf("error creating card in storage: %w", err)
	}
	if err := s.Storage.Save(); err != nil {
		s.Logger.Warn("Failed to save storage after creating card",
			zap.String("card_id", card.ID), zap.Error(err))
	}
	return card, nil
}

// UpdateCard selectively updates card content. Nil pointers leave the
// corresponding field unchanged.
func (s *CardService) UpdateCard(cardID string, front, back *string, tags *[]string) (deck.Card, error) {
	card, err := s.Storage.GetCard(cardID)
	if err != nil {
		return deck.Card{}, fmt.Errorf("error getting card %s: %w", cardID, err)
	}

	updated := false
	if front != nil && card.Front != *front {
		card.Front = *front
		updated = true
	}
	if back != nil && card.Back != *back {
		card.Back = *back
		updated = true
	}
	if tags != nil && !equalStringSlices(card.Tags, *tags) {
		card.Tags = *tags
		updated = true
	}

	if updated {
		if err := s.Storage.UpdateCard(card); err != nil {
			return deck.Card{}, fmt.Errorf("error updating card %s in storage: %w", cardID, err)
		}
		if err := s.Storage.Save(); err != nil {
			return deck.Card{}, fmt.Errorf("error saving storage after updating card %s: %w", cardID, err)
		}
	}
	return card, nil
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// DeleteCard deletes a flashcard. Its review history is retained.
func (s *CardService) DeleteCard(cardID string) error {
	if err := s.Storage.DeleteCard(cardID); err != nil {
		s.Logger.Error("Error deleting card", zap.String("card_id", cardID), zap.Error(err))
		return fmt.Errorf("error deleting card: %w", err)
	}
	if err := s.Storage.Save(); err != nil {
		return fmt.Errorf("error saving storage: %w", err)
	}
	return nil
}

// ListCards lists cards sorted by creation time, optionally filtered by
// tags.
func (s *CardService) ListCards(filterTags []string, includeStats bool) ([]deck.Card, CardStats, error) {
	cards, err := s.Storage.ListCards(filterTags)
	if err != nil {
		return nil, CardStats{}, fmt.Errorf("error listing cards from storage: %w", err)
	}
	sortCards(cards)

	var stats CardStats
	if includeStats {
		stats, err = s.calculateStats(timeNow())
		if err != nil {
			s.Logger.Warn("Error calculating stats", zap.Error(err))
		}
	}
	return cards, stats, nil
}

// sortCards orders by creation time with id as tie-break, so listings
// are deterministic regardless of the backend's map order.
func sortCards(cards []deck.Card) {
	sort.Slice(cards, func(i, j int) bool {
		if !cards[i].CreatedAt.Equal(cards[j].CreatedAt) {
			return cards[i].CreatedAt.Before(cards[j].CreatedAt)
		}
		return cards[i].ID < cards[j].ID
	})
}

// GetDueCard returns the most urgent due card along with collection
// statistics.
func (s *CardService) GetDueCard(filterTags []string) (CardView, CardStats, error) {
	return s.GetDueCardAt(filterTags, timeNow())
}

// GetDueCardAt is GetDueCard with an explicit clock for tests.
func (s *CardService) GetDueCardAt(filterTags []string, now time.Time) (CardView, CardStats, error) {
	stats, err := s.calculateStats(now)
	if err != nil {
		return CardView{}, CardStats{}, err
	}

	cards, err := s.Storage.ListCards(filterTags)
	if err != nil {
		return CardView{}, stats, fmt.Errorf("error listing cards: %w", err)
	}
	if len(cards) == 0 && len(filterTags) > 0 {
		return CardView{}, stats, fmt.Errorf("no cards found with the specified tags: %v", filterTags)
	}
	sortCards(cards)

	d := deck.New("due")
	for _, card := range cards {
		if err := d.AddCard(card); err != nil {
			return CardView{}, stats, fmt.Errorf("error building deck: %w", err)
		}
	}

	due := d.DueCards(now)
	if len(due) == 0 {
		if len(filterTags) > 0 {
			return CardView{}, stats, fmt.Errorf("no cards due for review with the specified tags: %v", filterTags)
		}
		return CardView{}, stats, errors.New("no cards due for review")
	}

	s.Logger.Debug("GetDueCard returning card",
		zap.String("card_id", due[0].ID), zap.Int("due_count", len(due)))
	return s.cardView(due[0], now), stats, nil
}

// cardView pairs a card with its retention estimate.
func (s *CardService) cardView(card deck.Card, asOf time.Time) CardView {
	return CardView{
		Card:           card,
		RetentionScore: s.Scheduler.RetentionScore(card.SM2, asOf),
	}
}

// SubmitReview applies a quality rating to a card: the scheduler
// computes the new scheduling fields, the card is updated in storage,
// and the review event is appended to the log.
func (s *CardService) SubmitReview(cardID string, quality sm2.Quality) (CardView, error) {
	return s.SubmitReviewAt(cardID, quality, timeNow())
}

// SubmitReviewAt is SubmitReview with an explicit review timestamp.
func (s *CardService) SubmitReviewAt(cardID string, quality sm2.Quality, now time.Time) (CardView, error) {
	s.Logger.Debug("SubmitReview starting",
		zap.String("card_id", cardID), zap.Int("quality", int(quality)))

	card, err := s.Storage.GetCard(cardID)
	if err != nil {
		return CardView{}, fmt.Errorf("error getting card: %w", err)
	}

	updated, err := s.Scheduler.Review(card.SM2, quality, now)
	if err != nil {
		return CardView{}, fmt.Errorf("error reviewing card %s: %w", cardID, err)
	}
	card.SM2 = updated

	if err := s.Storage.UpdateCard(card); err != nil {
		return CardView{}, fmt.Errorf("error updating card: %w", err)
	}
	if _, err := s.Storage.AddReview(cardID, quality, now); err != nil {
		return CardView{}, fmt.Errorf("error recording review: %w", err)
	}
	if err := s.Storage.Save(); err != nil {
		return CardView{}, fmt.Errorf("error saving storage: %w", err)
	}

	s.Logger.Debug("SubmitReview complete",
		zap.String("card_id", cardID),
		zap.Int("interval_days", card.SM2.Interval),
		zap.Float64("ease_factor", card.SM2.EaseFactor),
		zap.Time("due", card.SM2.Due))
	return s.cardView(card, now), nil
}

// PreviewInterval returns the interval a review with the given quality
// would produce, without changing any state.
func (s *CardService) PreviewInterval(cardID string, quality sm2.Quality) (int, error) {
	card, err := s.Storage.GetCard(cardID)
	if err != nil {
		return 0, fmt.Errorf("error getting card: %w", err)
	}
	interval, err := s.Scheduler.PreviewInterval(card.SM2, quality)
	if err != nil {
		return 0, fmt.Errorf("error previewing interval for card %s: %w", cardID, err)
	}
	return interval, nil
}

// GetStreak reports the study streak derived from the review log. The
// effective streak is checked for recency at read time: a streak whose
// last active day is too far in the past reports 0.
func (s *CardService) GetStreak() (StreakResponse, error) {
	return s.GetStreakAt(timeNow())
}

// GetStreakAt is GetStreak with an explicit clock for tests.
func (s *CardService) GetStreakAt(now time.Time) (StreakResponse, error) {
	events, err := s.Storage.AllReviews()
	if err != nil {
		return StreakResponse{}, fmt.Errorf("error loading review log: %w", err)
	}

	tracker := pulse.NewStreakTrackerWithData(pulse.ReplayStreak(events))
	return StreakResponse{
		Streak:  tracker.Streak(now),
		Message: tracker.Message(),
		Data:    tracker.Data(),
	}, nil
}

// GetAnalytics composes the full analytics summary from the card set
// and the review log.
func (s *CardService) GetAnalytics(windowDays int) (pulse.Summary, error) {
	return s.GetAnalyticsAt(windowDays, timeNow())
}

// GetAnalyticsAt is GetAnalytics with an explicit clock for tests.
func (s *CardService) GetAnalyticsAt(windowDays int, now time.Time) (pulse.Summary, error) {
	cards, err := s.Storage.ListCards(nil)
	if err != nil {
		return pulse.Summary{}, fmt.Errorf("error listing cards: %w", err)
	}
	events, err := s.Storage.AllReviews()
	if err != nil {
		return pulse.Summary{}, fmt.Errorf("error loading review log: %w", err)
	}

	if windowDays <= 0 {
		windowDays = s.review.RetentionWindowDays
	}
	analyzer := pulse.NewAnalyzer(cards, events,
		pulse.WithWeakSpotPolicy(s.review.WeakSpotWindow, s.review.WeakSpotThreshold))
	return analyzer.Summarize(windowDays, now), nil
}

// calculateStats summarizes the whole collection as of now.
func (s *CardService) calculateStats(now time.Time) (CardStats, error) {
	cards, err := s.Storage.ListCards(nil)
	if err != nil {
		return CardStats{}, fmt.Errorf("error listing cards for stats: %w", err)
	}
	events, err := s.Storage.AllReviews()
	if err != nil {
		return CardStats{}, fmt.Errorf("error loading review log for stats: %w", err)
	}

	stats := CardStats{TotalCards: len(cards)}
	for _, card := range cards {
		if sm2.IsDue(card.SM2, now) {
			stats.DueCards++
		}
		if card.SM2.Repetitions == 0 && card.SM2.LastReview.IsZero() {
			stats.NewCards++
		}
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	passedToday := 0
	for _, ev := range events {
		if ev.Timestamp.Before(today) || ev.Timestamp.After(now) {
			continue
		}
		stats.ReviewsToday++
		if ev.Quality.Passing() {
			passedToday++
		}
	}
	if stats.ReviewsToday > 0 {
		stats.PassRate = float64(passedToday) / float64(stats.ReviewsToday) * 100.0
	}
	return stats, nil
}
