// Package main implements the wickit MCP service: SM-2 flashcard
// scheduling with streak and retention analytics.
package main

import (
	"github.com/czaku/wickit/internal/deck"
	"github.com/czaku/wickit/internal/pulse"
)

// CardView is a card enriched with its current retention estimate.
type CardView struct {
	deck.Card
	RetentionScore float64 `json:"retention_score"`
}

// CardStats summarizes the state of the card collection.
type CardStats struct {
	TotalCards   int     `json:"total_cards"`
	DueCards     int     `json:"due_cards"`
	NewCards     int     `json:"new_cards"`
	ReviewsToday int     `json:"reviews_today"`
	PassRate     float64 `json:"pass_rate"`
}

// DueCardResponse is the response for get_due_card.
type DueCardResponse struct {
	Card  CardView  `json:"card"`
	Stats CardStats `json:"stats"`
}

// ReviewResponse is the response for submit_review.
type ReviewResponse struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	GradeLabel string   `json:"grade_label"`
	Card       CardView `json:"card"`
}

// PreviewResponse is the response for preview_interval.
type PreviewResponse struct {
	CardID       string `json:"card_id"`
	Quality      int    `json:"quality"`
	GradeLabel   string `json:"grade_label"`
	IntervalDays int    `json:"interval_days"`
}

// CreateCardResponse is the response for create_card.
type CreateCardResponse struct {
	Card deck.Card `json:"card"`
}

// UpdateCardResponse is the response for update_card.
type UpdateCardResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Card    deck.Card `json:"card"`
}

// DeleteCardResponse is the response for delete_card.
type DeleteCardResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ListCardsResponse is the response for list_cards.
type ListCardsResponse struct {
	Cards []deck.Card `json:"cards"`
	Stats *CardStats  `json:"stats,omitempty"`
}

// StreakResponse is the response for get_streak. Streak is the
// effective streak after the recency check; Data holds the raw
// aggregate including the longest streak.
type StreakResponse struct {
	Streak  int              `json:"streak"`
	Message string           `json:"message"`
	Data    pulse.StreakData `json:"data"`
}

// AnalyticsResponse is the response for get_analytics.
type AnalyticsResponse struct {
	Summary pulse.Summary `json:"summary"`
}
