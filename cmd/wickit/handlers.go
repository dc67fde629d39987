// Package main provides implementation for the wickit MCP service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/czaku/wickit/internal/sm2"
)

// serviceFromContext pulls the shared service out of the request
// context. Every handler starts here.
func serviceFromContext(ctx context.Context) (*CardService, bool) {
	s, ok := ctx.Value("service").(*CardService)
	return s, ok && s != nil
}

// tagsArgument extracts an optional []string tags parameter from the
// request arguments.
func tagsArgument(request mcp.CallToolRequest, key string) []string {
	var tags []string
	if tagsInterface, ok := request.Params.Arguments[key].([]interface{}); ok {
		for _, tag := range tagsInterface {
			if tagStr, ok := tag.(string); ok {
				tags = append(tags, tagStr)
			}
		}
	}
	return tags
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// handleCreateCard handles the create_card tool request by creating a new
// flashcard with the provided front and back content and optional tags.
func handleCreateCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	front, ok := request.Params.Arguments["front"].(string)
	if !ok {
		return mcp.NewToolResultText("Missing required parameter: front"), nil
	}
	back, ok := request.Params.Arguments["back"].(string)
	if !ok {
		return mcp.NewToolResultText("Missing required parameter: back"), nil
	}
	tags := tagsArgument(request, "tags")

	s, ok := serviceFromContext(ctx)
	if !ok {
		return mcp.NewToolResultText("Error: Service not available"), nil
	}

	newCard, err := s.CreateCard(front, back, tags)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("Error creating card: %v", err)), nil
	}

	return jsonResult(CreateCardResponse{Card: newCard})
}

// handleUpdateCard handles the update_card tool request. Only parameters
// present in the request are applied, allowing for partial updates.
func handleUpdateCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cardID, ok := request.Params.Arguments["card_id"].(string)
	if !ok {
		return mcp.NewToolResultText("Missing required parameter: card_id"), nil
	}

	var front, back *string
	if frontStr, ok := request.Params.Arguments["front"].(string); ok {
		front = &frontStr
	}
	if backStr, ok := request.Params.Arguments["back"].(string); ok {
		back = &backStr
	}
	var tags *[]string
	if _, present := request.Params.Arguments["tags"]; present {
		tagList := tagsArgument(request, "tags")
		if tagList == nil {
			tagList = []string{}
		}
		tags = &tagList
	}

	s, ok := serviceFromContext(ctx)
	if !ok {
		return mcp.NewToolResultText("Error: Service not available"), nil
	}

	updatedCard, err := s.UpdateCard(cardID, front, back, tags)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf(`{"error": "Error updating card: %v"}`, err)), nil
	}

	return jsonResult(UpdateCardResponse{
		Success: true,
		Message: fmt.Sprintf("Card %s updated successfully", cardID),
		Card:    updatedCard,
	})
}

// handleDeleteCard handles the delete_card tool request by removing a
// flashcard from storage. Review history for the card is kept.
func handleDeleteCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cardID, ok := request.Params.Arguments["card_id"].(string)
	if !ok {
		return mcp.NewToolResultText("Missing required parameter: card_id"), nil
	}

	s, ok := serviceFromContext(ctx)
	if !ok {
		return mcp.NewToolResultText("Error: Service not available"), nil
	}

	if err := s.DeleteCard(cardID); err != nil {
		return mcp.NewToolResultText(fmt.Sprintf(`{"error": "Error deleting card: %v"}`, err)), nil
	}

	return jsonResult(DeleteCardResponse{
		Success: true,
		Message: fmt.Sprintf("Card %s was successfully deleted", cardID),
	})
}

// handleListCards handles the list_cards tool request by retrieving all
// flashcards, optionally filtered by tags, with optional statistics.
func handleListCards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filterTags := tagsArgument(request, "tags")

	includeStats := false
	if includeStatsVal, ok := request.Params.Arguments["include_stats"].(bool); ok {
		includeStats = includeStatsVal
	}

	s, ok := serviceFromContext(ctx)
	if !ok {
		return mcp.NewToolResultText("Error: Service not available"), nil
	}

	cards, stats, err := s.ListCards(filterTags, includeStats)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf(`{"error": "Error listing cards: %v"}`, err)), nil
	}

	response := ListCardsResponse{Cards: cards}
	if includeStats {
		response.Stats = &stats
	}
	return jsonResult(response)
}

// handleGetDueCard handles the get_due_card tool request by retrieving
// the next flashcard due for review. It returns the card along with
// current review statistics; if no cards are due, the error response
// still carries the statistics.
func handleGetDueCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return mcp.NewToolResultText("Error: Service not available"), nil
	}

	filterTags := tagsArgument(request, "tags")

	card, stats, err := s.GetDueCard(filterTags)
	if err != nil {
		type errorResponseWithStats struct {
			Error string    `json:"error"`
			Stats CardStats `json:"stats"`
		}
		errorMsg := fmt.Sprintf("Error getting due card: %v", err)
		if strings.Contains(err.Error(), "no cards due for review") {
			if len(filterTags) > 0 {
				errorMsg = fmt.Sprintf("No cards due for review with the specified tags: %v", filterTags)
			} else {
				errorMsg = "No cards due for review"
			}
		} else if strings.Contains(err.Error(), "no cards found with the specified tags") {
			errorMsg = fmt.Sprintf("No cards found with the specified tags: %v", filterTags)
		}
		return jsonResult(errorResponseWithStats{Error: errorMsg, Stats: stats})
	}

	return jsonResult(DueCardResponse{Card: card, Stats: stats})
}

// handleSubmitReview handles the submit_review tool request by grading a
// flashcard on the 0-5 quality scale and rescheduling it.
func handleSubmitReview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cardID, ok := request.Params.Arguments["card_id"].(string)
	if !ok {
		return mcp.NewToolResultText("Missing required parameter: card_id"), nil
	}

	qualityFloat, ok := request.Params.Arguments["quality"].(float64)
	if !ok {
		return mcp.NewToolResultText("Missing required parameter: quality"), nil
	}
	quality := sm2.Quality(int(qualityFloat))
	if !quality.Valid() {
		return mcp.NewToolResultText("Quality must be between 0 and 5"), nil
	}

	s, ok := serviceFromContext(ctx)
	if !ok {
		return mcp.NewToolResultText("Error: Service not available"), nil
	}

	updatedCard, err := s.SubmitReview(cardID, quality)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf(`{"error": "Error submitting review: %v"}`, err)), nil
	}

	return jsonResult(ReviewResponse{
		Success:    true,
		Message:    "Review submitted successfully for card " + cardID,
		GradeLabel: quality.Label(),
		Card:       updatedCard,
	})
}

// handlePreviewInterval handles the preview_interval tool request: what
// interval would a given quality produce, without recording a review.
func handlePreviewInterval(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cardID, ok := request.Params.Arguments["card_id"].(string)
	if !ok {
		return mcp.NewToolResultText("Missing required parameter: card_id"), nil
	}

	qualityFloat, ok := request.Params.Arguments["quality"].(float64)
	if !ok {
		return mcp.NewToolResultText("Missing required parameter: quality"), nil
	}
	quality := sm2.Quality(int(qualityFloat))
	if !quality.Valid() {
		return mcp.NewToolResultText("Quality must be between 0 and 5"), nil
	}

	s, ok := serviceFromContext(ctx)
	if !ok {
		return mcp.NewToolResultText("Error: Service not available"), nil
	}

	interval, err := s.PreviewInterval(cardID, quality)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf(`{"error": "Error previewing interval: %v"}`, err)), nil
	}

	return jsonResult(PreviewResponse{
		CardID:       cardID,
		Quality:      int(quality),
		GradeLabel:   quality.Label(),
		IntervalDays: interval,
	})
}

// handleGetStreak handles the get_streak tool request.
func handleGetStreak(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return mcp.NewToolResultText("Error: Service not available"), nil
	}

	streak, err := s.GetStreak()
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf(`{"error": "Error computing streak: %v"}`, err)), nil
	}
	return jsonResult(streak)
}

// handleGetAnalytics handles the get_analytics tool request by composing
// the retention curve, progress metrics, weak spots, and study
// recommendations into a single summary.
func handleGetAnalytics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return mcp.NewToolResultText("Error: Service not available"), nil
	}

	windowDays := 0
	if windowFloat, ok := request.Params.Arguments["window_days"].(float64); ok {
		windowDays = int(windowFloat)
	}

	summary, err := s.GetAnalytics(windowDays)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf(`{"error": "Error computing analytics: %v"}`, err)), nil
	}
	return jsonResult(AnalyticsResponse{Summary: summary})
}

// handleTagsResource generates a resource showing all tags in the
// collection and per-tag card counts, so clients know which tags are
// available for filtering.
func handleTagsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("service not available")
	}

	allCards, err := s.Storage.ListCards(nil)
	if err != nil {
		return nil, fmt.Errorf("error listing cards: %w", err)
	}

	type tagInfo struct {
		Tag       string `json:"tag"`
		CardCount int    `json:"card_count"`
		DueCount  int    `json:"due_count"`
	}

	now := timeNow()
	tagCounts := make(map[string]int)
	tagDueCounts := make(map[string]int)
	for _, card := range allCards {
		for _, tag := range card.Tags {
			tagCounts[tag]++
			if sm2.IsDue(card.SM2, now) {
				tagDueCounts[tag]++
			}
		}
	}

	tags := make([]tagInfo, 0, len(tagCounts))
	for tag, count := range tagCounts {
		tags = append(tags, tagInfo{
			Tag:       tag,
			CardCount: count,
			DueCount:  tagDueCounts[tag],
		})
	}
	sort.Slice(tags, func(i, j int) bool {
		return tags[i].Tag < tags[j].Tag
	})

	jsonBytes, err := json.MarshalIndent(tags, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error marshaling tags to JSON: %w", err)
	}

	textContent := mcp.TextResourceContents{
		URI:      "available-tags",
		MIMEType: "application/json",
		Text:     string(jsonBytes),
	}

	var contents []mcp.ResourceContents
	contents = append(contents, textContent)
	return contents, nil
}
