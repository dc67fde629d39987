package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/czaku/wickit/internal/config"
	"github.com/czaku/wickit/internal/storage"
)

const wickitServerInfo = `
This is a spaced repetition flashcard system built on the SM-2 scheduling
algorithm. When running a study session, follow this workflow:

1. Call get_due_card to fetch the next card due for review. Present only
   the front (question) side and ask the student to recall the answer.
2. After the student answers, show the back side and grade the response
   on the 0-5 quality scale:
     0 - complete blackout, no recollection
     1 - incorrect, but the answer felt familiar once revealed
     2 - incorrect, yet the answer came to mind easily once revealed
     3 - correct with serious difficulty
     4 - correct after some hesitation
     5 - perfect recall
3. Call submit_review with the card id and quality. The scheduler
   updates the card's ease factor and schedules the next review.
4. Repeat until no cards are due, then call get_streak and get_analytics
   to summarize the session: streak status, retention trend, weak spots,
   and study recommendations.

Use preview_interval to answer "when would I see this card again if I
rate it X" without recording a review. Card content is managed with
create_card, update_card, delete_card, and list_cards.
`

func main() {
	configPath := flag.String("config", "", "Path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	var store storage.Storage
	switch cfg.Storage.Backend {
	case "sqlite":
		sqliteStore, err := storage.OpenSQLite(cfg.Storage.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening sqlite storage: %v\n", err)
			os.Exit(1)
		}
		defer sqliteStore.Close()
		store = sqliteStore
	default:
		store = storage.NewFileStorage(cfg.Storage.Path)
	}
	if err := store.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading storage: %v\n", err)
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"Wickit",
		"1.0.0",
		server.WithInstructions(wickitServerInfo),
		server.WithResourceCapabilities(true, true),
		server.WithToolCapabilities(true),
		server.WithLogging(),
	)

	cardService := NewCardService(store, cfg)
	defer cardService.Logger.Sync()

	// Context with the service for tool handlers
	ctx := context.WithValue(context.Background(), "service", cardService)

	getDueCardTool := mcp.NewTool("get_due_card",
		mcp.WithDescription(
			"Get the next flashcard due for review, with collection statistics. "+
				"Present only the front (question) side to the student and ask them "+
				"to recall the answer before revealing the back side.",
		),
		mcp.WithArray("tags",
			mcp.Description("Only consider cards carrying at least one of these tags"),
		),
	)

	submitReviewTool := mcp.NewTool("submit_review",
		mcp.WithDescription(
			"Submit a graded review for a flashcard. Quality is the SM-2 scale: "+
				"0=complete blackout, 1=incorrect but familiar, 2=incorrect but easy "+
				"to recall once shown, 3=correct with difficulty, 4=correct with "+
				"hesitation, 5=perfect recall. Grades below 3 reset the card's "+
				"repetition sequence.",
		),
		mcp.WithString("card_id",
			mcp.Required(),
			mcp.Description("The ID of the card being reviewed"),
		),
		mcp.WithNumber("quality",
			mcp.Required(),
			mcp.Description("Recall quality from 0 to 5"),
		),
	)

	previewIntervalTool := mcp.NewTool("preview_interval",
		mcp.WithDescription(
			"Preview the interval in days that a review with the given quality "+
				"would produce, without recording a review or changing the card.",
		),
		mcp.WithString("card_id",
			mcp.Required(),
			mcp.Description("The ID of the card to preview"),
		),
		mcp.WithNumber("quality",
			mcp.Required(),
			mcp.Description("Hypothetical recall quality from 0 to 5"),
		),
	)

	createCardTool := mcp.NewTool("create_card",
		mcp.WithDescription(
			"Create a new flashcard. Keep questions clear and specific, answers "+
				"concise but complete, and each card testing a single concept.",
		),
		mcp.WithString("front",
			mcp.Required(),
			mcp.Description("The front text of the card"),
		),
		mcp.WithString("back",
			mcp.Required(),
			mcp.Description("The back text of the card"),
		),
		mcp.WithArray("tags",
			mcp.Description("Tags for categorizing the card"),
		),
	)

	updateCardTool := mcp.NewTool("update_card",
		mcp.WithDescription(
			"Update an existing flashcard. Omitted parameters are left unchanged; "+
				"scheduling state is never affected.",
		),
		mcp.WithString("card_id",
			mcp.Required(),
			mcp.Description("The ID of the card to update"),
		),
		mcp.WithString("front",
			mcp.Description("The new front text of the card"),
		),
		mcp.WithString("back",
			mcp.Description("The new back text of the card"),
		),
		mcp.WithArray("tags",
			mcp.Description("New tags for the card"),
		),
	)

	deleteCardTool := mcp.NewTool("delete_card",
		mcp.WithDescription("Delete a flashcard. Its review history is retained."),
		mcp.WithString("card_id",
			mcp.Required(),
			mcp.Description("The ID of the card to delete"),
		),
	)

	listCardsTool := mcp.NewTool("list_cards",
		mcp.WithDescription("List all flashcards, optionally filtered by tags."),
		mcp.WithArray("tags",
			mcp.Description("Filter cards by tags"),
		),
		mcp.WithBoolean("include_stats",
			mcp.Description("Include collection statistics in the response"),
		),
	)

	getStreakTool := mcp.NewTool("get_streak",
		mcp.WithDescription(
			"Get the student's study streak: current consecutive-day streak, "+
				"longest streak, and an encouragement message.",
		),
	)

	getAnalyticsTool := mcp.NewTool("get_analytics",
		mcp.WithDescription(
			"Get the full learning analytics summary: progress metrics, "+
				"retention curve, weak spot cards, and study recommendations.",
		),
		mcp.WithNumber("window_days",
			mcp.Description("Retention curve window in days (0 uses the configured default)"),
		),
	)

	s.AddTool(getDueCardTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Pass the context with service to the handler
		return handleGetDueCard(ctx, request)
	})
	s.AddTool(submitReviewTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSubmitReview(ctx, request)
	})
	s.AddTool(previewIntervalTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handlePreviewInterval(ctx, request)
	})
	s.AddTool(createCardTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCreateCard(ctx, request)
	})
	s.AddTool(updateCardTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleUpdateCard(ctx, request)
	})
	s.AddTool(deleteCardTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleDeleteCard(ctx, request)
	})
	s.AddTool(listCardsTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListCards(ctx, request)
	})
	s.AddTool(getStreakTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetStreak(ctx, request)
	})
	s.AddTool(getAnalyticsTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetAnalytics(ctx, request)
	})

	tagsResource := mcp.NewResource(
		"available-tags",
		"Available Tags",
		mcp.WithResourceDescription("All tags in the collection with per-tag card and due counts"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(tagsResource, func(reqCtx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleTagsResource(ctx, request)
	})

	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("Error serving MCP server: %v", err)
	}
}
