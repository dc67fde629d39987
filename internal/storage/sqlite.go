package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the sqlite driver

	"github.com/czaku/wickit/internal/deck"
	"github.com/czaku/wickit/internal/pulse"
	"github.com/czaku/wickit/internal/sm2"
)

// SQLiteStorage implements Storage on a SQLite database. Every write is
// durable when the statement returns, so Load and Save are no-ops.
type SQLiteStorage struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database at dsn and ensures the
// schema is up to date.
func OpenSQLite(dsn string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQLiteStorage{conn: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.conn.Close()
}

// CreateCard inserts a new card with default scheduling state.
func (s *SQLiteStorage) CreateCard(front, back string, tags []string) (deck.Card, error) {
	now := time.Now()
	card := deck.Card{
		ID:        uuid.New().String(),
		Front:     front,
		Back:      back,
		Tags:      tags,
		CreatedAt: now,
		SM2:       sm2.NewCard(now),
	}

	_, err := s.conn.Exec(`
		INSERT INTO cards (id, front, back, tags, created_at, ease_factor, interval_days, repetitions, due, last_review)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`,
		card.ID, card.Front, card.Back, joinTags(card.Tags), card.CreatedAt,
		card.SM2.EaseFactor, card.SM2.Interval, card.SM2.Repetitions, card.SM2.Due,
	)
	if err != nil {
		return deck.Card{}, fmt.Errorf("failed to insert card %s: %w", card.ID, err)
	}
	return card, nil
}

// GetCard retrieves a card by id.
func (s *SQLiteStorage) GetCard(id string) (deck.Card, error) {
	row := s.conn.QueryRow(`
		SELECT id, front, back, tags, created_at, ease_factor, interval_days, repetitions, due, last_review
		FROM cards WHERE id = ?
	`, id)
	return scanCard(row)
}

// UpdateCard replaces an existing card.
func (s *SQLiteStorage) UpdateCard(card deck.Card) error {
	var lastReview any
	if !card.SM2.LastReview.IsZero() {
		lastReview = card.SM2.LastReview
	}
	result, err := s.conn.Exec(`
		UPDATE cards
		SET front = ?, back = ?, tags = ?, ease_factor = ?, interval_days = ?, repetitions = ?, due = ?, last_review = ?
		WHERE id = ?
	`,
		card.Front, card.Back, joinTags(card.Tags),
		card.SM2.EaseFactor, card.SM2.Interval, card.SM2.Repetitions, card.SM2.Due, lastReview,
		card.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update card %s: %w", card.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return deck.ErrCardNotFound
	}
	return nil
}

// DeleteCard removes a card. Review events are kept.
func (s *SQLiteStorage) DeleteCard(id string) error {
	result, err := s.conn.Exec(`DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return deck.ErrCardNotFound
	}
	return nil
}

// ListCards returns all cards in creation order, optionally filtered to
// cards carrying any of the given tags.
func (s *SQLiteStorage) ListCards(tags []string) ([]deck.Card, error) {
	rows, err := s.conn.Query(`
		SELECT id, front, back, tags, created_at, ease_factor, interval_days, repetitions, due, last_review
		FROM cards ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	cards := make([]deck.Card, 0)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		if hasAnyTag(card.Tags, tags) {
			cards = append(cards, card)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cards: %w", err)
	}
	return cards, nil
}

// AddReview appends a review event for an existing card.
func (s *SQLiteStorage) AddReview(cardID string, quality sm2.Quality, at time.Time) (pulse.ReviewEvent, error) {
	if _, err := s.GetCard(cardID); err != nil {
		return pulse.ReviewEvent{}, err
	}

	event := pulse.ReviewEvent{
		ID:        uuid.New().String(),
		CardID:    cardID,
		Quality:   quality,
		Timestamp: at,
	}
	_, err := s.conn.Exec(`
		INSERT INTO reviews (id, card_id, quality, timestamp) VALUES (?, ?, ?, ?)
	`, event.ID, event.CardID, int(event.Quality), event.Timestamp)
	if err != nil {
		return pulse.ReviewEvent{}, fmt.Errorf("failed to insert review for card %s: %w", cardID, err)
	}
	return event, nil
}

// ListReviews returns the events for one card in append order.
func (s *SQLiteStorage) ListReviews(cardID string) ([]pulse.ReviewEvent, error) {
	if _, err := s.GetCard(cardID); err != nil {
		return nil, err
	}
	return s.queryReviews(`SELECT id, card_id, quality, timestamp FROM reviews WHERE card_id = ? ORDER BY rowid`, cardID)
}

// AllReviews returns every event in append order.
func (s *SQLiteStorage) AllReviews() ([]pulse.ReviewEvent, error) {
	return s.queryReviews(`SELECT id, card_id, quality, timestamp FROM reviews ORDER BY rowid`)
}

// Load is a no-op: the database is read on demand.
func (s *SQLiteStorage) Load() error { return nil }

// Save is a no-op: every statement is durable on return.
func (s *SQLiteStorage) Save() error { return nil }

func (s *SQLiteStorage) queryReviews(query string, args ...any) ([]pulse.ReviewEvent, error) {
	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	events := make([]pulse.ReviewEvent, 0)
	for rows.Next() {
		var ev pulse.ReviewEvent
		var quality int
		if err := rows.Scan(&ev.ID, &ev.CardID, &quality, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		ev.Quality = sm2.Quality(quality)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}
	return events, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCard(row scanner) (deck.Card, error) {
	var card deck.Card
	var tags string
	var lastReview sql.NullTime
	err := row.Scan(
		&card.ID, &card.Front, &card.Back, &tags, &card.CreatedAt,
		&card.SM2.EaseFactor, &card.SM2.Interval, &card.SM2.Repetitions, &card.SM2.Due, &lastReview,
	)
	if err == sql.ErrNoRows {
		return deck.Card{}, deck.ErrCardNotFound
	}
	if err != nil {
		return deck.Card{}, fmt.Errorf("failed to scan card: %w", err)
	}
	card.Tags = splitTags(tags)
	if lastReview.Valid {
		card.SM2.LastReview = lastReview.Time
	}
	return card, nil
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}
