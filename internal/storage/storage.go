// Package storage persists cards and the review event log. Two backends
// implement the same interface: a single-document JSON file and SQLite.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/czaku/wickit/internal/deck"
	"github.com/czaku/wickit/internal/pulse"
	"github.com/czaku/wickit/internal/sm2"
)

// Storage is the persistence collaborator for cards and review events.
// Reviews are returned in append (chronological) order.
type Storage interface {
	// Card operations
	CreateCard(front, back string, tags []string) (deck.Card, error)
	GetCard(id string) (deck.Card, error)
	UpdateCard(card deck.Card) error
	DeleteCard(id string) error
	ListCards(tags []string) ([]deck.Card, error)

	// Review operations
	AddReview(cardID string, quality sm2.Quality, at time.Time) (pulse.ReviewEvent, error)
	ListReviews(cardID string) ([]pulse.ReviewEvent, error)
	AllReviews() ([]pulse.ReviewEvent, error)

	// File operations. Backends with per-statement durability may treat
	// these as no-ops.
	Load() error
	Save() error
}

// cardStore is the document persisted by FileStorage.
type cardStore struct {
	Cards       map[string]deck.Card `json:"cards"`
	Reviews     []pulse.ReviewEvent  `json:"reviews"`
	LastUpdated time.Time            `json:"last_updated"`
}

// FileStorage implements Storage using a JSON file.
type FileStorage struct {
	filePath string
	store    cardStore
	mu       sync.RWMutex
}

// NewFileStorage creates a FileStorage backed by the given path. Call
// Load before use.
func NewFileStorage(filePath string) *FileStorage {
	return &FileStorage{
		filePath: filePath,
		store: cardStore{
			Cards:   make(map[string]deck.Card),
			Reviews: []pulse.ReviewEvent{},
		},
	}
}

// CreateCard creates a new card with default scheduling state, due
// immediately.
func (fs *FileStorage) CreateCard(front, back string, tags []string) (deck.Card, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	now := time.Now()
	card := deck.Card{
		ID:        uuid.New().String(),
		Front:     front,
		Back:      back,
		Tags:      tags,
		CreatedAt: now,
		SM2:       sm2.NewCard(now),
	}

	fs.store.Cards[card.ID] = card
	fs.store.LastUpdated = now
	return card, nil
}

// GetCard retrieves a card by id.
func (fs *FileStorage) GetCard(id string) (deck.Card, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	card, exists := fs.store.Cards[id]
	if !exists {
		return deck.Card{}, deck.ErrCardNotFound
	}
	return card, nil
}

// UpdateCard replaces an existing card.
func (fs *FileStorage) UpdateCard(card deck.Card) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, exists := fs.store.Cards[card.ID]; !exists {
		return deck.ErrCardNotFound
	}
	fs.store.Cards[card.ID] = card
	fs.store.LastUpdated = time.Now()
	return nil
}

// DeleteCard removes a card by id. Its review events are kept: the log
// is append-only and remains the analytics substrate.
func (fs *FileStorage) DeleteCard(id string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, exists := fs.store.Cards[id]; !exists {
		return deck.ErrCardNotFound
	}
	delete(fs.store.Cards, id)
	fs.store.LastUpdated = time.Now()
	return nil
}

// ListCards returns all cards, optionally filtered to cards carrying any
// of the given tags.
func (fs *FileStorage) ListCards(tags []string) ([]deck.Card, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	result := make([]deck.Card, 0, len(fs.store.Cards))
	for _, card := range fs.store.Cards {
		if hasAnyTag(card.Tags, tags) {
			result = append(result, card)
		}
	}
	return result, nil
}

// hasAnyTag reports whether cardTags contains at least one of the
// required tags. An empty filter matches everything.
func hasAnyTag(cardTags, requiredTags []string) bool {
	if len(requiredTags) == 0 {
		return true
	}
	tagSet := make(map[string]bool, len(cardTags))
	for _, tag := range cardTags {
		tagSet[tag] = true
	}
	for _, tag := range requiredTags {
		if tagSet[tag] {
			return true
		}
	}
	return false
}

// AddReview appends a review event for an existing card.
func (fs *FileStorage) AddReview(cardID string, quality sm2.Quality, at time.Time) (pulse.ReviewEvent, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, exists := fs.store.Cards[cardID]; !exists {
		return pulse.ReviewEvent{}, deck.ErrCardNotFound
	}

	event := pulse.ReviewEvent{
		ID:        uuid.New().String(),
		CardID:    cardID,
		Quality:   quality,
		Timestamp: at,
	}
	fs.store.Reviews = append(fs.store.Reviews, event)
	fs.store.LastUpdated = time.Now()
	return event, nil
}

// ListReviews returns the events for one card in append order.
func (fs *FileStorage) ListReviews(cardID string) ([]pulse.ReviewEvent, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if _, exists := fs.store.Cards[cardID]; !exists {
		return nil, deck.ErrCardNotFound
	}
	return pulse.ForCard(fs.store.Reviews, cardID), nil
}

// AllReviews returns every event in append order.
func (fs *FileStorage) AllReviews() ([]pulse.ReviewEvent, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	out := make([]pulse.ReviewEvent, len(fs.store.Reviews))
	copy(out, fs.store.Reviews)
	return out, nil
}

// Load reads the store from disk, initializing an empty store if the
// file does not exist yet.
func (fs *FileStorage) Load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.filePath)
	if os.IsNotExist(err) {
		fs.store = cardStore{
			Cards:   make(map[string]deck.Card),
			Reviews: []pulse.ReviewEvent{},
		}
		return fs.save()
	}
	if err != nil {
		return fmt.Errorf("failed to read storage file: %w", err)
	}
	if len(data) == 0 {
		fs.store = cardStore{
			Cards:   make(map[string]deck.Card),
			Reviews: []pulse.ReviewEvent{},
		}
		return nil
	}

	var store cardStore
	if err := json.Unmarshal(data, &store); err != nil {
		return fmt.Errorf("failed to unmarshal storage data: %w", err)
	}
	if store.Cards == nil {
		store.Cards = make(map[string]deck.Card)
	}
	if store.Reviews == nil {
		store.Reviews = []pulse.ReviewEvent{}
	}
	fs.store = store
	return nil
}

// Save writes the store to disk atomically.
func (fs *FileStorage) Save() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.save()
}

// save assumes the write lock is held.
func (fs *FileStorage) save() error {
	fs.store.LastUpdated = time.Now()

	data, err := json.MarshalIndent(fs.store, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal storage data: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(fs.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write-then-rename keeps the on-disk document consistent even if
	// the process dies mid-save.
	tempFile := fs.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tempFile, fs.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
