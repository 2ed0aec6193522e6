// Package history keeps the archive of finished games.
package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"scorepad/internal/game"
	"scorepad/internal/storage"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("history entry not found")

// Entry is one finished game. Entries are never modified after Append.
type Entry struct {
	ID          string         `json:"id"`
	Winner      string         `json:"winner"`
	WinnerScore int            `json:"winner_score"`
	Date        int64          `json:"date"` // unix milliseconds
	ImagePath   string         `json:"image_path,omitempty"`
	GameName    string         `json:"game_name,omitempty"`
	Players     []*game.Player `json:"players"`
	Config      *game.Config   `json:"config,omitempty"`
}

// Loser returns the player with the highest score in e, the one shown as
// having lost on the results screen. Ties go to the player listed first.
func (e Entry) Loser() *game.Player {
	var loser *game.Player
	for _, p := range e.Players {
		if loser == nil || p.Score() > loser.Score() {
			loser = p
		}
	}
	return loser
}

// required is decoded first so an entry missing winner or date is
// recognised even when the rest of it would not decode.
type required struct {
	Winner *string `json:"winner"`
	Date   *int64  `json:"date"`
}

// Store is the append-only archive.
type Store struct {
	store  *storage.Store
	logger *log.Logger
}

// New creates a history store on top of s.
func New(s *storage.Store, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{store: s, logger: logger}
}

// Append adds e after every existing entry. An empty ID is replaced with
// a fresh UUID; the stored entry is returned.
func (h *Store) Append(e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal history entry: %w", err)
	}
	if err := h.store.AppendHistory(e.ID, string(data)); err != nil {
		return Entry{}, fmt.Errorf("persist history entry: %w", err)
	}
	return e, nil
}

// List returns entries newest first. Entries that are unreadable or lack
// a winner or date are skipped.
func (h *Store) List() ([]Entry, error) {
	rows, err := h.store.ListHistory()
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	entries := make([]Entry, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		e, err := decodeEntry(rows[i])
		if err != nil {
			h.logger.Printf("skipping history entry %s: %v", rows[i].ID, err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Get returns a single entry.
func (h *Store) Get(id string) (Entry, error) {
	row, err := h.store.GetHistory(id)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get history entry: %w", err)
	}
	return decodeEntry(*row)
}

// RemoveMostRecent drops the last appended entry. It reports false when
// the archive was already empty.
func (h *Store) RemoveMostRecent() (bool, error) {
	removed, err := h.store.DeleteLastHistory()
	if err != nil {
		return false, fmt.Errorf("remove history entry: %w", err)
	}
	return removed, nil
}

func decodeEntry(row storage.HistoryRow) (Entry, error) {
	var req required
	if err := json.Unmarshal([]byte(row.EntryJSON), &req); err != nil {
		return Entry{}, fmt.Errorf("decode entry: %w", err)
	}
	if req.Winner == nil || req.Date == nil {
		return Entry{}, fmt.Errorf("decode entry: missing winner or date")
	}
	var e Entry
	if err := json.Unmarshal([]byte(row.EntryJSON), &e); err != nil {
		return Entry{}, fmt.Errorf("decode entry: %w", err)
	}
	if e.ID == "" {
		e.ID = row.ID
	}
	return e, nil
}
