// Package learn keeps the bridge-owned record of accepted candidates: the
// feedback half of the learning contract. The engine's personalization
// model is opaque; this ledger lives in the learning-memory directory the
// bridge sets up at initialization and is the only local state learning
// produces.
package learn

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS accepted (
    word       TEXT NOT NULL,
    reading    TEXT NOT NULL,
    hits       INTEGER NOT NULL DEFAULT 0,
    last_used  INTEGER NOT NULL,
    PRIMARY KEY (word, reading)
);

CREATE INDEX IF NOT EXISTS idx_accepted_last_used ON accepted(last_used);
`

// History is the accepted-candidate ledger.
type History struct {
	db *sql.DB
}

// Open creates the learning-memory directory if needed and opens the ledger
// inside it.
func Open(dir string) (*History, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create learning directory: %w", err)
	}
	path := filepath.Join(dir, "learning.db")
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open learning database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &History{db: db}, nil
}

// Record notes one accepted candidate.
func (h *History) Record(word, reading string, at time.Time) error {
	_, err := h.db.Exec(`
INSERT INTO accepted (word, reading, hits, last_used) VALUES (?, ?, 1, ?)
ON CONFLICT(word, reading) DO UPDATE SET hits = hits + 1, last_used = excluded.last_used`,
		word, reading, at.Unix())
	if err != nil {
		return fmt.Errorf("record acceptance: %w", err)
	}
	return nil
}

// Hits returns how often a word has been accepted for a reading.
func (h *History) Hits(word, reading string) (int, error) {
	var hits int
	err := h.db.QueryRow(
		`SELECT hits FROM accepted WHERE word = ? AND reading = ?`,
		word, reading).Scan(&hits)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query hits: %w", err)
	}
	return hits, nil
}

// Reset discards the entire ledger.
func (h *History) Reset() error {
	if _, err := h.db.Exec(`DELETE FROM accepted`); err != nil {
		return fmt.Errorf("reset learning history: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (h *History) Close() error {
	return h.db.Close()
}
