// Package storage persists match results and the standing high score
// in a local SQLite database.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store handles SQLite operations for match history and the high score.
type Store struct {
	db *sql.DB
}

// Result is one finished match.
type Result struct {
	ID         int64     `json:"id"`
	EndedAt    time.Time `json:"ended_at"`
	Level      int       `json:"level"`
	ScoreOne   int       `json:"score_one"`
	ScoreTwo   int       `json:"score_two"`
	Combined   int       `json:"combined"`
	TotalTicks uint64    `json:"total_ticks"`
	Seed       int64     `json:"seed"`
}

// Open creates a Store backed by the database at the given path,
// creating the schema when missing.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS high_score (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		score INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO high_score (id, score) VALUES (1, 0);

	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ended_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		level INTEGER NOT NULL,
		score_one INTEGER NOT NULL,
		score_two INTEGER NOT NULL,
		combined INTEGER NOT NULL,
		total_ticks INTEGER NOT NULL DEFAULT 0,
		seed INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_matches_combined ON matches(combined DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the standing high score.
func (s *Store) Load() (int, error) {
	var score int
	err := s.db.QueryRow(`SELECT score FROM high_score WHERE id = 1`).Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("load high score: %w", err)
	}
	return score, nil
}

// Save records a new high score. Scores below the standing record are
// rejected by the guard clause in the query, so concurrent writers
// cannot regress it.
func (s *Store) Save(score int) error {
	_, err := s.db.Exec(
		`UPDATE high_score SET score = ?, updated_at = ? WHERE id = 1 AND score < ?`,
		score, time.Now().UTC(), score,
	)
	if err != nil {
		return fmt.Errorf("save high score: %w", err)
	}
	return nil
}

// RecordMatch appends one finished match to the history.
func (s *Store) RecordMatch(r Result) error {
	_, err := s.db.Exec(
		`INSERT INTO matches (ended_at, level, score_one, score_two, combined, total_ticks, seed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC(), r.Level, r.ScoreOne, r.ScoreTwo, r.ScoreOne+r.ScoreTwo, r.TotalTicks, r.Seed,
	)
	if err != nil {
		return fmt.Errorf("record match: %w", err)
	}
	return nil
}

// RecentMatches returns the most recent finished matches.
func (s *Store) RecentMatches(limit int) ([]Result, error) {
	rows, err := s.db.Query(
		`SELECT id, ended_at, level, score_one, score_two, combined, total_ticks, seed
		 FROM matches ORDER BY ended_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent matches: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.EndedAt, &r.Level, &r.ScoreOne, &r.ScoreTwo,
			&r.Combined, &r.TotalTicks, &r.Seed); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
