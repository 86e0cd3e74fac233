package history

import (
	"context"
	"fmt"
	"time"

	"github.com/Jonnydevp/FitPose/internal/database"
)

const DefaultLimit = 10

// Entry is one finished analysis attempt.
type Entry struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"-"`
	Exercise     string    `json:"exercise"`
	FileName     string    `json:"fileName"`
	FileSize     int64     `json:"fileSize"`
	Status       string    `json:"status"`
	ErrorKind    string    `json:"errorKind,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	OverallScore *float64  `json:"overallScore,omitempty"`
	Browser      string    `json:"browser,omitempty"`
	OS           string    `json:"os,omitempty"`
	Country      string    `json:"country,omitempty"`
	IPHash       string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Store struct {
	db database.DBTX
}

func NewStore(db database.DBTX) *Store {
	return &Store{db: db}
}

func (s *Store) Record(ctx context.Context, e Entry) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO analyses (id, session_id, exercise, file_name, file_size, status, error_kind, error_message, overall_score, browser, os, country, ip_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 ON CONFLICT (id) DO NOTHING`,
		e.ID, e.SessionID, e.Exercise, e.FileName, e.FileSize, e.Status, e.ErrorKind, e.ErrorMessage,
		e.OverallScore, e.Browser, e.OS, e.Country, e.IPHash, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert analysis %s: %w", e.ID, err)
	}
	return nil
}

// ListForSession returns the session's most recent entries, newest first.
func (s *Store) ListForSession(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, exercise, file_name, file_size, status, error_kind, error_message, overall_score, browser, os, country, created_at
		 FROM analyses
		 WHERE session_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		e := Entry{SessionID: sessionID}
		if err := rows.Scan(&e.ID, &e.Exercise, &e.FileName, &e.FileSize, &e.Status, &e.ErrorKind, &e.ErrorMessage,
			&e.OverallScore, &e.Browser, &e.OS, &e.Country, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read analyses: %w", err)
	}
	return entries, nil
}
