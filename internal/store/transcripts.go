package store

import (
	"context"
	"fmt"
	"time"

	"github.com/davefmurray/gmail-slack-bot/internal/domain"
	"github.com/google/uuid"
)

// TranscriptStore records completed turns for audit and history.
type TranscriptStore struct {
	db *DB
}

// NewTranscriptStore creates a transcript store using the given database.
func NewTranscriptStore(db *DB) *TranscriptStore {
	return &TranscriptStore{db: db}
}

// RecordTurn persists one completed turn. A missing ID or timestamp is
// filled in.
func (s *TranscriptStore) RecordTurn(ctx context.Context, t domain.Transcript) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO transcripts (id, user_id, channel, thread, prompt, reply, model, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Channel, t.Thread, t.Prompt, t.Reply, t.Model,
		t.Duration.Milliseconds(), t.CreatedAt.UTC().Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("insert transcript: %w", err)
	}
	return nil
}

// ListRecent returns a user's most recent turns, newest first.
func (s *TranscriptStore) ListRecent(ctx context.Context, userID string, limit int) ([]domain.Transcript, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT id, user_id, channel, thread, prompt, reply, model, duration_ms, created_at
		 FROM transcripts WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query transcripts: %w", err)
	}
	defer rows.Close()

	var out []domain.Transcript
	for rows.Next() {
		var t domain.Transcript
		var durationMS int64
		var createdAt string
		if err := rows.Scan(&t.ID, &t.UserID, &t.Channel, &t.Thread, &t.Prompt,
			&t.Reply, &t.Model, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transcript: %w", err)
		}
		t.Duration = time.Duration(durationMS) * time.Millisecond
		t.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountForUser returns the number of recorded turns for a user.
func (s *TranscriptStore) CountForUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.sql.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transcripts WHERE user_id = ?", userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transcripts: %w", err)
	}
	return n, nil
}
