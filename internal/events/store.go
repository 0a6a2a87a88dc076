package events

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/phototag/pkg/repository"
)

// Entry is a persisted audit record.
type Entry struct {
	ID           uuid.UUID `json:"id"`
	LoggedAt     time.Time `json:"logged_at"`
	PhotoID      uuid.UUID `json:"photo_id"`
	Kind         Kind      `json:"event_kind"`
	Tier         *string   `json:"tier_used"`
	ErrorMessage *string   `json:"error_message"`
	DurationMS   *int64    `json:"duration_ms"`
	Confidence   *float64  `json:"confidence"`
}

// Store writes durable events to classification_logs and reads them back.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore creates the durable event sink.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With("system", "events", "sink", "store"),
	}
}

// Record inserts success, error, and fallback events. Attempts are skipped.
// Insert failures are logged and dropped.
func (s *Store) Record(ctx context.Context, e Event) {
	if !e.Kind.Durable() {
		return
	}
	e = stamp(e)

	const insertQ = `
		INSERT INTO classification_logs (
			logged_at, photo_id, event_kind, tier_used, error_message, duration_ms, confidence
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	var duration *int64
	if e.Duration > 0 {
		ms := e.Duration.Milliseconds()
		duration = &ms
	}

	_, err := s.db.ExecContext(ctx, insertQ,
		e.Timestamp,
		e.PhotoID,
		string(e.Kind),
		nullString(e.Tier),
		nullString(e.Message),
		duration,
		e.Confidence,
	)
	if err != nil {
		s.logger.Warn("event log write failed",
			"photo_id", e.PhotoID,
			"kind", e.Kind,
			"error", err,
		)
	}
}

// Recent returns up to limit audit entries for a photo, newest first.
func (s *Store) Recent(ctx context.Context, photoID uuid.UUID, limit int) ([]Entry, error) {
	if limit < 1 {
		limit = 20
	}

	const recentQ = `
		SELECT id, logged_at, photo_id, event_kind, tier_used, error_message, duration_ms, confidence
		FROM classification_logs
		WHERE photo_id = $1
		ORDER BY logged_at DESC, id
		LIMIT $2`

	entries, err := repository.QueryMany(ctx, s.db, recentQ, []any{photoID, limit}, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query classification logs: %w", err)
	}
	return entries, nil
}

func scanEntry(s repository.Scanner) (Entry, error) {
	var e Entry
	err := s.Scan(
		&e.ID,
		&e.LoggedAt,
		&e.PhotoID,
		&e.Kind,
		&e.Tier,
		&e.ErrorMessage,
		&e.DurationMS,
		&e.Confidence,
	)
	return e, err
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
