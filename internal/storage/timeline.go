package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/loanrecon/internal/model"
)

// AddTimelineEvent appends an entry to a loan's history.
func (s *SQLiteStorage) AddTimelineEvent(ctx context.Context, event *model.TimelineEvent) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEvent(event); err != nil {
		return err
	}
	return s.addTimelineEventTx(ctx, s.db, event)
}

func (s *SQLiteStorage) addTimelineEventTx(ctx context.Context, q queryable, event *model.TimelineEvent) error {
	if event.Type == "" {
		event.Type = model.EventInfo
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO timeline_events (loan_id, event, user_name, type, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, event.LoanID, event.Event, event.User, event.Type, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add timeline event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get timeline event id: %w", err)
	}
	event.ID = id
	return nil
}

// GetTimeline returns a loan's history, oldest first.
func (s *SQLiteStorage) GetTimeline(ctx context.Context, loanID int64) ([]model.TimelineEvent, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(loanID, "loan_id"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, loan_id, event, COALESCE(user_name, ''), type, created_at
		FROM timeline_events
		WHERE loan_id = ?
		ORDER BY created_at, id
	`, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query timeline: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.TimelineEvent
	for rows.Next() {
		var e model.TimelineEvent
		if err := rows.Scan(&e.ID, &e.LoanID, &e.Event, &e.User, &e.Type, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan timeline event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
