package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	audit "cetrack/pkg/platform/audit"
)

// Store implements audit.Store on PostgreSQL. Rows are append-only.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, occurred_at, action, entity_id, actor_id, detail, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New(), event.Timestamp, event.Action, event.EntityID,
		event.ActorID, event.Detail, event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByEntity(ctx context.Context, entityID string) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT occurred_at, action, entity_id, actor_id, detail, request_id
		FROM audit_events
		WHERE entity_id = $1
		ORDER BY occurred_at`,
		entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var e audit.Event
		if err := rows.Scan(&e.Timestamp, &e.Action, &e.EntityID, &e.ActorID, &e.Detail, &e.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
