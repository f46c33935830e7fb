package audit

import (
	"context"
	"time"
)

// Event is emitted from domain logic to capture administrative actions with
// compliance significance. Keep it transport-agnostic so stores and sinks
// can fan out.
type Event struct {
	Timestamp time.Time
	Action    string
	// EntityID names the entity the event concerns (credential, rule pack,
	// or firm identifier as a string, to support multiple ID schemes).
	EntityID string
	// ActorID tracks the administrator who performed the action, when known.
	ActorID string
	Detail  string
	// RequestID correlates the event with the HTTP request or batch run.
	RequestID string
}

// AuditEvent enumerates the actions the tracker records.
type AuditEvent string

const (
	EventRulePackPublished  AuditEvent = "rule_pack_published"
	EventRulePackSuperseded AuditEvent = "rule_pack_superseded"
	EventSnapshotGenerated  AuditEvent = "snapshot_generated"
	EventSnapshotBatchRun   AuditEvent = "snapshot_batch_run"
)

// Store is the persistence contract for audit events. Append-only: events
// are never updated or deleted (regulatory retention is a deployment
// concern handled outside the application).
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByEntity(ctx context.Context, entityID string) ([]Event, error)
}
