//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// schema is applied once when the container starts. Kept in lockstep with
// the store queries; integration suites fail fast if they drift.
const schema = `
CREATE TABLE IF NOT EXISTS credentials (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	defaults JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS rule_packs (
	id UUID PRIMARY KEY,
	credential_id UUID NOT NULL REFERENCES credentials(id),
	name TEXT NOT NULL,
	version INT NOT NULL,
	effective_from DATE NOT NULL,
	effective_to DATE,
	rules JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (credential_id, version)
);

CREATE TABLE IF NOT EXISTS user_credentials (
	user_id UUID NOT NULL,
	credential_id UUID NOT NULL,
	firm_id UUID NOT NULL,
	jurisdiction TEXT NOT NULL DEFAULT '',
	total_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
	ethics_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
	structured_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
	renewal_deadline TIMESTAMPTZ,
	last_activity_at TIMESTAMPTZ,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, credential_id, jurisdiction)
);

CREATE INDEX IF NOT EXISTS idx_user_credentials_firm ON user_credentials (firm_id);
CREATE INDEX IF NOT EXISTS idx_user_credentials_credential ON user_credentials (credential_id);

CREATE TABLE IF NOT EXISTS benchmark_snapshots (
	credential_id UUID NOT NULL,
	period TEXT NOT NULL,
	jurisdiction TEXT NOT NULL DEFAULT '',
	total_peers INT NOT NULL,
	avg_hours DOUBLE PRECISION,
	median_hours DOUBLE PRECISION,
	p25 DOUBLE PRECISION,
	p75 DOUBLE PRECISION,
	p90 DOUBLE PRECISION,
	avg_ethics_hours DOUBLE PRECISION,
	avg_structured_hours DOUBLE PRECISION,
	generated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (credential_id, period, jurisdiction)
);

CREATE TABLE IF NOT EXISTS audit_events (
	id UUID PRIMARY KEY,
	occurred_at TIMESTAMPTZ NOT NULL,
	action TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	actor_id TEXT NOT NULL DEFAULT '',
	detail TEXT NOT NULL DEFAULT '',
	request_id TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_audit_events_entity ON audit_events (entity_id, occurred_at);
`

// PostgresContainer wraps a testcontainers Postgres instance with the schema
// applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sql.DB
	DSN       string
}

// NewPostgresContainer starts a new Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("cetrack_test"),
		tcpostgres.WithUsername("cetrack"),
		tcpostgres.WithPassword("cetrack"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres: %v", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	// Shared across suites; Ryuk handles cleanup, so no t.Cleanup here.
	return &PostgresContainer{
		Container: container,
		DB:        db,
		DSN:       dsn,
	}
}

// TruncateTables empties the given tables. Use between tests for isolation;
// pass tables in dependency order or rely on CASCADE.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx,
		fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", ")),
	)
	return err
}
