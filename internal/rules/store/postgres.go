package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cetrack/internal/rules/models"
	id "cetrack/pkg/domain"
	"cetrack/pkg/platform/sentinel"
)

// PostgresCredentialStore persists credential definitions in PostgreSQL.
// The default rule set is stored as a JSONB payload alongside the row.
type PostgresCredentialStore struct {
	db *sql.DB
}

func NewPostgresCredentialStore(db *sql.DB) *PostgresCredentialStore {
	return &PostgresCredentialStore{db: db}
}

func (s *PostgresCredentialStore) FindByID(ctx context.Context, credentialID id.CredentialID) (*models.Credential, error) {
	var (
		c        models.Credential
		rawID    uuid.UUID
		defaults []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, defaults FROM credentials WHERE id = $1`,
		uuid.UUID(credentialID),
	).Scan(&rawID, &c.Name, &defaults)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	c.ID = id.CredentialID(rawID)
	if err := json.Unmarshal(defaults, &c.Defaults); err != nil {
		return nil, fmt.Errorf("decode credential defaults: %w", err)
	}
	return &c, nil
}

func (s *PostgresCredentialStore) Create(ctx context.Context, credential *models.Credential) error {
	defaults, err := json.Marshal(credential.Defaults)
	if err != nil {
		return fmt.Errorf("encode credential defaults: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO credentials (id, name, defaults) VALUES ($1, $2, $3)`,
		uuid.UUID(credential.ID), credential.Name, defaults,
	)
	if err != nil {
		return fmt.Errorf("create credential: %w", err)
	}
	return nil
}

func (s *PostgresCredentialStore) ListIDs(ctx context.Context) ([]id.CredentialID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM credentials`)
	if err != nil {
		return nil, fmt.Errorf("list credential ids: %w", err)
	}
	defer rows.Close()

	var ids []id.CredentialID
	for rows.Next() {
		var raw uuid.UUID
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan credential id: %w", err)
		}
		ids = append(ids, id.CredentialID(raw))
	}
	return ids, rows.Err()
}

// PostgresRulePackStore persists rule packs in PostgreSQL.
type PostgresRulePackStore struct {
	db *sql.DB
}

func NewPostgresRulePackStore(db *sql.DB) *PostgresRulePackStore {
	return &PostgresRulePackStore{db: db}
}

func (s *PostgresRulePackStore) ListByCredential(ctx context.Context, credentialID id.CredentialID, startedBy time.Time) ([]*models.RulePack, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, credential_id, name, version, effective_from, effective_to, rules, created_at
		FROM rule_packs
		WHERE credential_id = $1 AND effective_from <= $2
		ORDER BY effective_from DESC, version DESC`,
		uuid.UUID(credentialID), startedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("list rule packs: %w", err)
	}
	defer rows.Close()

	var packs []*models.RulePack
	for rows.Next() {
		pack, err := scanRulePack(rows)
		if err != nil {
			return nil, err
		}
		packs = append(packs, pack)
	}
	return packs, rows.Err()
}

func (s *PostgresRulePackStore) Create(ctx context.Context, pack *models.RulePack) error {
	rules, err := json.Marshal(pack.Rules)
	if err != nil {
		return fmt.Errorf("encode rule payload: %w", err)
	}
	var effectiveTo sql.NullTime
	if pack.EffectiveTo != nil {
		effectiveTo = sql.NullTime{Time: *pack.EffectiveTo, Valid: true}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rule_packs (id, credential_id, name, version, effective_from, effective_to, rules, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(pack.ID), uuid.UUID(pack.CredentialID), pack.Name, pack.Version,
		pack.EffectiveFrom, effectiveTo, rules, pack.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create rule pack: %w", err)
	}
	return nil
}

func (s *PostgresRulePackStore) CloseEffectiveTo(ctx context.Context, packID id.RulePackID, effectiveTo time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE rule_packs SET effective_to = $2 WHERE id = $1`,
		uuid.UUID(packID), effectiveTo,
	)
	if err != nil {
		return fmt.Errorf("close rule pack window: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("close rule pack window: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanRulePack(rows *sql.Rows) (*models.RulePack, error) {
	var (
		pack        models.RulePack
		rawID       uuid.UUID
		rawCred     uuid.UUID
		effectiveTo sql.NullTime
		rules       []byte
	)
	if err := rows.Scan(&rawID, &rawCred, &pack.Name, &pack.Version,
		&pack.EffectiveFrom, &effectiveTo, &rules, &pack.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan rule pack: %w", err)
	}
	pack.ID = id.RulePackID(rawID)
	pack.CredentialID = id.CredentialID(rawCred)
	if effectiveTo.Valid {
		to := effectiveTo.Time.UTC()
		pack.EffectiveTo = &to
	}
	pack.EffectiveFrom = pack.EffectiveFrom.UTC()
	if err := json.Unmarshal(rules, &pack.Rules); err != nil {
		return nil, fmt.Errorf("decode rule payload: %w", err)
	}
	return &pack, nil
}
