package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cetrack/internal/member/models"
	id "cetrack/pkg/domain"
)

// PostgresUserCredentialStore persists enrollments in PostgreSQL.
type PostgresUserCredentialStore struct {
	db *sql.DB
}

func NewPostgresUserCredentialStore(db *sql.DB) *PostgresUserCredentialStore {
	return &PostgresUserCredentialStore{db: db}
}

const userCredentialColumns = `user_id, credential_id, firm_id, jurisdiction,
	total_hours, ethics_hours, structured_hours, renewal_deadline, last_activity_at, updated_at`

func (s *PostgresUserCredentialStore) Upsert(ctx context.Context, uc *models.UserCredential) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_credentials (`+userCredentialColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, credential_id, jurisdiction) DO UPDATE SET
			firm_id = EXCLUDED.firm_id,
			total_hours = EXCLUDED.total_hours,
			ethics_hours = EXCLUDED.ethics_hours,
			structured_hours = EXCLUDED.structured_hours,
			renewal_deadline = EXCLUDED.renewal_deadline,
			last_activity_at = EXCLUDED.last_activity_at,
			updated_at = EXCLUDED.updated_at`,
		uuid.UUID(uc.UserID), uuid.UUID(uc.CredentialID), uuid.UUID(uc.FirmID),
		uc.Jurisdiction.String(), uc.TotalHours, uc.EthicsHours, uc.StructuredHours,
		nullTime(uc.RenewalDeadline), nullTime(uc.LastActivityAt), uc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert user credential: %w", err)
	}
	return nil
}

func (s *PostgresUserCredentialStore) ListByCredential(ctx context.Context, credentialID id.CredentialID, jurisdiction id.Jurisdiction) ([]*models.UserCredential, error) {
	query := `SELECT ` + userCredentialColumns + ` FROM user_credentials WHERE credential_id = $1`
	args := []any{uuid.UUID(credentialID)}
	if !jurisdiction.IsAll() {
		query += ` AND jurisdiction = $2`
		args = append(args, jurisdiction.String())
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list user credentials: %w", err)
	}
	defer rows.Close()
	return collectUserCredentials(rows)
}

func (s *PostgresUserCredentialStore) FindByUserAndCredential(ctx context.Context, userID id.UserID, credentialID id.CredentialID) (*models.UserCredential, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userCredentialColumns+` FROM user_credentials WHERE user_id = $1 AND credential_id = $2 LIMIT 1`,
		uuid.UUID(userID), uuid.UUID(credentialID),
	)
	if err != nil {
		return nil, fmt.Errorf("find user credential: %w", err)
	}
	defer rows.Close()
	list, err := collectUserCredentials(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *PostgresUserCredentialStore) ListCredentialJurisdictions(ctx context.Context, credentialID id.CredentialID) ([]id.Jurisdiction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT jurisdiction FROM user_credentials WHERE credential_id = $1`,
		uuid.UUID(credentialID),
	)
	if err != nil {
		return nil, fmt.Errorf("list jurisdictions: %w", err)
	}
	defer rows.Close()

	var out []id.Jurisdiction
	for rows.Next() {
		var j string
		if err := rows.Scan(&j); err != nil {
			return nil, fmt.Errorf("scan jurisdiction: %w", err)
		}
		out = append(out, id.Jurisdiction(j))
	}
	return out, rows.Err()
}

func (s *PostgresUserCredentialStore) ListByFirm(ctx context.Context, firmID id.FirmID) ([]*models.UserCredential, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userCredentialColumns+` FROM user_credentials WHERE firm_id = $1`,
		uuid.UUID(firmID),
	)
	if err != nil {
		return nil, fmt.Errorf("list firm credentials: %w", err)
	}
	defer rows.Close()
	return collectUserCredentials(rows)
}

func collectUserCredentials(rows *sql.Rows) ([]*models.UserCredential, error) {
	var out []*models.UserCredential
	for rows.Next() {
		var (
			uc           models.UserCredential
			rawUser      uuid.UUID
			rawCred      uuid.UUID
			rawFirm      uuid.UUID
			jurisdiction string
			deadline     sql.NullTime
			lastActivity sql.NullTime
		)
		if err := rows.Scan(&rawUser, &rawCred, &rawFirm, &jurisdiction,
			&uc.TotalHours, &uc.EthicsHours, &uc.StructuredHours,
			&deadline, &lastActivity, &uc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user credential: %w", err)
		}
		uc.UserID = id.UserID(rawUser)
		uc.CredentialID = id.CredentialID(rawCred)
		uc.FirmID = id.FirmID(rawFirm)
		uc.Jurisdiction = id.Jurisdiction(jurisdiction)
		if deadline.Valid {
			t := deadline.Time.UTC()
			uc.RenewalDeadline = &t
		}
		if lastActivity.Valid {
			t := lastActivity.Time.UTC()
			uc.LastActivityAt = &t
		}
		out = append(out, &uc)
	}
	return out, rows.Err()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
