package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cetrack/internal/member/models"
	id "cetrack/pkg/domain"
)

func newRow(credentialID id.CredentialID, jurisdiction id.Jurisdiction, hours float64) *models.UserCredential {
	return &models.UserCredential{
		UserID:       id.UserID(uuid.New()),
		CredentialID: credentialID,
		FirmID:       id.FirmID(uuid.New()),
		Jurisdiction: jurisdiction,
		TotalHours:   hours,
		UpdatedAt:    time.Now(),
	}
}

func TestUpsertReplacesByNaturalKey(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryUserCredentialStore()
	row := newRow(id.CredentialID(uuid.New()), "CA", 10)
	require.NoError(t, store.Upsert(ctx, row))

	row.TotalHours = 25
	require.NoError(t, store.Upsert(ctx, row))

	got, err := store.FindByUserAndCredential(ctx, row.UserID, row.CredentialID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 25.0, got.TotalHours)

	rows, err := store.ListByCredential(ctx, row.CredentialID, id.JurisdictionAll)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestListByCredentialScopesJurisdiction(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryUserCredentialStore()
	credentialID := id.CredentialID(uuid.New())
	require.NoError(t, store.Upsert(ctx, newRow(credentialID, "CA", 10)))
	require.NoError(t, store.Upsert(ctx, newRow(credentialID, "CA", 20)))
	require.NoError(t, store.Upsert(ctx, newRow(credentialID, "NY", 30)))
	require.NoError(t, store.Upsert(ctx, newRow(id.CredentialID(uuid.New()), "CA", 40)))

	ca, err := store.ListByCredential(ctx, credentialID, "CA")
	require.NoError(t, err)
	assert.Len(t, ca, 2)

	all, err := store.ListByCredential(ctx, credentialID, id.JurisdictionAll)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFindByUserAndCredentialMissingIsNil(t *testing.T) {
	store := NewInMemoryUserCredentialStore()
	got, err := store.FindByUserAndCredential(context.Background(),
		id.UserID(uuid.New()), id.CredentialID(uuid.New()))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListCredentialJurisdictionsIsDistinct(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryUserCredentialStore()
	credentialID := id.CredentialID(uuid.New())
	require.NoError(t, store.Upsert(ctx, newRow(credentialID, "CA", 10)))
	require.NoError(t, store.Upsert(ctx, newRow(credentialID, "CA", 20)))
	require.NoError(t, store.Upsert(ctx, newRow(credentialID, "NY", 30)))

	jurisdictions, err := store.ListCredentialJurisdictions(ctx, credentialID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []id.Jurisdiction{"CA", "NY"}, jurisdictions)
}

func TestListByFirm(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryUserCredentialStore()
	firmID := id.FirmID(uuid.New())
	credentialID := id.CredentialID(uuid.New())

	inFirm := newRow(credentialID, "CA", 10)
	inFirm.FirmID = firmID
	require.NoError(t, store.Upsert(ctx, inFirm))
	require.NoError(t, store.Upsert(ctx, newRow(credentialID, "CA", 20)))

	rows, err := store.ListByFirm(ctx, firmID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, inFirm.UserID, rows[0].UserID)
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryUserCredentialStore()
	row := newRow(id.CredentialID(uuid.New()), "CA", 10)
	require.NoError(t, store.Upsert(ctx, row))

	got, err := store.FindByUserAndCredential(ctx, row.UserID, row.CredentialID)
	require.NoError(t, err)
	got.TotalHours = 999

	again, err := store.FindByUserAndCredential(ctx, row.UserID, row.CredentialID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, again.TotalHours)
}
