package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseJurisdiction(t *testing.T) {
	t.Run("normalizes case and whitespace", func(t *testing.T) {
		assert.Equal(t, Jurisdiction("CA"), ParseJurisdiction(" ca "))
	})

	t.Run("ALL and empty both map to the aggregate key", func(t *testing.T) {
		assert.Equal(t, JurisdictionAll, ParseJurisdiction("ALL"))
		assert.Equal(t, JurisdictionAll, ParseJurisdiction("all"))
		assert.Equal(t, JurisdictionAll, ParseJurisdiction(""))
	})
}

func TestJurisdictionLabel(t *testing.T) {
	assert.Equal(t, "ALL", JurisdictionAll.Label())
	assert.Equal(t, "CA", Jurisdiction("CA").Label())
	assert.True(t, JurisdictionAll.IsAll())
	assert.False(t, Jurisdiction("CA").IsAll())
}

func TestPeriod(t *testing.T) {
	assert.True(t, Period("").IsZero())
	assert.False(t, Period("2026-Q1").IsZero())
	assert.Equal(t, "2026-Q1", Period("2026-Q1").String())
}
