package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	s, err := GetDB(WithTesting(true))
	require.NoError(t, err)

	assert.NotEmpty(t, s)
	assert.NoError(t, s.Ping())
}

func TestSchemaExists(t *testing.T) {
	s, err := GetDB(WithTesting(true))
	require.NoError(t, err)

	for _, table := range []string{"ad_accounts", "sync_runs"} {
		var name string
		err := s.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).
			Scan(&name)
		assert.NoError(t, err, "table %s should exist", table)
	}
}
