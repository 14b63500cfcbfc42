package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.Len(t, files, 2)

	var all strings.Builder
	for _, file := range files {
		content, err := fs.ReadFile(migrationsFS, file)
		require.NoError(t, err)
		assert.Contains(t, string(content), "-- +goose Up", file)
		assert.Contains(t, string(content), "-- +goose Down", file)
		all.Write(content)
	}

	schema := all.String()
	for _, table := range []string{"users", "purchases", "sales", "history"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
	assert.Contains(t, schema, "UNIQUE (user_id, stock)")
}
