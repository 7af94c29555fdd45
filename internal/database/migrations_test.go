package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := startSnapshotStore(t)

	t.Run("all tables exist", func(t *testing.T) {
		for _, tableName := range engineTables {
			var exists bool
			err := testDB.raw().QueryRow(`
				SELECT EXISTS (
					SELECT FROM information_schema.tables
					WHERE table_schema = 'public'
					AND table_name = $1
				)
			`, tableName).Scan(&exists)

			require.NoError(t, err, "failed to check table existence for %s", tableName)
			assert.True(t, exists, "table %s should exist", tableName)
		}
	})

	t.Run("screen_entries table has correct columns", func(t *testing.T) {
		expectedColumns := map[string]string{
			"id":            "integer",
			"screen_group":  "character varying",
			"snapshot_date": "date",
			"ticker":        "character varying",
			"rank":          "integer",
			"ordinal":       "integer",
			"created_at":    "timestamp without time zone",
		}

		for colName, expectedType := range expectedColumns {
			var actualType string
			err := testDB.raw().QueryRow(`
				SELECT data_type
				FROM information_schema.columns
				WHERE table_name = 'screen_entries' AND column_name = $1
			`, colName).Scan(&actualType)

			require.NoError(t, err, "column %s should exist in screen_entries table", colName)
			assert.Equal(t, expectedType, actualType, "column %s should have type %s", colName, expectedType)
		}
	})

	t.Run("briefs payload is jsonb", func(t *testing.T) {
		var actualType string
		err := testDB.raw().QueryRow(`
			SELECT data_type
			FROM information_schema.columns
			WHERE table_name = 'briefs' AND column_name = 'payload'
		`).Scan(&actualType)
		require.NoError(t, err)
		assert.Equal(t, "jsonb", actualType)
	})

	t.Run("indexes exist", func(t *testing.T) {
		expectedIndexes := []struct {
			table string
			index string
		}{
			{"positions", "idx_positions_ordinal"},
			{"screen_entries", "idx_screen_entries_date"},
			{"screen_entries", "idx_screen_entries_group_date"},
			{"journal_entries", "idx_journal_entries_logged_at"},
			{"journal_entries", "idx_journal_entries_ticker"},
			{"briefs", "idx_briefs_created_at"},
		}

		for _, idx := range expectedIndexes {
			var exists bool
			err := testDB.raw().QueryRow(`
				SELECT EXISTS (
					SELECT FROM pg_indexes
					WHERE tablename = $1 AND indexname = $2
				)
			`, idx.table, idx.index).Scan(&exists)

			require.NoError(t, err)
			assert.True(t, exists, "index %s should exist on table %s", idx.index, idx.table)
		}
	})

	t.Run("unique constraints exist", func(t *testing.T) {
		constraints := map[string]string{
			"positions":      "positions_ticker_key",
			"screen_entries": "screen_entries_group_date_ticker_key",
		}
		for table, name := range constraints {
			var exists bool
			err := testDB.raw().QueryRow(`
				SELECT EXISTS (
					SELECT FROM pg_constraint c
					JOIN pg_class t ON c.conrelid = t.oid
					WHERE t.relname = $1
					AND c.contype = 'u'
					AND c.conname = $2
				)
			`, table, name).Scan(&exists)
			require.NoError(t, err)
			assert.True(t, exists, "%s should have unique constraint %s", table, name)
		}
	})
}
