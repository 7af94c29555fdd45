package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// engineTables lists every table the migrations create, children first
var engineTables = []string{"roi_history", "briefs", "journal_entries", "screen_entries", "positions"}

// snapshotStore is a migrated engine database in a throwaway postgres
// container. It is torn down by t.Cleanup
type snapshotStore struct {
	*DB
}

func startSnapshotStore(t *testing.T) *snapshotStore {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("foxvalley"),
		tcpostgres.WithUsername("foxvalley"),
		tcpostgres.WithPassword("foxvalley"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start snapshot store: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Errorf("failed to stop snapshot store: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to read snapshot store address: %v", err)
	}

	db, err := New(dsn)
	if err != nil {
		t.Fatalf("failed to connect to snapshot store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(migrationsDir()); err != nil {
		t.Fatalf("failed to migrate snapshot store: %v", err)
	}
	return &snapshotStore{DB: db}
}

// migrationsDir resolves db/migrations from this file so tests run from any cwd
func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "db", "migrations")
}

// reset empties every engine table between subtests
func (s *snapshotStore) reset(t *testing.T) {
	t.Helper()
	if _, err := s.conn.Exec("TRUNCATE TABLE " + strings.Join(engineTables, ", ") + " CASCADE"); err != nil {
		t.Fatalf("failed to reset snapshot store: %v", err)
	}
}

func (s *snapshotStore) raw() *sql.DB {
	return s.conn
}
