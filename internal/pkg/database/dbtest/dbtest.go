// Package dbtest provides a migrated Postgres database for integration tests.
package dbtest

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/sharespace/sharespace-api/internal/pkg/database"
)

var (
	once      sync.Once
	sharedDSN string
	setupErr  error
)

// New returns a connection to a migrated test database. TEST_DATABASE_URL
// points the tests at an existing database; otherwise a postgres:16
// container is started once per test binary. Tests are skipped when neither
// is available.
func New(t *testing.T) *sqlx.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	if os.Getenv("TEST_DATABASE_URL") == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)
	}

	once.Do(func() {
		sharedDSN, setupErr = startDatabase()
	})
	if setupErr != nil {
		t.Skipf("postgres not available: %v", setupErr)
	}

	db, err := sqlx.Connect("postgres", sharedDSN)
	if err != nil {
		t.Skipf("postgres not reachable: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

func startDatabase() (string, error) {
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		return dsn, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pgC, err := postgres.Run(ctx,
		"postgres:16",
		postgres.WithDatabase("sharespace_test"),
		postgres.WithUsername("sharespace"),
		postgres.WithPassword("sharespace"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return "", err
	}

	return pgC.ConnectionString(ctx, "sslmode=disable")
}

// Truncate empties the given tables between tests.
func Truncate(t *testing.T, db *sqlx.DB, tables ...string) {
	t.Helper()
	for _, table := range tables {
		if _, err := db.Exec("TRUNCATE TABLE " + table + " CASCADE"); err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
}
