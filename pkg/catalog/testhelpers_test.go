package catalog

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"
)

// requirePostgres returns a connection to TENANTGATE_TEST_POSTGRES or skips the test
func requirePostgres(t *testing.T) *sql.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}

	dsn := os.Getenv("TENANTGATE_TEST_POSTGRES")
	if dsn == "" {
		t.Skip("Skipping test: TENANTGATE_TEST_POSTGRES environment variable not set (database not available)")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Skipf("Failed to connect to database: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("Database not reachable: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}
