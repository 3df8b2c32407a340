// Package pgtest provides Postgres connections for integration tests.
//
// PG_DSN points the tests at an existing database. Setting
// MEDIBILL_EMBEDDED_PG=1 starts a throwaway embedded Postgres instead.
// With neither set, tests are skipped.
package pgtest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/rs/zerolog"

	"medibill-ai/internal/db"
)

const (
	testDB       = "medibilltest"
	testUser     = "postgres"
	testPassword = "postgres"
)

// Open returns a migrated database for the test, or skips it.
func Open(t *testing.T, port uint32) *sql.DB {
	t.Helper()

	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		if os.Getenv("MEDIBILL_EMBEDDED_PG") != "1" {
			t.Skip("PG_DSN not set")
		}
		dsn = startEmbedded(t, port)
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := db.ApplyMigrations(ctx, conn, zerolog.Nop()); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return conn
}

func startEmbedded(t *testing.T, port uint32) string {
	t.Helper()
	pg := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(port).
			Database(testDB).
			Username(testUser).
			Password(testPassword).
			Version(embeddedpostgres.V16).
			RuntimePath(t.TempDir()).
			StartTimeout(30 * time.Second),
	)
	if err := pg.Start(); err != nil {
		t.Fatalf("start embedded postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := pg.Stop(); err != nil {
			t.Logf("stop embedded postgres: %v", err)
		}
	})
	return fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable", testUser, testPassword, port, testDB)
}
