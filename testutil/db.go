// Package testutil provides shared helpers for integration tests.
// Helpers skip the calling test when TEST_DATABASE_URL is not set, so unit
// tests run without a database.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/pkordes/eld-logbook/migrations"
)

// DSNEnv names the environment variable integration tests read.
const DSNEnv = "TEST_DATABASE_URL"

// NewPool opens a *pgxpool.Pool against TEST_DATABASE_URL and closes it when
// the test finishes.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), requireDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewPool: open pool: %v", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		t.Fatalf("testutil.NewPool: ping: %v", err)
	}

	t.Cleanup(pool.Close)
	return pool
}

// NewTx begins a transaction that is rolled back when the test finishes.
// Repos built on it see their own writes and leave nothing behind.
func NewTx(t *testing.T) pgx.Tx {
	t.Helper()
	pool := NewPool(t)

	tx, err := pool.Begin(context.Background())
	if err != nil {
		t.Fatalf("testutil.NewTx: begin: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })
	return tx
}

// NewSQLDB opens a *sql.DB through the pgx database/sql driver, for goose.
// The connection is closed when the test finishes.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := openSQLDB(requireDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewSQLDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// MigrateForTestMain applies all migrations when TEST_DATABASE_URL is set and
// does nothing otherwise. It panics on failure since TestMain has no
// *testing.T to report through.
func MigrateForTestMain() {
	dsn := os.Getenv(DSNEnv)
	if dsn == "" {
		return
	}

	db, err := openSQLDB(dsn)
	if err != nil {
		panic("testutil.MigrateForTestMain: " + err.Error())
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		panic("testutil.MigrateForTestMain: goose provider: " + err.Error())
	}
	if _, err := provider.Up(context.Background()); err != nil {
		panic("testutil.MigrateForTestMain: up: " + err.Error())
	}
}

func openSQLDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// requireDSN returns TEST_DATABASE_URL, skipping the test if it is not set.
func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv(DSNEnv)
	if dsn == "" {
		t.Skip(DSNEnv + " not set; skipping integration test")
	}
	return dsn
}
