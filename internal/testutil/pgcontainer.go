package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PGContainerDSN starts a disposable PostgreSQL container and returns its
// connection string plus a cleanup function that terminates the container.
// Needs no external database, only a working Docker daemon.
func PGContainerDSN(t *testing.T) (string, func()) {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("guardian_test"),
		tcpostgres.WithUsername("guardian"),
		tcpostgres.WithPassword("guardian"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("pgcontainer: start container: %v", err)
	}

	terminate := func() { _ = container.Terminate(ctx) }

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		terminate()
		t.Fatalf("pgcontainer: connection string: %v", err)
	}

	return connStr, terminate
}

// PGContainer starts a disposable PostgreSQL container, runs all migrations
// from the migrations/ directory, and returns the *sql.DB plus a cleanup
// function that terminates the container.
func PGContainer(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	ctx := context.Background()

	connStr, terminate := PGContainerDSN(t)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		terminate()
		t.Fatalf("pgcontainer: open database: %v", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		terminate()
		t.Fatalf("pgcontainer: connect to database: %v", err)
	}

	if err := runMigrations(ctx, db, findMigrationsDir(t)); err != nil {
		_ = db.Close()
		terminate()
		t.Fatalf("pgcontainer: run migrations: %v", err)
	}

	return db, func() {
		_ = db.Close()
		terminate()
	}
}
