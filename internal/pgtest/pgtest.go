// Package pgtest starts a disposable PostgreSQL container with the schema
// migrations applied. It is imported only by integration tests.
package pgtest

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/JaimeStill/phototag/internal/migrations"
	"github.com/JaimeStill/phototag/pkg/database"
)

const image = "postgres:17-alpine"

// Open returns a connection to a fresh migrated database. The test is skipped
// under -short or when no container provider is reachable.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	ctr, err := postgres.Run(ctx, image,
		postgres.WithDatabase("phototag"),
		postgres.WithUsername("phototag"),
		postgres.WithPassword("phototag"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	if err := database.MigrateUp(migrations.FS(), url); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

// InsertPhoto adds an upstream photo row created now and returns its id.
// Metadata must be a JSON object.
func InsertPhoto(t *testing.T, db *sql.DB, metadata string) uuid.UUID {
	t.Helper()
	return InsertPhotoAt(t, db, metadata, time.Now())
}

// InsertPhotoAt adds an upstream photo row with an explicit creation time.
func InsertPhotoAt(t *testing.T, db *sql.DB, metadata string, createdAt time.Time) uuid.UUID {
	t.Helper()

	var id uuid.UUID
	err := db.QueryRowContext(context.Background(),
		`INSERT INTO photos (metadata, created_at) VALUES ($1::jsonb, $2) RETURNING id`,
		metadata, createdAt,
	).Scan(&id)
	if err != nil {
		t.Fatalf("insert photo: %v", err)
	}
	return id
}

// Exec runs a statement and fails the test on error.
func Exec(t *testing.T, db *sql.DB, stmt string, args ...any) {
	t.Helper()
	if _, err := db.ExecContext(context.Background(), stmt, args...); err != nil {
		t.Fatalf("exec %q: %v", stmt, err)
	}
}
