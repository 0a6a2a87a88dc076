package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/phototag/internal/pgtest"
	"github.com/JaimeStill/phototag/pkg/repository"
)

func TestWithTx(t *testing.T) {
	db := pgtest.Open(t)
	ctx := context.Background()

	countPhotos := func(t *testing.T) int {
		t.Helper()
		var n int
		if err := db.QueryRowContext(ctx, `SELECT count(*) FROM photos`).Scan(&n); err != nil {
			t.Fatalf("count: %v", err)
		}
		return n
	}

	insert := func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO photos (metadata) VALUES ('{}'::jsonb)`)
		return err
	}

	t.Run("retries deadlock", func(t *testing.T) {
		before := countPhotos(t)
		calls := 0

		n, err := repository.WithTx(ctx, db, func(tx *sql.Tx) (int, error) {
			calls++
			if err := insert(tx); err != nil {
				return 0, err
			}
			if calls == 1 {
				return 0, &pgconn.PgError{Code: "40P01"}
			}
			return calls, nil
		})
		if err != nil {
			t.Fatalf("WithTx: %v", err)
		}
		if n != 2 || calls != 2 {
			t.Errorf("calls = %d (result %d), want 2", calls, n)
		}
		if got := countPhotos(t); got != before+1 {
			t.Errorf("photos = %d, want %d (aborted attempt rolled back)", got, before+1)
		}
	})

	t.Run("gives up after attempts", func(t *testing.T) {
		calls := 0
		_, err := repository.WithTx(ctx, db, func(tx *sql.Tx) (struct{}, error) {
			calls++
			return struct{}{}, &pgconn.PgError{Code: "40001"}
		})
		if !repository.Retryable(err) {
			t.Errorf("err = %v, want serialization failure", err)
		}
		if calls != repository.TxAttempts {
			t.Errorf("calls = %d, want %d", calls, repository.TxAttempts)
		}
	})

	t.Run("other errors roll back once", func(t *testing.T) {
		before := countPhotos(t)
		boom := errors.New("boom")
		calls := 0

		_, err := repository.WithTx(ctx, db, func(tx *sql.Tx) (struct{}, error) {
			calls++
			if err := insert(tx); err != nil {
				return struct{}{}, err
			}
			return struct{}{}, boom
		})
		if !errors.Is(err, boom) || calls != 1 {
			t.Errorf("err = %v after %d calls, want boom after 1", err, calls)
		}
		if got := countPhotos(t); got != before {
			t.Errorf("photos = %d, want %d", got, before)
		}
	})
}
