package otp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLStore is the durable ledger over database/sql (sqlite or postgres).
// The mark-used step is a conditional UPDATE guarded by used=FALSE, so the
// row itself is the critical section: of N concurrent redemptions of one
// code, exactly one update reports an affected row.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Redeem(ctx context.Context, testIDHint, code string) (Result, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	// Strict path: a pre-seeded per-quiz record for (hint, code).
	if testIDHint != "" {
		var title string
		err := s.db.QueryRowContext(ctx,
			`UPDATE otp_records SET used=TRUE, used_at=$1
			 WHERE test_id=$2 AND otp=$3 AND used=FALSE
			 RETURNING title`,
			now, testIDHint, code).Scan(&title)
		switch {
		case err == nil:
			if title == "" {
				title = testIDHint
			}
			return Result{OK: true, TestID: testIDHint, Title: title}, nil
		case errors.Is(err, sql.ErrNoRows):
			// absent or already used; the map may still resolve it
		default:
			return Result{}, fmt.Errorf("otp strict redeem (test_id=%s): %w", testIDHint, err)
		}
	}

	// Map path: resolve the bare code, then win the per-quiz ledger upsert.
	var testID, title string
	err := s.db.QueryRowContext(ctx,
		`SELECT test_id, title FROM otp_map WHERE otp=$1`, code).
		Scan(&testID, &title)
	if errors.Is(err, sql.ErrNoRows) {
		return Result{OK: false}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("otp map lookup: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO otp_records (test_id, otp, title, used, used_at)
		 VALUES ($1, $2, $3, TRUE, $4)
		 ON CONFLICT (test_id, otp) DO UPDATE SET used=TRUE, used_at=$4, title=$3
		 WHERE otp_records.used=FALSE`,
		testID, code, title, now)
	if err != nil {
		return Result{}, fmt.Errorf("otp mark used (test_id=%s): %w", testID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Result{}, err
	}
	if n == 0 {
		// another caller already burned this code
		return Result{OK: false}, nil
	}
	if title == "" {
		title = testID
	}
	return Result{OK: true, TestID: testID, Title: title}, nil
}

func (s *SQLStore) SeedRecord(ctx context.Context, testID, code, title string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO otp_records (test_id, otp, title, used)
		 VALUES ($1, $2, $3, FALSE)
		 ON CONFLICT (test_id, otp) DO UPDATE SET title=$3, used=FALSE, used_at=NULL`,
		testID, code, title)
	return err
}

func (s *SQLStore) SeedMap(ctx context.Context, code, testID, title string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO otp_map (otp, test_id, title)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (otp) DO UPDATE SET test_id=$2, title=$3`,
		code, testID, title)
	return err
}
