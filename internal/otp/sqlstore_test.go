package otp_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/quizgate/quizgate/internal/db"
	"github.com/quizgate/quizgate/internal/otp"
)

func newSQLStore(t *testing.T) *otp.SQLStore {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", name)
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// one connection: in-memory sqlite returns table-lock errors to
	// concurrent writers instead of honoring busy_timeout
	dbh.SetMaxOpenConns(1)
	t.Cleanup(func() { dbh.Close() })
	return otp.NewSQLStore(dbh)
}

func TestSQLStoreStrictOneTime(t *testing.T) {
	s := newSQLStore(t)
	ctx := context.Background()

	if err := s.SeedRecord(ctx, "quiz_server", "4821", "Server Fundamentals"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := s.Redeem(ctx, "quiz_server", "4821")
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if !res.OK || res.TestID != "quiz_server" || res.Title != "Server Fundamentals" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Demo {
		t.Fatalf("durable path must not report demo")
	}

	// Same key again: the ledger is burned.
	res, err = s.Redeem(ctx, "quiz_server", "4821")
	if err != nil {
		t.Fatalf("second redeem: %v", err)
	}
	if res.OK {
		t.Fatalf("expected second redemption to fail")
	}
}

func TestSQLStoreMapPath(t *testing.T) {
	s := newSQLStore(t)
	ctx := context.Background()

	if err := s.SeedMap(ctx, "4821", "t1", "Intro"); err != nil {
		t.Fatalf("seed map: %v", err)
	}

	res, err := s.Redeem(ctx, "", "4821")
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if !res.OK || res.TestID != "t1" || res.Title != "Intro" {
		t.Fatalf("unexpected result: %+v", res)
	}

	// The map resolves the code, but the per-quiz ledger still enforces
	// one-time use.
	res, err = s.Redeem(ctx, "", "4821")
	if err != nil {
		t.Fatalf("second redeem: %v", err)
	}
	if res.OK {
		t.Fatalf("expected mapped code to be single-use")
	}
}

func TestSQLStoreMapPathWithHint(t *testing.T) {
	s := newSQLStore(t)
	ctx := context.Background()

	if err := s.SeedMap(ctx, "9000", "t2", "Networking"); err != nil {
		t.Fatalf("seed map: %v", err)
	}

	// A hint with no strict record still resolves through the map.
	res, err := s.Redeem(ctx, "t2", "9000")
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if !res.OK || res.TestID != "t2" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestSQLStoreUnknownCode(t *testing.T) {
	s := newSQLStore(t)

	res, err := s.Redeem(context.Background(), "t1", "0000")
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if res.OK {
		t.Fatalf("unknown code must not redeem")
	}
}

func TestSQLStoreConcurrentRedemption(t *testing.T) {
	s := newSQLStore(t)
	ctx := context.Background()

	if err := s.SeedRecord(ctx, "t1", "7777", "Race"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	const callers = 16
	var wg sync.WaitGroup
	wins := make(chan otp.Result, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.Redeem(ctx, "t1", "7777")
			if err != nil {
				t.Errorf("redeem: %v", err)
				return
			}
			if res.OK {
				wins <- res
			}
		}()
	}
	wg.Wait()
	close(wins)

	var n int
	for range wins {
		n++
	}
	if n != 1 {
		t.Fatalf("expected exactly one winner, got %d", n)
	}
}
