// Package otp implements one-time-passcode redemption: a durable ledger
// (SQL or Redis) with strict at-most-one-use semantics, a static file store
// for multi-use demo codes, and a service that chains the two.
package otp

import "context"

// Result is the outcome of a redemption. OK=false is a normal negative
// result (unknown or already-used code), not an error.
type Result struct {
	OK     bool   `json:"ok"`
	TestID string `json:"test_id,omitempty"`
	Title  string `json:"title,omitempty"`
	Demo   bool   `json:"demo,omitempty"` // multi-use file path
}

// Store resolves a submitted passcode to a quiz. testIDHint may be empty.
// Implementations must make the check-unused-then-mark-used sequence atomic
// per (test_id, otp) key: two concurrent redemptions of one strict code must
// not both return OK.
type Store interface {
	Redeem(ctx context.Context, testIDHint, otp string) (Result, error)
}

// Record is a per-quiz OTP ledger entry, keyed by (test_id, otp).
type Record struct {
	Used   bool   `json:"used"`
	UsedAt string `json:"used_at,omitempty"`
	Title  string `json:"title,omitempty"`
}

// MapEntry resolves a bare code to a quiz without a pre-seeded per-quiz key.
// Redemption through the map still writes the per-quiz Record ledger.
type MapEntry struct {
	TestID string `json:"test_id"`
	Title  string `json:"title,omitempty"`
}

// Seeder is implemented by durable stores so tooling (cmd/otpseed) can
// provision codes.
type Seeder interface {
	SeedRecord(ctx context.Context, testID, otp, title string) error
	SeedMap(ctx context.Context, otp, testID, title string) error
}
