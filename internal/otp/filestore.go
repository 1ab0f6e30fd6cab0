package otp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// FileStore reads a static JSON file of demo codes. Two shapes coexist:
//
//	legacy: { "<test_id>:<otp>": {"title": "..."} }
//	new:    { "<test_id>": {"otp": "...", "title": "..."} }
//
// There is no usage ledger: every valid code is reusable, and results carry
// Demo=true. The file is re-read on every call so a redeploy takes effect
// without a restart.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

type fileEntry struct {
	OTP   json.RawMessage `json:"otp"`
	Title string          `json:"title"`
}

func (s *FileStore) Redeem(ctx context.Context, testIDHint, code string) (Result, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{OK: false}, nil
		}
		return Result{}, fmt.Errorf("otp file read: %w", err)
	}

	var store map[string]fileEntry
	if err := json.Unmarshal(data, &store); err != nil {
		return Result{}, fmt.Errorf("otp file parse: %w", err)
	}

	ok := func(testID, title string) Result {
		if title == "" {
			title = testID
		}
		return Result{OK: true, TestID: testID, Title: title, Demo: true}
	}

	// 1) Legacy exact key with hint.
	if testIDHint != "" {
		if e, found := store[testIDHint+":"+code]; found {
			return ok(testIDHint, e.Title), nil
		}
		// 2) New shape under the hinted test_id.
		if e, found := store[testIDHint]; found && rawString(e.OTP) == code {
			return ok(testIDHint, e.Title), nil
		}
	}

	// Map iteration order is random; scan keys sorted so repeated calls give
	// one stable answer when several entries share a code.
	keys := make([]string, 0, len(store))
	for k := range store {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// 3) New shape, discover the test_id by code alone.
	for _, k := range keys {
		e := store[k]
		if len(e.OTP) > 0 && rawString(e.OTP) == code {
			return ok(k, e.Title), nil
		}
	}

	// 4) Legacy "<test_id>:<otp>" keys without a hint.
	for _, k := range keys {
		tid, kOtp, found := strings.Cut(k, ":")
		if found && kOtp == code {
			return ok(tid, store[k].Title), nil
		}
	}

	return Result{OK: false}, nil
}

// rawString renders a JSON scalar the way the widget sends codes: strings
// unquoted, numbers as written. Seed files use both.
func rawString(r json.RawMessage) string {
	if len(r) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(r, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(r))
}
