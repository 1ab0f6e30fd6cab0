package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// markUsed runs the check-unused-then-mark-used sequence server-side so it
// is atomic per key. Returns 1 when this caller burned the code, 0 when it
// was already used, -1 when the record is absent (and ARGV[3] forbids
// creating it).
var markUsed = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if v then
  local rec = cjson.decode(v)
  if rec.used then return 0 end
  rec.used = true
  rec.used_at = ARGV[1]
  if ARGV[2] ~= '' then rec.title = ARGV[2] end
  redis.call('SET', KEYS[1], cjson.encode(rec))
  return 1
end
if ARGV[3] == '1' then
  local rec = {used=true, used_at=ARGV[1]}
  if ARGV[2] ~= '' then rec.title = ARGV[2] end
  redis.call('SET', KEYS[1], cjson.encode(rec))
  return 1
end
return -1
`)

// RedisStore is the durable ledger over Redis. Key layout follows the
// seeding convention: "otp:<test_id>:<otp>" for per-quiz records,
// "otpmap:<otp>" for the bare-code map.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore { return &RedisStore{client: client} }

func recordKey(testID, code string) string { return "otp:" + testID + ":" + code }
func mapKey(code string) string            { return "otpmap:" + code }

func (s *RedisStore) Redeem(ctx context.Context, testIDHint, code string) (Result, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	if testIDHint != "" {
		key := recordKey(testIDHint, code)
		rec, err := s.getRecord(ctx, key)
		if err != nil {
			return Result{}, fmt.Errorf("otp strict redeem (test_id=%s): %w", testIDHint, err)
		}
		if rec != nil {
			n, err := markUsed.Run(ctx, s.client, []string{key}, now, rec.Title, "0").Int()
			if err != nil {
				return Result{}, fmt.Errorf("otp mark used (test_id=%s): %w", testIDHint, err)
			}
			if n == 1 {
				title := rec.Title
				if title == "" {
					title = testIDHint
				}
				return Result{OK: true, TestID: testIDHint, Title: title}, nil
			}
			// already used under the hint; the map may still point elsewhere
		}
	}

	entry, err := s.getMap(ctx, mapKey(code))
	if err != nil {
		return Result{}, fmt.Errorf("otp map lookup: %w", err)
	}
	if entry == nil || entry.TestID == "" {
		return Result{OK: false}, nil
	}

	n, err := markUsed.Run(ctx, s.client, []string{recordKey(entry.TestID, code)}, now, entry.Title, "1").Int()
	if err != nil {
		return Result{}, fmt.Errorf("otp mark used (test_id=%s): %w", entry.TestID, err)
	}
	if n != 1 {
		return Result{OK: false}, nil
	}
	title := entry.Title
	if title == "" {
		title = entry.TestID
	}
	return Result{OK: true, TestID: entry.TestID, Title: title}, nil
}

func (s *RedisStore) getRecord(ctx context.Context, key string) (*Record, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *RedisStore) getMap(ctx context.Context, key string) (*MapEntry, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entry MapEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *RedisStore) SeedRecord(ctx context.Context, testID, code, title string) error {
	data, err := json.Marshal(Record{Title: title})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, recordKey(testID, code), data, 0).Err()
}

func (s *RedisStore) SeedMap(ctx context.Context, code, testID, title string) error {
	data, err := json.Marshal(MapEntry{TestID: testID, Title: title})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, mapKey(code), data, 0).Err()
}
