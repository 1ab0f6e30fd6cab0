package results

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quizgate/quizgate/internal/storage"
)

const keyPrefix = "results/"

var pathUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SafeTestID maps an arbitrary test id onto a filesystem-safe nested path
// segment. Empty ids collapse to "unknown".
func SafeTestID(id string) string {
	if id == "" {
		return "unknown"
	}
	return pathUnsafe.ReplaceAllString(id, "_")
}

// Outcome reports one persistence attempt. Persisted is true only when both
// physical copies were written; Err carries the partial or total failure for
// administrators, never for the submitting user.
type Outcome struct {
	ID        string
	Persisted bool
	Err       string
}

// Writer persists one attempt record under two addressing schemes:
// results/<id>.json (flat, canonical for listing) and
// results/<safe_test_id>/<id>.json (nested, for browsing by quiz).
type Writer struct {
	blobs   storage.BlobStore // nil when storage is unconfigured
	timeout time.Duration
	now     func() time.Time
	newID   func() string
}

func NewWriter(blobs storage.BlobStore, timeout time.Duration) *Writer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Writer{
		blobs:   blobs,
		timeout: timeout,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Persist assigns a fresh id and received_at, normalizes the open payload,
// and writes both copies. Storage trouble never fails the call: the outcome
// reports it and the submitting user still gets their results.
func (w *Writer) Persist(ctx context.Context, payload map[string]any) Outcome {
	entry := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		entry[k] = v
	}

	id := w.newID()
	entry["id"] = id
	entry["received_at"] = w.now().UTC().Format(time.RFC3339)

	// Normalize defensively so the admin lister never breaks on this record.
	if _, ok := entry["rows"].([]any); !ok {
		entry["rows"] = []any{}
	}
	if _, ok := entry["scorePct"].(float64); !ok {
		correct, cok := entry["correct"].(float64)
		total, tok := entry["total"].(float64)
		if cok && tok && total > 0 {
			entry["scorePct"] = math.Round(correct / total * 100)
		}
	}

	if w.blobs == nil {
		return Outcome{ID: id, Persisted: false, Err: "blob store not configured"}
	}

	body, err := json.Marshal(entry)
	if err != nil {
		return Outcome{ID: id, Persisted: false, Err: fmt.Sprintf("encode record: %v", err)}
	}

	testID, _ := entry["test_id"].(string)
	nestedKey := keyPrefix + SafeTestID(testID) + "/" + id + ".json"
	flatKey := keyPrefix + id + ".json"

	wctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	// One logical write, two physical keys. Attempt both even if the first
	// fails so partial state is reported, not silently swallowed.
	var failures []string
	for _, key := range []string{nestedKey, flatKey} {
		if _, err := w.blobs.Put(wctx, key, bytes.NewReader(body)); err != nil {
			log.Printf("results: write %s failed: %v", key, err)
			failures = append(failures, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(failures) > 0 {
		return Outcome{ID: id, Persisted: false, Err: strings.Join(failures, "; ")}
	}
	return Outcome{ID: id, Persisted: true}
}
