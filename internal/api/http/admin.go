package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quizgate/quizgate/internal/results"
	"github.com/quizgate/quizgate/internal/storage"
)

// GET /admin/results?since&page&page_size
func ListResultsHandler(reader *results.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noStore(w)

		var since *time.Time
		if raw := r.URL.Query().Get("since"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				if t, err = time.Parse("2006-01-02", raw); err != nil {
					writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "Invalid since"})
					return
				}
			}
			since = &t
		}
		page := parseIntDefault(r.URL.Query().Get("page"), 1)
		pageSize := parseIntDefault(r.URL.Query().Get("page_size"), 20)

		pg, err := reader.List(r.Context(), since, page, pageSize)
		if err != nil {
			log.Printf("admin: list results failed: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "Failed to list results"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":          true,
			"count":       pg.Count,
			"page":        pg.Page,
			"page_size":   pg.PageSize,
			"total_pages": pg.TotalPages,
			"results":     pg.Results,
		})
	}
}

// GET /admin/results/{id}
func GetResultHandler(reader *results.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noStore(w)
		id := chi.URLParam(r, "id")
		if id == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "Missing id"})
			return
		}
		entry, err := reader.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, results.ErrNotFound) {
				writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "Result not found"})
				return
			}
			log.Printf("admin: get result %s failed: %v", id, err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "Failed to load result"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "result": entry})
	}
}

// GET /admin/debug/blob — writes a probe object so an admin can verify
// storage wiring end to end.
func DebugBlobHandler(blobs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noStore(w)
		if blobs == nil {
			writeJSON(w, http.StatusOK, map[string]any{"ok": false, "reason": "NO_STORE", "detail": "blob store not configured"})
			return
		}
		id := uuid.NewString()
		key := "results/debug-" + id + ".json"
		probe, _ := json.Marshal(map[string]any{
			"probe": "blob-write-test",
			"id":    id,
			"at":    time.Now().UTC().Format(time.RFC3339),
		})
		if _, err := blobs.Put(r.Context(), key, bytes.NewReader(probe)); err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"ok": false, "reason": "PUT_FAILED", "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "wrote": key})
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
