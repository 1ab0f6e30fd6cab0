package http

import (
	"encoding/json"
	"net/http"

	"github.com/quizgate/quizgate/internal/results"
)

// POST /results — open attempt payload from the widget.
//
// Always 200 ok:true: the quiz taker must see their results even when
// storage is down. persisted/error make the failure discoverable by an
// admin.
func SubmitResultHandler(writer *results.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "Invalid JSON"})
			return
		}

		out := writer.Persist(r.Context(), payload)

		resp := map[string]any{"ok": true, "id": out.ID, "persisted": out.Persisted}
		if out.Err != "" {
			resp["error"] = out.Err
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
