package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quizgate/quizgate/internal/quiz"
)

// GET /quiz/{testID}
func GetQuizHandler(store *quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noStore(w)
		q, err := store.Get(chi.URLParam(r, "testID"))
		if err != nil {
			if errors.Is(err, quiz.ErrNotFound) {
				writeJSON(w, http.StatusNotFound, map[string]any{"error": "Test not found"})
				return
			}
			log.Printf("quiz: read failed: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Failed to read test"})
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}
