package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/quizgate/quizgate/internal/otp"
)

// POST /otp/verify  { "test_id": "...", "otp": "..." }
//
// {ok:false} is a normal 200: an invalid or already-used code is not an
// error. 500 happens only when no store could answer at all.
func VerifyOTPHandler(svc *otp.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TestID string `json:"test_id"`
			OTP    string `json:"otp"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "Invalid JSON"})
			return
		}
		code := strings.TrimSpace(req.OTP)
		if code == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "Missing otp"})
			return
		}

		res, err := svc.Redeem(r.Context(), strings.TrimSpace(req.TestID), code)
		if err != nil {
			log.Printf("otp: verify failed: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "OTP read error"})
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
