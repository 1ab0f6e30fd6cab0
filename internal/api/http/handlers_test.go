package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	api "github.com/quizgate/quizgate/internal/api/http"
	"github.com/quizgate/quizgate/internal/auth"
	"github.com/quizgate/quizgate/internal/otp"
	"github.com/quizgate/quizgate/internal/quiz"
	"github.com/quizgate/quizgate/internal/results"
	"github.com/quizgate/quizgate/internal/storage"
)

const adminToken = "test-admin-token"

// newTestRouter mirrors the gateway wiring: quiz dir, file-backed OTP store,
// filesystem blob store, shared-secret admin auth.
func newTestRouter(t *testing.T) chi.Router {
	t.Helper()
	base := t.TempDir()

	quizDir := filepath.Join(base, "tests")
	if err := os.Mkdir(quizDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	mustWrite(t, filepath.Join(quizDir, "quiz_server.json"),
		`{"test_id":"quiz_server","title":"Server Fundamentals","questions":[{"id":"q1","type":"true_false","text":"?","answer":"true"}]}`)
	otpFile := filepath.Join(base, "otps.json")
	mustWrite(t, otpFile,
		`{"quiz_server": {"otp": "4821", "title": "Server Fundamentals"}}`)

	blobs, err := storage.NewFSStore(filepath.Join(base, "data"))
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}

	otpSvc := otp.NewService(nil, otp.NewFileStore(otpFile), time.Second)
	writer := results.NewWriter(blobs, time.Second)
	reader := results.NewReader(blobs, time.Second)

	r := chi.NewRouter()
	r.Get("/quiz/{testID}", api.GetQuizHandler(quiz.NewStore(quizDir)))
	r.Post("/otp/verify", api.VerifyOTPHandler(otpSvc))
	r.Post("/results", api.SubmitResultHandler(writer))
	r.Group(func(ar chi.Router) {
		ar.Use(auth.AdminOnly(auth.NewTokenAuth(adminToken, "")))
		ar.Get("/admin/results", api.ListResultsHandler(reader))
		ar.Get("/admin/results/{id}", api.GetResultHandler(reader))
		ar.Get("/admin/debug/blob", api.DebugBlobHandler(blobs))
	})
	return r
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func do(t *testing.T, r chi.Router, method, target, body string, hdr map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("%s %s: bad response JSON %q: %v", method, target, rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func adminHdr() map[string]string {
	return map[string]string{auth.HeaderAdminToken: adminToken}
}

func TestQuizFetch(t *testing.T) {
	r := newTestRouter(t)

	rec, body := do(t, r, http.MethodGet, "/quiz/quiz_server", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["title"] != "Server Fundamentals" {
		t.Fatalf("unexpected quiz: %v", body)
	}
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Fatalf("quiz response must be uncacheable, got %q", cc)
	}

	rec, body = do(t, r, http.MethodGet, "/quiz/absent", "", nil)
	if rec.Code != http.StatusNotFound || body["error"] != "Test not found" {
		t.Fatalf("status = %d, body = %v", rec.Code, body)
	}

	// Path traversal degrades to an unknown id.
	rec, _ = do(t, r, http.MethodGet, "/quiz/..%2Fsecret", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("traversal id: status = %d, want 404", rec.Code)
	}
}

func TestOTPVerify(t *testing.T) {
	r := newTestRouter(t)

	rec, _ := do(t, r, http.MethodPost, "/otp/verify", "{not json", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid JSON: status = %d, want 400", rec.Code)
	}

	rec, _ = do(t, r, http.MethodPost, "/otp/verify", `{"test_id":"quiz_server"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing otp: status = %d, want 400", rec.Code)
	}

	rec, body := do(t, r, http.MethodPost, "/otp/verify", `{"test_id":"quiz_server","otp":"4821"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["ok"] != true || body["test_id"] != "quiz_server" || body["demo"] != true {
		t.Fatalf("unexpected result: %v", body)
	}

	// Unknown code is a 200 negative result, not an error.
	rec, body = do(t, r, http.MethodPost, "/otp/verify", `{"otp":"0000"}`, nil)
	if rec.Code != http.StatusOK || body["ok"] != false {
		t.Fatalf("status = %d, body = %v", rec.Code, body)
	}
}

func TestSubmitAndAdminRoundTrip(t *testing.T) {
	r := newTestRouter(t)

	rec, body := do(t, r, http.MethodPost, "/results",
		`{"test_id":"quiz_server","user_name":"Ada","correct":7,"total":10}`, nil)
	if rec.Code != http.StatusOK || body["ok"] != true {
		t.Fatalf("submit: status = %d, body = %v", rec.Code, body)
	}
	if body["persisted"] != true {
		t.Fatalf("expected persisted=true, body = %v", body)
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatalf("missing id in %v", body)
	}

	// Admin endpoints reject without the shared secret.
	rec, _ = do(t, r, http.MethodGet, "/admin/results", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list: status = %d, want 401", rec.Code)
	}

	rec, body = do(t, r, http.MethodGet, "/admin/results", "", adminHdr())
	if rec.Code != http.StatusOK || body["ok"] != true {
		t.Fatalf("list: status = %d, body = %v", rec.Code, body)
	}
	if body["count"] != float64(1) {
		t.Fatalf("count = %v, want 1", body["count"])
	}
	first := body["results"].([]any)[0].(map[string]any)
	if first["scorePct"] != float64(70) {
		t.Fatalf("scorePct = %v, want 70", first["scorePct"])
	}

	rec, body = do(t, r, http.MethodGet, "/admin/results/"+id, "", adminHdr())
	if rec.Code != http.StatusOK || body["ok"] != true {
		t.Fatalf("get: status = %d, body = %v", rec.Code, body)
	}
	result := body["result"].(map[string]any)
	if result["id"] != id || result["user_name"] != "Ada" {
		t.Fatalf("unexpected record: %v", result)
	}

	rec, _ = do(t, r, http.MethodGet, "/admin/results/unknown-id", "", adminHdr())
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown id: status = %d, want 404", rec.Code)
	}
}

func TestDebugBlobProbe(t *testing.T) {
	r := newTestRouter(t)

	rec, body := do(t, r, http.MethodGet, "/admin/debug/blob", "", adminHdr())
	if rec.Code != http.StatusOK || body["ok"] != true {
		t.Fatalf("status = %d, body = %v", rec.Code, body)
	}
	wrote, _ := body["wrote"].(string)
	if !strings.HasPrefix(wrote, "results/debug-") {
		t.Fatalf("unexpected probe key %q", wrote)
	}
}

func TestSubmitInvalidJSON(t *testing.T) {
	r := newTestRouter(t)

	rec, _ := do(t, r, http.MethodPost, "/results", "{broken", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
