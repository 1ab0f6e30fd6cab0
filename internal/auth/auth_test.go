package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/quizgate/quizgate/internal/auth"
)

func TestTokenAuthPlain(t *testing.T) {
	a := auth.NewTokenAuth("s3cret", "")
	if !a.Authorize("s3cret") {
		t.Fatalf("matching token rejected")
	}
	if a.Authorize("wrong") {
		t.Fatalf("wrong token accepted")
	}
	if a.Authorize("") {
		t.Fatalf("empty token accepted")
	}
}

func TestTokenAuthBcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	a := auth.NewTokenAuth("", string(hash))
	if !a.Authorize("s3cret") {
		t.Fatalf("matching token rejected")
	}
	if a.Authorize("wrong") {
		t.Fatalf("wrong token accepted")
	}
}

func TestTokenAuthFailsClosed(t *testing.T) {
	a := auth.NewTokenAuth("", "")
	if a.Authorize("anything") {
		t.Fatalf("unconfigured auth must reject everything")
	}
}

func TestAdminOnlyMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := auth.AdminOnly(auth.NewTokenAuth("s3cret", ""))(next)

	req := httptest.NewRequest(http.MethodGet, "/admin/results", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing header: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/results", nil)
	req.Header.Set(auth.HeaderAdminToken, "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/results", nil)
	req.Header.Set(auth.HeaderAdminToken, "s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("good token: status = %d, want 200", rec.Code)
	}
}
