package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHeaderAuthSetsUserID(t *testing.T) {
	mw, err := Auth(&AuthConfig{Enabled: false}, discard())
	if err != nil {
		t.Fatalf("Auth: %v", err)
	}

	var gotID string
	var gotOK bool
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotOK = UserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/incidents", nil)
	req.Header.Set("X-User-Id", "user-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("unexpected status %d", rec.Code)
	}
	if !gotOK || gotID != "user-42" {
		t.Errorf("UserID = %q, %v", gotID, gotOK)
	}
}

func TestHeaderAuthRejectsMissingHeader(t *testing.T) {
	mw, err := Auth(&AuthConfig{Enabled: false}, discard())
	if err != nil {
		t.Fatalf("Auth: %v", err)
	}

	called := false
	handler := mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/incidents", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if called {
		t.Error("handler must not run without an identity")
	}
}

func TestUserIDAbsent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := UserID(req.Context()); ok {
		t.Error("expected no user id on a bare context")
	}
}

func TestWithUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := WithUserID(req.Context(), "user-7")

	id, ok := UserID(ctx)
	if !ok || id != "user-7" {
		t.Errorf("UserID = %q, %v", id, ok)
	}
}

func TestAuthConfigFinalize(t *testing.T) {
	cfg := &AuthConfig{Enabled: true}
	if err := cfg.Finalize(nil); err == nil {
		t.Error("enabled auth without issuer must fail validation")
	}

	cfg = &AuthConfig{Enabled: false}
	if err := cfg.Finalize(nil); err != nil {
		t.Errorf("disabled auth must validate, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := bearerToken(req); ok {
		t.Error("expected no token without header")
	}

	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	token, ok := bearerToken(req)
	if !ok || token != "abc.def.ghi" {
		t.Errorf("bearerToken = %q, %v", token, ok)
	}

	req.Header.Set("Authorization", "Basic xyz")
	if _, ok := bearerToken(req); ok {
		t.Error("expected rejection of non-bearer scheme")
	}
}
