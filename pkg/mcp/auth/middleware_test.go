package mcpauth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-counsel/pkg/auth"
)

const testFirmID = "6f1c2d9e-7a51-4c1b-9f7e-2a4d8b3c5e10"

// mockAuthService is a mock implementation of auth.AuthService for testing.
type mockAuthService struct {
	claims           *auth.Claims
	token            string
	validateErr      error
	requireFirmErr   error
	validateMatchErr error
}

func (m *mockAuthService) ValidateRequest(r *http.Request) (*auth.Claims, string, error) {
	if m.validateErr != nil {
		return nil, "", m.validateErr
	}
	return m.claims, m.token, nil
}

func (m *mockAuthService) RequireFirmID(claims *auth.Claims) error {
	return m.requireFirmErr
}

func (m *mockAuthService) ValidateFirmIDMatch(claims *auth.Claims, urlFirmID string) error {
	return m.validateMatchErr
}

type recordedFailure struct {
	firmID, userID, reason, clientIP string
}

type mockRecorder struct {
	failures []recordedFailure
}

func (m *mockRecorder) RecordAuthFailure(firmID, userID, reason, clientIP string) {
	m.failures = append(m.failures, recordedFailure{firmID, userID, reason, clientIP})
}

func serve(t *testing.T, mw *Middleware, pathValue string, wantCalled bool) *httptest.ResponseRecorder {
	t.Helper()
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/mcp/"+pathValue, nil)
	req.SetPathValue("fid", pathValue)
	rec := httptest.NewRecorder()
	mw.RequireAuth("fid")(handler).ServeHTTP(rec, req)

	if called != wantCalled {
		t.Fatalf("handler called = %v, want %v", called, wantCalled)
	}
	return rec
}

func TestMiddleware_RequireAuth_Success(t *testing.T) {
	claims := &auth.Claims{FirmID: testFirmID}
	mw := NewMiddleware(&mockAuthService{claims: claims, token: "test-token"}, nil, zap.NewNop())

	var ctxClaims *auth.Claims
	var ctxToken string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxClaims, _ = auth.GetClaims(r.Context())
		ctxToken, _ = auth.GetToken(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/mcp/"+testFirmID, nil)
	req.SetPathValue("fid", testFirmID)
	rec := httptest.NewRecorder()
	mw.RequireAuth("fid")(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if ctxClaims == nil || ctxClaims.FirmID != testFirmID {
		t.Error("expected claims to be set in context")
	}
	if ctxToken != "test-token" {
		t.Errorf("expected token 'test-token' in context, got %q", ctxToken)
	}
}

func TestMiddleware_RequireAuth_InvalidToken(t *testing.T) {
	recorder := &mockRecorder{}
	mw := NewMiddleware(&mockAuthService{validateErr: auth.ErrMissingAuthorization}, recorder, zap.NewNop())

	rec := serve(t, mw, testFirmID, false)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
	wwwAuth := rec.Header().Get("WWW-Authenticate")
	if !strings.Contains(wwwAuth, "Bearer") || !strings.Contains(wwwAuth, `error="invalid_token"`) {
		t.Errorf("unexpected WWW-Authenticate header %q", wwwAuth)
	}
	if len(recorder.failures) != 1 || recorder.failures[0].reason != "invalid_token" {
		t.Errorf("expected one invalid_token failure, got %+v", recorder.failures)
	}
	if recorder.failures[0].firmID != testFirmID {
		t.Errorf("expected firm %s recorded, got %s", testFirmID, recorder.failures[0].firmID)
	}
}

func TestMiddleware_RequireAuth_MissingFirmID(t *testing.T) {
	authService := &mockAuthService{
		claims:         &auth.Claims{},
		requireFirmErr: auth.ErrMissingFirmID,
	}
	mw := NewMiddleware(authService, nil, zap.NewNop())

	rec := serve(t, mw, testFirmID, false)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("WWW-Authenticate"), "invalid_token") {
		t.Errorf("expected invalid_token error, got %q", rec.Header().Get("WWW-Authenticate"))
	}
}

func TestMiddleware_RequireAuth_MissingURLFirmID(t *testing.T) {
	mw := NewMiddleware(&mockAuthService{claims: &auth.Claims{FirmID: testFirmID}}, nil, zap.NewNop())

	rec := serve(t, mw, "", false)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("WWW-Authenticate"), "invalid_request") {
		t.Errorf("expected invalid_request error, got %q", rec.Header().Get("WWW-Authenticate"))
	}
}

func TestMiddleware_RequireAuth_FirmMismatch(t *testing.T) {
	claims := &auth.Claims{FirmID: testFirmID}
	claims.Subject = "user-1"
	recorder := &mockRecorder{}
	authService := &mockAuthService{claims: claims, validateMatchErr: auth.ErrFirmIDMismatch}
	mw := NewMiddleware(authService, recorder, zap.NewNop())

	rec := serve(t, mw, "another-firm", false)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("WWW-Authenticate"), "insufficient_scope") {
		t.Errorf("expected insufficient_scope error, got %q", rec.Header().Get("WWW-Authenticate"))
	}
	if len(recorder.failures) != 1 || recorder.failures[0].userID != "user-1" || recorder.failures[0].reason != "firm_mismatch" {
		t.Errorf("unexpected recorded failures %+v", recorder.failures)
	}
}
