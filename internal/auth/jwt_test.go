package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/safar/go-storefront/internal/testutil"
)

const testSecret = "test-secret"

func TestParseBearerValid(t *testing.T) {
	tok := testutil.GenerateJWTHS256(t, testSecret, 42)

	p, err := ParseBearer("Bearer "+tok, testSecret)
	if err != nil {
		t.Fatalf("ParseBearer: %v", err)
	}
	if p.UserID != 42 {
		t.Fatalf("principal mismatch: %+v", p)
	}
}

func TestParseBearerRejects(t *testing.T) {
	valid := testutil.GenerateJWTHS256(t, testSecret, 42)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	tests := []struct {
		name   string
		header string
		secret string
	}{
		{"empty header", "", testSecret},
		{"wrong scheme", "Basic " + valid, testSecret},
		{"wrong secret", "Bearer " + valid, "other-secret"},
		{"expired", "Bearer " + expired, testSecret},
		{"missing subject", "Bearer " + noSubject, testSecret},
		{"garbage", "Bearer not-a-jwt", testSecret},
		{"empty secret", "Bearer " + valid, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseBearer(tt.header, tt.secret); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestAuthenticateMiddleware(t *testing.T) {
	var seen *Principal
	handler := Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || seen != nil {
		t.Errorf("guest request: code %d principal %+v", rec.Code, seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+testutil.GenerateJWTHS256(t, testSecret, 7))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || seen == nil || seen.UserID != 7 {
		t.Errorf("authenticated request: code %d principal %+v", rec.Code, seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer broken")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for a bad token, got %d", rec.Code)
	}
}

func TestRequirePrincipal(t *testing.T) {
	handler := RequirePrincipal(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without principal, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithPrincipal(req.Context(), &Principal{UserID: 1}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204 with principal, got %d", rec.Code)
	}
}
