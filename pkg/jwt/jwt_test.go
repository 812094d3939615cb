package jwt

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerateValidate(t *testing.T) {
	if err := Init("test-secret", time.Hour); err != nil {
		t.Fatal(err)
	}
	token, err := Generate(42, "a@b.io", "Driver")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	claims, err := Validate(token)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if claims.UserID != 42 || claims.Role != "Driver" || claims.Subject != "42" {
		t.Errorf("unexpected claims %+v", claims)
	}
	if _, err := Validate(token + "x"); err == nil {
		t.Error("tampered token validated")
	}
}

func TestInitRejectsEmptySecret(t *testing.T) {
	if err := Init("", time.Hour); err == nil {
		t.Error("expected error")
	}
}

func TestMiddleware(t *testing.T) {
	Init("test-secret", time.Hour)
	token, _ := Generate(7, "r@b.io", "User")

	var seen *Claims
	h := OptionalAuth(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetClaims(r.Context())
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK || seen == nil || seen.UserID != 7 {
		t.Fatalf("with token: status = %d claims = %+v", w.Code, seen)
	}
}
