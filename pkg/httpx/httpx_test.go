package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ridesharing/internal/apperrors"
)

type sampleBody struct {
	Name  string  `json:"name" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"a","price":1}`, false},
		{"malformed", `{"name":`, true},
		{"missing required", `{"price":1}`, true},
		{"negative", `{"name":"a","price":-1}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst sampleBody
			err := Decode(req, &dst)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperrors.Is(err, apperrors.ErrValidation) {
				t.Errorf("expected validation kind, got %v", err)
			}
		})
	}
}

func TestDecodeOptional(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"empty", ``, "", false},
		{"valid", `{"name":"a"}`, "a", false},
		{"wrong type", `{"name":5}`, "", true},
		{"malformed", `{"name":`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst struct {
				Name string `json:"name"`
			}
			err := DecodeOptional(req, &dst)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeOptional() err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperrors.Is(err, apperrors.ErrValidation) {
				t.Errorf("expected validation kind, got %v", err)
			}
			if err == nil && dst.Name != tt.want {
				t.Errorf("name = %q, want %q", dst.Name, tt.want)
			}
		})
	}
}

func TestErrorEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, apperrors.NotFound("ride"))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["success"] != false || body["error"] != "not_found" {
		t.Errorf("unexpected body %v", body)
	}

	w = httptest.NewRecorder()
	Error(w, errors.New("db down"))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "db down") {
		t.Errorf("internal error leaked: %s", w.Body.String())
	}
}
