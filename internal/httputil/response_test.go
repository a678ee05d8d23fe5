package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSONError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSONError(rec, http.StatusBadRequest, "bad limit")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %s, want application/json", ct)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["error"] != "bad limit" {
		t.Errorf("error = %q, want %q", resp["error"], "bad limit")
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, map[string]int{"packets": 3})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["packets"] != 3 {
		t.Errorf("packets = %d, want 3", resp["packets"])
	}
}

func TestRequireGET(t *testing.T) {
	t.Parallel()

	for _, method := range []string{http.MethodGet, http.MethodHead} {
		rec := httptest.NewRecorder()
		if !RequireGET(rec, httptest.NewRequest(method, "/", nil)) {
			t.Errorf("%s rejected", method)
		}
	}

	rec := httptest.NewRecorder()
	if RequireGET(rec, httptest.NewRequest(http.MethodPost, "/", nil)) {
		t.Fatal("POST accepted")
	}
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
	if got := rec.Header().Get("Allow"); got != "GET, HEAD" {
		t.Errorf("Allow = %q", got)
	}
}

func TestQueryLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{"", 20, false},
		{"?limit=5", 5, false},
		{"?limit=500", 100, false},
		{"?limit=0", 0, true},
		{"?limit=-3", 0, true},
		{"?limit=abc", 0, true},
	}
	for _, tt := range tests {
		got, err := QueryLimit(httptest.NewRequest(http.MethodGet, "/runs"+tt.query, nil), 20, 100)
		if (err != nil) != tt.wantErr {
			t.Errorf("QueryLimit(%q) err = %v, wantErr %v", tt.query, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("QueryLimit(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}
