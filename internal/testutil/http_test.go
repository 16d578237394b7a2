package testutil

import (
	"net/http"
	"strings"
	"testing"
)

func TestNewJSONRequest(t *testing.T) {
	req := NewJSONRequest(http.MethodPost, "/calculator/add", `{"a":1,"b":2}`)

	if req.Method != http.MethodPost || req.URL.Path != "/calculator/add" {
		t.Fatalf("unexpected request line %s %s", req.Method, req.URL.Path)
	}
	if ct := req.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected Content-Type application/json, got %q", ct)
	}
}

func TestErrorMessage(t *testing.T) {
	got := ErrorMessage(t, strings.NewReader(`{"error":"operand out of range"}`))
	if got != "operand out of range" {
		t.Fatalf("expected %q, got %q", "operand out of range", got)
	}
}
