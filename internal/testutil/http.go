package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// NewJSONServer creates an httptest server from a callback to keep
// fake-Graph tests concise.
func NewJSONServer(handler func(http.ResponseWriter, *http.Request)) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(handler))
}

// RespondJSON writes a status code and a JSON body, failing the test on
// encode errors instead of silently serving a broken payload.
func RespondJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		t.Errorf("encode test response: %v", err)
	}
}
