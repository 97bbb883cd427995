package graph

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchAllConcatenatesPages(t *testing.T) {
	t.Parallel()

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("after") == "" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{
					{"id": "a"},
					{"id": "b"},
				},
				"paging": map[string]any{
					"next": server.URL + "/v18.0/act_1/insights?after=cursor_1",
				},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": "c"}},
		})
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL)
	items, err := client.FetchAll(context.Background(), Request{
		Method:  "GET",
		Path:    "act_1/insights",
		Version: "v18.0",
	})
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got, _ := items[i]["id"].(string); got != want {
			t.Fatalf("item %d: got %q, want %q", i, got, want)
		}
	}
}

func TestFetchAllDiscardsAccumulatedItemsOnPageError(t *testing.T) {
	t.Parallel()

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("after") == "" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{{"id": "a"}, {"id": "b"}},
				"paging": map[string]any{
					"next": server.URL + "/v18.0/act_1/insights?after=cursor_1",
				},
			})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "broken page", "code": 1},
		})
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL)
	items, err := client.FetchAll(context.Background(), Request{
		Path:    "act_1/insights",
		Version: "v18.0",
	})
	if err == nil {
		t.Fatal("expected error from second page")
	}
	if items != nil {
		t.Fatalf("expected no partial delivery, got %d items", len(items))
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "broken page" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFetchAllRejectsNonGetRequests(t *testing.T) {
	t.Parallel()

	client := NewClient(nil, "http://unused.invalid")
	if _, err := client.FetchAll(context.Background(), Request{Method: "POST", Path: "act_1/insights"}); err == nil {
		t.Fatal("expected error for POST request")
	}
}

func TestFollowRequestStripsCredentialParams(t *testing.T) {
	t.Parallel()

	req, err := followRequestFromNextURL(
		"https://graph.facebook.com/v18.0/act_1/insights?after=c2&access_token=leak&appsecret_proof=leak",
		Request{Version: "v18.0", AccessToken: "token", AppSecret: "secret"},
	)
	if err != nil {
		t.Fatalf("follow request: %v", err)
	}
	if _, ok := req.Query["access_token"]; ok {
		t.Fatal("access_token must not be carried via query")
	}
	if _, ok := req.Query["appsecret_proof"]; ok {
		t.Fatal("appsecret_proof must not be carried via query")
	}
	if req.Query["after"] != "c2" {
		t.Fatalf("expected cursor param to survive, got %q", req.Query["after"])
	}
	if req.AccessToken != "token" {
		t.Fatal("expected access token to carry over from previous request")
	}
}
