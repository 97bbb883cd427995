package insights

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"adpulse/internal/graph"
)

func insightsPayload(t *testing.T, rows []map[string]any) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{"data": rows})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return body
}

func dailyRow(date, spend, impressions, installs string) map[string]any {
	return map[string]any{
		"date_start":  date,
		"spend":       spend,
		"impressions": impressions,
		"actions": []map[string]any{
			{"action_type": "mobile_app_install", "value": installs},
		},
	}
}

func newRefreshServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("access_token") == "" {
			t.Errorf("request %s missing access token", r.URL.Path)
		}
		switch {
		case query.Get("time_increment") == "1" && strings.Contains(query.Get("time_range"), "2024-01-08"):
			w.Write(insightsPayload(t, []map[string]any{
				dailyRow("2024-01-09", "60.00", "12000", "4"),
				dailyRow("2024-01-08", "40.00", "8000", "6"),
			}))
		case query.Get("time_increment") == "1":
			w.Write(insightsPayload(t, []map[string]any{
				dailyRow("2024-01-01", "50.00", "10000", "5"),
			}))
		case query.Get("level") == "ad":
			w.Write(insightsPayload(t, []map[string]any{
				{"ad_id": "a1", "ad_name": "Ad One", "adset_name": "Set", "campaign_name": "Camp", "spend": "30.00"},
				{"ad_id": "a2", "ad_name": "Ad Two", "adset_name": "Set", "campaign_name": "Camp", "spend": "70.00"},
			}))
		case query.Get("level") == "campaign":
			w.Write(insightsPayload(t, []map[string]any{
				{"campaign_id": "c1", "campaign_name": "Camp", "spend": "100.00"},
			}))
		case query.Get("level") == "adset":
			w.Write(insightsPayload(t, []map[string]any{
				{"adset_id": "s1", "adset_name": "Set", "campaign_name": "Camp", "spend": "100.00"},
			}))
		default:
			t.Errorf("unexpected query shape: %s", r.URL.RawQuery)
			w.Write(insightsPayload(t, nil))
		}
	}))
}

func TestRefreshBuildsCompleteReport(t *testing.T) {
	t.Parallel()

	server := newRefreshServer(t)
	defer server.Close()

	svc := New(graph.NewClient(server.Client(), server.URL))
	report, err := svc.Refresh(context.Background(), RefreshRequest{
		ActID:           "act_123",
		Vertical:        VerticalApp,
		ConversionEvent: "app_install",
		Since:           "2024-01-08",
		Until:           "2024-01-09",
		AccessToken:     "token",
	})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if len(report.Daily) != 2 {
		t.Fatalf("daily rows: got %d, want 2", len(report.Daily))
	}
	if report.Daily[0].Date != "2024-01-08" || report.Daily[1].Date != "2024-01-09" {
		t.Fatalf("daily rows not sorted by date: %s, %s", report.Daily[0].Date, report.Daily[1].Date)
	}
	if report.Totals.Spend != 100 {
		t.Fatalf("totals spend: got %v, want 100", report.Totals.Spend)
	}
	if report.Totals.Conversions != 10 {
		t.Fatalf("totals conversions: got %v, want 10", report.Totals.Conversions)
	}
	if len(report.Ads) != 2 || report.Ads[0].ID != "a1" || report.Ads[0].Name != "Ad One" {
		t.Fatalf("unexpected ads: %+v", report.Ads)
	}
	if len(report.Campaigns) != 1 || report.Campaigns[0].Name != "Camp" {
		t.Fatalf("unexpected campaigns: %+v", report.Campaigns)
	}
	if len(report.AdSets) != 1 || report.AdSets[0].Name != "Set" {
		t.Fatalf("unexpected ad sets: %+v", report.AdSets)
	}
	if report.PrevTotals != nil || report.Deltas != nil {
		t.Fatal("comparison fields must stay empty without Compare")
	}
}

func TestRefreshCompareFillsDeltas(t *testing.T) {
	t.Parallel()

	server := newRefreshServer(t)
	defer server.Close()

	svc := New(graph.NewClient(server.Client(), server.URL))
	report, err := svc.Refresh(context.Background(), RefreshRequest{
		ActID:           "act_123",
		Vertical:        VerticalApp,
		ConversionEvent: "app_install",
		Since:           "2024-01-08",
		Until:           "2024-01-09",
		Compare:         true,
		AccessToken:     "token",
	})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if report.PrevTotals == nil {
		t.Fatal("expected previous totals")
	}
	if report.PrevTotals.Spend != 50 {
		t.Fatalf("previous spend: got %v, want 50", report.PrevTotals.Spend)
	}
	delta, ok := report.Deltas["spend"]
	if !ok {
		t.Fatal("expected a spend delta")
	}
	// 50 -> 100 is +100%.
	if delta.Percent != 100 {
		t.Fatalf("spend delta: got %v, want 100", delta.Percent)
	}
}

func TestRefreshSurfacesLabeledPipelineError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("level") == "campaign" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{
					"message": "(#100) Invalid parameter",
					"type":    "OAuthException",
					"code":    100,
				},
			})
			return
		}
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	svc := New(graph.NewClient(server.Client(), server.URL))
	report, err := svc.Refresh(context.Background(), RefreshRequest{
		ActID:       "act_123",
		Vertical:    VerticalApp,
		Since:       "2024-01-01",
		Until:       "2024-01-07",
		AccessToken: "token",
	})
	if err == nil {
		t.Fatal("expected the campaign pipeline failure to abort the refresh")
	}
	if report != nil {
		t.Fatal("a failed refresh must not yield a partial report")
	}
	if !strings.HasPrefix(err.Error(), "campaigns: ") {
		t.Fatalf("error not labeled with its query shape: %v", err)
	}
	var apiErr *graph.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected a wrapped APIError, got %T", err)
	}
	if apiErr.Message != "(#100) Invalid parameter" {
		t.Fatalf("upstream message altered: %q", apiErr.Message)
	}
}

func TestRefreshRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	svc := New(graph.NewClient(server.Client(), server.URL))
	cases := []RefreshRequest{
		{ActID: "", Since: "2024-01-01", Until: "2024-01-07"},
		{ActID: "act_1", Since: "01/01/2024", Until: "2024-01-07"},
		{ActID: "act_1", Since: "2024-01-01", Until: "nope"},
		{ActID: "act_1", Since: "2024-01-07", Until: "2024-01-01"},
	}
	for _, req := range cases {
		if _, err := svc.Refresh(context.Background(), req); err == nil {
			t.Fatalf("expected validation error for %+v", req)
		}
	}
	if got := requests.Load(); got != 0 {
		t.Fatalf("validation failures must not reach the network, saw %d requests", got)
	}
}

func TestRefreshSupersededByNewerRequest(t *testing.T) {
	t.Parallel()

	var seen atomic.Int64
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The first refresh's four pipelines stall until the second
		// refresh has fully completed.
		if seen.Add(1) <= 4 {
			<-release
		}
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	svc := New(graph.NewClient(server.Client(), server.URL))
	req := RefreshRequest{
		ActID:       "act_123",
		Vertical:    VerticalApp,
		Since:       "2024-01-01",
		Until:       "2024-01-07",
		AccessToken: "token",
	}

	stale := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(context.Background(), req)
		stale <- err
	}()

	// Wait for all of the first refresh's pipelines to be in flight so the
	// second refresh's requests are the ones the server answers.
	for seen.Load() < 4 {
		time.Sleep(time.Millisecond)
	}

	if _, err := svc.Refresh(context.Background(), req); err != nil {
		t.Fatalf("fresh refresh: %v", err)
	}
	close(release)

	if err := <-stale; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("stale refresh: got %v, want ErrSuperseded", err)
	}
}
