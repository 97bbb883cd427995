package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"adpulse/internal/graph"
)

// ErrSuperseded reports that a newer refresh was started before this one
// finished; the stale result is discarded instead of overwriting fresher
// state.
var ErrSuperseded = errors.New("refresh superseded by a newer request")

const (
	pageLimit = 100

	baseMeasures = "spend,impressions,reach,cpm," +
		"cost_per_unique_outbound_click,unique_outbound_clicks_ctr," +
		"actions,cost_per_action_type"
)

// Service runs one dashboard refresh end to end: it issues the query
// shapes concurrently, normalizes and aggregates the results, and compares
// periods. It holds no business state between invocations; the only thing
// it keeps is the generation counter that detects superseded refreshes.
type Service struct {
	Client *graph.Client

	generation atomic.Uint64
}

func New(client *graph.Client) *Service {
	if client == nil {
		client = graph.NewClient(nil, "")
	}
	return &Service{Client: client}
}

// RefreshRequest is the immutable per-invocation configuration: which
// account, which vertical semantics, and which inclusive day range.
type RefreshRequest struct {
	ActID           string
	Vertical        Vertical
	ConversionEvent string
	Since           string
	Until           string
	Compare         bool
	GraphVersion    string
	AccessToken     string
	AppSecret       string
}

// Report is one complete, internally consistent refresh result. Callers
// never see a partially filled Report: a refresh yields either this or an
// error.
type Report struct {
	Generation uint64

	Daily     []Row
	Campaigns []Row
	AdSets    []Row
	Ads       []Row
	Totals    Totals

	PrevDaily  []Row
	PrevTotals *Totals
	Deltas     map[string]Delta
}

type fetchJob struct {
	label string
	query map[string]string
}

// Refresh fetches, normalizes, and aggregates one dashboard view. The
// four-to-five query pipelines run concurrently and join fail-fast: the
// first error cancels the siblings, aborts the refresh, and is the only
// one surfaced, labeled with the query shape it came from.
func (s *Service) Refresh(ctx context.Context, req RefreshRequest) (*Report, error) {
	actID := strings.TrimSpace(req.ActID)
	if actID == "" {
		return nil, errors.New("act id is required")
	}
	since, err := time.Parse(dateLayout, req.Since)
	if err != nil {
		return nil, fmt.Errorf("invalid since date %q: expected YYYY-MM-DD", req.Since)
	}
	until, err := time.Parse(dateLayout, req.Until)
	if err != nil {
		return nil, fmt.Errorf("invalid until date %q: expected YYYY-MM-DD", req.Until)
	}
	if until.Before(since) {
		return nil, fmt.Errorf("invalid date range: until %s precedes since %s", req.Until, req.Since)
	}

	generation := s.generation.Add(1)

	timeRange := encodeTimeRange(req.Since, req.Until)
	jobs := []fetchJob{
		{label: "account", query: map[string]string{
			"level":          "account",
			"fields":         entityFields(req.Vertical),
			"time_range":     timeRange,
			"time_increment": "1",
			"limit":          strconv.Itoa(pageLimit),
		}},
		{label: "ads", query: map[string]string{
			"level":      "ad",
			"fields":     adFields(req.Vertical),
			"time_range": timeRange,
			"limit":      strconv.Itoa(pageLimit),
		}},
		{label: "campaigns", query: map[string]string{
			"level":      "campaign",
			"fields":     "campaign_id,campaign_name," + entityFields(req.Vertical),
			"time_range": timeRange,
			"limit":      strconv.Itoa(pageLimit),
		}},
		{label: "ad sets", query: map[string]string{
			"level":      "adset",
			"fields":     "adset_id,adset_name,campaign_id,campaign_name," + entityFields(req.Vertical),
			"time_range": timeRange,
			"limit":      strconv.Itoa(pageLimit),
		}},
	}
	if req.Compare {
		prevStart, prevEnd := PreviousPeriod(since, until)
		jobs = append(jobs, fetchJob{label: "previous period", query: map[string]string{
			"level":          "account",
			"fields":         entityFields(req.Vertical),
			"time_range":     encodeTimeRange(prevStart.Format(dateLayout), prevEnd.Format(dateLayout)),
			"time_increment": "1",
			"limit":          strconv.Itoa(pageLimit),
		}})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([][]map[string]any, len(jobs))
	errs := make(chan error, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job fetchJob) {
			defer wg.Done()
			items, err := s.Client.FetchAll(ctx, graph.Request{
				Method:      "GET",
				Path:        fmt.Sprintf("%s/insights", actID),
				Version:     req.GraphVersion,
				Query:       job.query,
				AccessToken: req.AccessToken,
				AppSecret:   req.AppSecret,
			})
			if err != nil {
				errs <- fmt.Errorf("%s: %w", job.label, err)
				cancel()
				return
			}
			results[i] = items
		}(i, job)
	}
	wg.Wait()
	close(errs)
	if err := <-errs; err != nil {
		return nil, err
	}

	report := &Report{
		Generation: generation,
		Daily:      parseRows(results[0], req.Vertical, req.ConversionEvent),
		Ads:        parseRows(results[1], req.Vertical, req.ConversionEvent),
		Campaigns:  parseRows(results[2], req.Vertical, req.ConversionEvent),
		AdSets:     parseRows(results[3], req.Vertical, req.ConversionEvent),
	}
	sortByDate(report.Daily)
	report.Totals = Aggregate(report.Daily)

	if req.Compare {
		prevDaily := parseRows(results[4], req.Vertical, req.ConversionEvent)
		sortByDate(prevDaily)
		prevTotals := Aggregate(prevDaily)
		report.PrevDaily = prevDaily
		report.PrevTotals = &prevTotals
		report.Deltas = Compare(report.Totals, prevTotals, MetricsFor(req.Vertical, req.ConversionEvent))
	}

	if s.generation.Load() != generation {
		return nil, ErrSuperseded
	}
	return report, nil
}

func parseRows(items []map[string]any, vertical Vertical, conversionEvent string) []Row {
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, ParseRow(item, vertical, conversionEvent))
	}
	return rows
}

func sortByDate(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date < rows[j].Date
	})
}

func encodeTimeRange(since, until string) string {
	encoded, _ := json.Marshal(map[string]string{"since": since, "until": until})
	return string(encoded)
}

func entityFields(v Vertical) string {
	fields := "date_start," + baseMeasures
	if v == VerticalEcom {
		fields += ",action_values"
	}
	return fields
}

func adFields(v Vertical) string {
	fields := "ad_id,ad_name,adset_name,campaign_name," + baseMeasures
	if v == VerticalEcom {
		fields += ",action_values"
	}
	return fields
}
