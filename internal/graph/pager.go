package graph

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// FetchAll drains a cursor-paginated listing into one ordered item slice.
// It issues the starting request, follows paging.next until a response
// carries no next URL, and concatenates page items in page order. Any page
// error discards everything fetched so far: the caller gets the full set
// or an error, never a partial sequence.
func (c *Client) FetchAll(ctx context.Context, req Request) ([]map[string]any, error) {
	if method := strings.ToUpper(strings.TrimSpace(req.Method)); method != "" && method != http.MethodGet {
		return nil, fmt.Errorf("pagination only supports GET requests")
	}

	items := make([]map[string]any, 0)
	current := req

	for {
		resp, err := c.Do(ctx, current)
		if err != nil {
			return nil, err
		}
		items = append(items, extractDataItems(resp.Body)...)

		next := extractNextPage(resp.Body)
		if next == "" {
			return items, nil
		}

		nextReq, err := followRequestFromNextURL(next, current)
		if err != nil {
			return nil, err
		}
		current = nextReq
	}
}

func extractDataItems(payload map[string]any) []map[string]any {
	raw, ok := payload["data"].([]any)
	if !ok {
		return nil
	}

	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		itemMap, ok := item.(map[string]any)
		if ok {
			out = append(out, itemMap)
		}
	}
	return out
}

func extractNextPage(payload map[string]any) string {
	paging, ok := payload["paging"].(map[string]any)
	if !ok {
		return ""
	}
	next, _ := paging["next"].(string)
	return next
}

func followRequestFromNextURL(nextURL string, previous Request) (Request, error) {
	parsed, err := url.Parse(nextURL)
	if err != nil {
		return Request{}, fmt.Errorf("parse paging.next url %q: %w", nextURL, err)
	}
	segments := strings.Split(strings.TrimPrefix(parsed.Path, "/"), "/")
	if len(segments) < 2 {
		return Request{}, fmt.Errorf("invalid paging.next path %q", parsed.Path)
	}
	version := previous.Version
	if version == "" {
		version = segments[0]
	}
	relPath := strings.Join(segments[1:], "/")

	query := map[string]string{}
	for key, values := range parsed.Query() {
		if len(values) == 0 {
			continue
		}
		if key == "access_token" || key == "appsecret_proof" {
			continue
		}
		query[key] = values[len(values)-1]
	}

	return Request{
		Method:      http.MethodGet,
		Path:        relPath,
		Version:     version,
		Query:       query,
		AccessToken: previous.AccessToken,
		AppSecret:   previous.AppSecret,
	}, nil
}
