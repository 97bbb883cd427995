package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"adpulse/internal/auth"
	"adpulse/internal/config"
)

const DefaultBaseURL = "https://graph.facebook.com"

type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Client issues Graph API requests. There is no retry layer: a failed
// refresh is reported once and left for the caller to re-invoke.
type Client struct {
	BaseURL   string
	HTTP      HTTPClient
	UserAgent string
}

type Request struct {
	Method      string
	Path        string
	Version     string
	Query       map[string]string
	AccessToken string
	AppSecret   string
}

type Response struct {
	StatusCode int
	Body       map[string]any
	Raw        []byte
	Headers    http.Header
}

func NewClient(httpClient HTTPClient, baseURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		BaseURL:   strings.TrimSuffix(baseURL, "/"),
		HTTP:      httpClient,
		UserAgent: "adpulse/1.0",
	}
}

func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	if req.Path == "" {
		return nil, errors.New("graph request path is required")
	}
	version := req.Version
	if version == "" {
		version = config.DefaultGraphVersion
	}

	endpoint, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse graph base url: %w", err)
	}
	endpoint.Path = path.Join(endpoint.Path, version, strings.TrimPrefix(req.Path, "/"))

	query := url.Values{}
	for key, value := range req.Query {
		query.Set(key, value)
	}
	if req.AccessToken != "" {
		query.Set("access_token", req.AccessToken)
	}
	if req.AccessToken != "" && req.AppSecret != "" {
		proof, err := auth.AppSecretProof(req.AccessToken, req.AppSecret)
		if err != nil {
			return nil, err
		}
		query.Set("appsecret_proof", proof)
	}
	endpoint.RawQuery = query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build graph request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.UserAgent)

	httpRes, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Message: fmt.Sprintf("send request: %v", err)}
	}
	defer httpRes.Body.Close()

	body, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return nil, &TransportError{Message: fmt.Sprintf("read response: %v", err)}
	}

	parsed := map[string]any{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, &TransportError{
				Message:    fmt.Sprintf("decode response JSON: %v", err),
				StatusCode: httpRes.StatusCode,
			}
		}
	}

	if apiErr := parseAPIError(httpRes.StatusCode, parsed); apiErr != nil {
		return nil, apiErr
	}
	if httpRes.StatusCode < 200 || httpRes.StatusCode >= 300 {
		return nil, &TransportError{
			Message:    fmt.Sprintf("request failed with status %d", httpRes.StatusCode),
			StatusCode: httpRes.StatusCode,
		}
	}

	return &Response{
		StatusCode: httpRes.StatusCode,
		Body:       parsed,
		Raw:        body,
		Headers:    httpRes.Header.Clone(),
	}, nil
}

func parseAPIError(statusCode int, payload map[string]any) *APIError {
	rawErr, ok := payload["error"]
	if !ok {
		return nil
	}
	errMap, ok := rawErr.(map[string]any)
	if !ok {
		return &APIError{
			Type:       "unknown",
			Message:    "unparseable error payload",
			StatusCode: statusCode,
		}
	}

	message, _ := errMap["message"].(string)
	errType, _ := errMap["type"].(string)
	trace, _ := errMap["fbtrace_id"].(string)

	return &APIError{
		Type:         errType,
		Code:         intFromAny(errMap["code"]),
		ErrorSubcode: intFromAny(errMap["error_subcode"]),
		Message:      message,
		FBTraceID:    trace,
		StatusCode:   statusCode,
	}
}

func intFromAny(value any) int {
	switch typed := value.(type) {
	case float64:
		return int(typed)
	case int:
		return typed
	case string:
		parsed, err := strconv.Atoi(typed)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
