package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	internal_errors "github.com/safespace-dev/safespace/internal/errors"
)

// maxErrorBodyLen bounds how much of a non-JSON error body is kept as message.
const maxErrorBodyLen = 512

// APIClient struct handles all communication with the remote API.
type APIClient struct {
	BaseURL    string
	HttpClient *http.Client
}

// New creates a client for the API rooted at baseURL, e.g. "http://api:8080/api".
func New(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HttpClient: &http.Client{Timeout: timeout},
	}
}

// do is the single, unified helper for making API requests.
// It accepts an optional slice of cookies to be attached to the request.
func (c *APIClient) do(ctx context.Context, method, path string, body io.Reader, cookies ...*http.Cookie) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create API request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend unavailable: %w", err)
	}
	return resp, nil
}

// call performs a request for gateway operation op and returns the response
// payload with the envelope removed. Every failure comes back as
// *errors.APIError.
func (c *APIClient) call(ctx context.Context, op, method, path string, in any, cookies ...*http.Cookie) (payload json.RawMessage, err error) {
	start := time.Now()
	defer func() { observeCall(op, start, err) }()

	var body io.Reader
	if in != nil {
		jsonBody, err := json.Marshal(in)
		if err != nil {
			return nil, &internal_errors.APIError{Op: op, Kind: internal_errors.KindUnknown, Err: fmt.Errorf("failed to marshal request: %w", err)}
		}
		body = bytes.NewReader(jsonBody)
	}

	resp, err := c.do(ctx, method, path, body, cookies...)
	if err != nil {
		return nil, &internal_errors.APIError{Op: op, Kind: internal_errors.KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &internal_errors.APIError{Op: op, Kind: internal_errors.KindNetwork, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	payload, message, rejected := unwrapEnvelope(bodyBytes)

	if rejected || resp.StatusCode < 200 || resp.StatusCode > 299 {
		if message == "" && !rejected {
			message = plainErrorBody(bodyBytes)
		}
		return nil, &internal_errors.APIError{
			Op:         op,
			Kind:       internal_errors.ClassifyStatus(resp.StatusCode, message),
			StatusCode: resp.StatusCode,
			Message:    message,
		}
	}
	return payload, nil
}

// plainErrorBody keeps short non-JSON error bodies (e.g. from a proxy).
func plainErrorBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" || len(text) > maxErrorBodyLen || strings.HasPrefix(text, "<") {
		return ""
	}
	return text
}

// CookieFromToken builds the session cookie the remote API expects, for
// callers that hold a raw token instead of a browser request.
func CookieFromToken(name, token string) *http.Cookie {
	return &http.Cookie{Name: name, Value: token}
}
