package bitacora

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// maxErrorBody caps how much of a failed response is kept for diagnostics.
const maxErrorBody = 512

// Client talks to the remote bitacora service.
type Client struct {
	Endpoint   string
	HTTPClient *http.Client
	UserAgent  string
}

// NewClient returns a client with its own http.Client bounded by timeout.
func NewClient(endpoint string, timeout time.Duration, userAgent string) *Client {
	return &Client{
		Endpoint:   endpoint,
		HTTPClient: &http.Client{Timeout: timeout},
		UserAgent:  userAgent,
	}
}

// Movements returns the movements recorded on the day identified by dateKey (YYMMDD).
func (c *Client) Movements(ctx context.Context, dateKey string) ([]Movement, error) {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return nil, &TransportError{Op: "request", Err: fmt.Errorf("parse endpoint: %w", err)}
	}
	q := u.Query()
	q.Set("fecha", dateKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &TransportError{Op: "request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &TransportError{Op: "request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &RemoteStatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read", Err: err}
	}
	return Decode(data)
}

// Decode parses a success body. Only a JSON array of objects is accepted;
// a null body or non-object elements are malformed.
func Decode(data []byte) ([]Movement, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &TransportError{Op: "decode", Err: fmt.Errorf("expected JSON array, got %q", preview(trimmed))}
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, &TransportError{Op: "decode", Err: err}
	}
	out := make([]Movement, 0, len(raw))
	for i, elem := range raw {
		elem = bytes.TrimSpace(elem)
		if len(elem) == 0 || elem[0] != '{' {
			return nil, &TransportError{Op: "decode", Err: fmt.Errorf("element %d: expected object, got %q", i, preview(elem))}
		}
		var m Movement
		if err := json.Unmarshal(elem, &m); err != nil {
			return nil, &TransportError{Op: "decode", Err: fmt.Errorf("element %d: %w", i, err)}
		}
		out = append(out, m)
	}
	return out, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func preview(b []byte) string {
	if len(b) > 40 {
		return string(b[:40]) + "..."
	}
	return string(b)
}
