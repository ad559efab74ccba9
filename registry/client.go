package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the bot-master backend. Every registry response is wrapped
// in the same {success, message, data} envelope.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

// NewClient bounds each call by timeout unless the caller's context already
// carries a deadline, in which case that deadline alone applies.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http:    &http.Client{},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Reply carries the service's own message on success, for operator notices.
type Reply struct {
	Message string
}

func (c *Client) get(ctx context.Context, op, path string, out any) (*Reply, error) {
	return c.do(ctx, op, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, op, path string, in, out any) (*Reply, error) {
	return c.do(ctx, op, http.MethodPost, path, in, out)
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) (*Reply, error) {
	var body io.Reader
	if in != nil {
		jsonBody, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to marshal request: %w", op, err)
		}
		body = bytes.NewReader(jsonBody)
	}

	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			Err:        fmt.Errorf("status %d", resp.StatusCode),
		}
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Body: string(respBody), Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	if !env.Success {
		return nil, &ApplicationError{Op: op, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Body: string(respBody), Err: fmt.Errorf("failed to parse data: %w", err)}
		}
	}

	return &Reply{Message: env.Message}, nil
}
