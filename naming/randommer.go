package naming

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const DefaultRandommerURL = "https://randommer.io"

// Randommer fetches full names from randommer.io. It never fails: any error
// is logged and replaced by a deterministic "User{n}" pool.
type Randommer struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
}

func NewRandommer(baseURL, apiKey string, timeout time.Duration) *Randommer {
	if baseURL == "" {
		baseURL = DefaultRandommerURL
	}
	if apiKey == "" {
		apiKey = "demo-key"
	}
	return &Randommer{
		baseURL: baseURL,
		apiKey:  apiKey,
		timeout: timeout,
		client:  &http.Client{},
	}
}

// FetchNames returns a pool for count bots. A successful fetch may return
// fewer names than asked for; the synthesizer covers the gap per slot.
func (r *Randommer) FetchNames(ctx context.Context, count int) []string {
	names, err := r.fetch(ctx, count)
	if err != nil {
		log.Printf("[NAMES] Falling back to generated names for %d bots: %v", count, err)
		return FallbackNames(count)
	}
	log.Printf("[NAMES] Fetched %d/%d names from %s", len(names), count, r.baseURL)
	return names
}

func (r *Randommer) fetch(ctx context.Context, count int) ([]string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	q := url.Values{}
	q.Set("nameType", "fullname")
	q.Set("quantity", strconv.Itoa(count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/api/Name?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", r.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("randommer error (status %d): %s", resp.StatusCode, string(body))
	}

	var names []string
	if err := json.Unmarshal(body, &names); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("randommer returned no names")
	}
	return names, nil
}

// FallbackNames returns ["User1", ..., "User{count}"].
func FallbackNames(count int) []string {
	if count < 0 {
		count = 0
	}
	names := make([]string, count)
	for i := range names {
		names[i] = "User" + strconv.Itoa(i+1)
	}
	return names
}
