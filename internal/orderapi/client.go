// Package orderapi is the HTTP client for the remote order-management
// API. The upstream is a black box returning a {success, data, message}
// envelope of shape-variable order records; decoding beyond the
// envelope is the normalizer's job.
package orderapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yalgud-dairy/orders-admin/internal/domain"
)

// ErrSuperseded reports that a fetch was cancelled because a newer
// fetch was started. Callers discard the result silently.
var ErrSuperseded = errors.New("fetch superseded by a newer request")

// envelope is the upstream response wrapper.
type envelope struct {
	Success bool             `json:"success"`
	Data    []map[string]any `json:"data"`
	Message string           `json:"message"`
}

// Client fetches order batches by status. At most one fetch is in
// flight: starting a new one cancels its predecessor first.
type Client struct {
	baseURL string
	http    *http.Client

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// New builds a Client for the given API base URL ("…/api").
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchByStatus retrieves all orders in the given status. Non-2xx
// responses and success=false envelopes are errors; a fetch aborted by
// a newer one returns ErrSuperseded.
func (c *Client) FetchByStatus(ctx context.Context, status domain.OrderStatus) ([]map[string]any, error) {
	ctx, gen := c.begin(ctx)

	url := fmt.Sprintf("%s/orders/Status/%s", c.baseURL, status.Label())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil && c.superseded(gen) {
			return nil, ErrSuperseded
		}
		return nil, fmt.Errorf("fetch %s orders: %w", status, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		// Cancellation can also surface here, mid-body.
		if ctx.Err() != nil && c.superseded(gen) {
			return nil, ErrSuperseded
		}
		return nil, fmt.Errorf("read order response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Response text goes into the diagnostic, as the admin page did.
		return nil, fmt.Errorf("order API returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "failed to load orders"
		}
		return nil, fmt.Errorf("order API failure: %s", msg)
	}

	log.Debug().Int("count", len(env.Data)).Str("status", string(status)).Msg("fetched orders")
	return env.Data, nil
}

// begin cancels any in-flight fetch and registers this one.
func (c *Client) begin(parent context.Context) (context.Context, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	c.gen++
	c.cancel = cancel
	return ctx, c.gen
}

// superseded reports whether a newer fetch has started since gen.
func (c *Client) superseded(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen != gen
}
