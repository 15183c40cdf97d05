// Package recordapi is the HTTP client for the order record backend, the
// single owner of durable order state. The gateway only ever reads records and
// asks for guarded mutations; the backend re-validates every precondition and
// answers with a modified count of zero when it no longer holds.
package recordapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"orderdesk/internal/orders"
)

var ErrNotFound = errors.New("order not found")

// MutationResult carries the backend's verdict on a guarded mutation. A
// ModifiedCount of zero means the precondition failed server-side (e.g. a
// concurrent state change) and nothing was applied.
type MutationResult struct {
	ModifiedCount int           `json:"modified_count"`
	Order         *orders.Order `json:"order,omitempty"`
}

// Applied reports whether the backend actually changed the record.
func (r MutationResult) Applied() bool { return r.ModifiedCount > 0 }

type Client struct {
	base   string
	http   *http.Client
	logger *zap.SugaredLogger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.SugaredLogger) *Client {
	return &Client{
		base:   baseURL,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// FetchOrder returns the full record.
func (c *Client) FetchOrder(ctx context.Context, id string) (orders.Order, error) {
	var o orders.Order
	err := c.do(ctx, http.MethodGet, "/orders/"+id, nil, &o)
	return o, err
}

// CreateOrder registers a new Pending order from a validated draft.
func (c *Client) CreateOrder(ctx context.Context, d orders.Draft) (orders.Order, error) {
	var o orders.Order
	err := c.do(ctx, http.MethodPost, "/orders", d, &o)
	return o, err
}

type transitionRequest struct {
	Action orders.Action `json:"action"`
}

// Transition asks the backend to apply a named transition.
func (c *Client) Transition(ctx context.Context, id string, action orders.Action) (MutationResult, error) {
	var res MutationResult
	err := c.do(ctx, http.MethodPost, "/orders/"+id+"/transitions", transitionRequest{Action: action}, &res)
	return res, err
}

type extendRequest struct {
	Deadline string `json:"deadline"` // business-zone instant, fixed pattern
}

// ExtendDeadline replaces the deadline and clears the lock server-side.
func (c *Client) ExtendDeadline(ctx context.Context, id, formatted string) (MutationResult, error) {
	var res MutationResult
	err := c.do(ctx, http.MethodPost, "/orders/"+id+"/deadline", extendRequest{Deadline: formatted}, &res)
	return res, err
}

type checkpointRequest struct {
	AccumulatedSeconds  int64 `json:"accumulated_seconds"`
	CheckpointTimestamp int64 `json:"checkpoint_timestamp"`
}

// PersistCheckpoint saves the durable (accumulatedSeconds, timestamp) pair.
func (c *Client) PersistCheckpoint(ctx context.Context, id string, accumulated, checkpoint int64) (MutationResult, error) {
	var res MutationResult
	err := c.do(ctx, http.MethodPost, "/orders/"+id+"/checkpoint",
		checkpointRequest{AccumulatedSeconds: accumulated, CheckpointTimestamp: checkpoint}, &res)
	return res, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("record backend %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 400:
		c.logger.Warnw("record backend error", "method", method, "path", path, "status", resp.StatusCode)
		return fmt.Errorf("record backend %s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}
