// Package reviewer is the HTTP client for the external AI judgment service.
package reviewer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/hmarchand/wcagaudit/internal/core"
)

const (
	defaultTimeout = 120 * time.Second
	maxErrorBody   = 2048
)

// Client talks to the review service over JSON/HTTP.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithModel selects the reviewer model.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.Timeout = d }
}

// New creates a reviewer client for the given service endpoint.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type batchRequest struct {
	Model    string           `json:"model,omitempty"`
	Criteria []core.Criterion `json:"criteria"`
	Snapshot *core.Snapshot   `json:"snapshot"`
}

type batchResponse struct {
	Findings []core.ReviewFinding `json:"findings"`
}

type singleRequest struct {
	Model     string         `json:"model,omitempty"`
	Criterion core.Criterion `json:"criterion"`
	Snapshot  *core.Snapshot `json:"snapshot"`
	Retry     bool           `json:"retry"`
}

type crossPageRequest struct {
	Model     string              `json:"model,omitempty"`
	Criterion core.Criterion      `json:"criterion"`
	Evidence  []core.PageEvidence `json:"evidence"`
}

type singleResponse struct {
	Finding *core.ReviewFinding `json:"finding"`
}

// ReviewBatch asks the service to judge several criteria in one call. The
// response may omit criteria the service could not settle.
func (c *Client) ReviewBatch(ctx context.Context, criteria []core.Criterion, snap *core.Snapshot) ([]core.ReviewFinding, error) {
	req := batchRequest{Model: c.model, Criteria: criteria, Snapshot: snap}
	var resp batchResponse
	if err := c.post(ctx, "/v1/review/batch", req, &resp); err != nil {
		return nil, err
	}
	return resp.Findings, nil
}

// ReviewOne judges a single criterion. Retry mode tells the service this is a
// second opinion on a Review verdict.
func (c *Client) ReviewOne(ctx context.Context, criterion core.Criterion, snap *core.Snapshot, retry bool) (*core.ReviewFinding, error) {
	req := singleRequest{Model: c.model, Criterion: criterion, Snapshot: snap, Retry: retry}
	var resp singleResponse
	if err := c.post(ctx, "/v1/review/single", req, &resp); err != nil {
		return nil, err
	}
	if resp.Finding == nil {
		return nil, core.ErrReview(core.CodeReviewerRejected, "service returned no finding", false)
	}
	return resp.Finding, nil
}

// ReviewCrossPage judges a criterion against the whole session's evidence.
func (c *Client) ReviewCrossPage(ctx context.Context, criterion core.Criterion, evidence []core.PageEvidence) (*core.ReviewFinding, error) {
	req := crossPageRequest{Model: c.model, Criterion: criterion, Evidence: evidence}
	var resp singleResponse
	if err := c.post(ctx, "/v1/review/crosspage", req, &resp); err != nil {
		return nil, err
	}
	if resp.Finding == nil {
		return nil, core.ErrReview(core.CodeReviewerRejected, "service returned no finding", false)
	}
	return resp.Finding, nil
}

// Ping checks service availability.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/health", nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return c.classify(ctx, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return core.ErrReview("REVIEWER_UNAVAILABLE",
			fmt.Sprintf("health check returned %s", resp.Status), true)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return c.classify(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return c.classify(ctx, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		// Server-side trouble is stall-shaped: worth one paused retry.
		return core.ErrReview(core.CodeReviewerStall,
			fmt.Sprintf("service returned %s: %s", resp.Status, truncate(data)), true)
	default:
		return core.ErrReview(core.CodeReviewerRejected,
			fmt.Sprintf("service rejected the request with %s: %s", resp.Status, truncate(data)), false)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return core.ErrReview(core.CodeReviewerRejected, "malformed service response", false).WithCause(err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// classify maps transport errors: cancellation passes through, everything
// timeout-like becomes a retryable stall.
func (c *Client) classify(ctx context.Context, err error) error {
	if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return core.ErrTimeout("reviewer call timed out").WithCause(err)
	}
	return core.ErrReview(core.CodeReviewerStall, "reviewer unreachable", true).WithCause(err)
}

func truncate(data []byte) string {
	if len(data) > maxErrorBody {
		return string(data[:maxErrorBody]) + "..."
	}
	return string(data)
}

var _ core.Reviewer = (*Client)(nil)
