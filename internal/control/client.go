package control

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"codeberg.org/mutker/brewmon/internal/errors"
	"codeberg.org/mutker/brewmon/internal/logger"
)

const defaultTimeout = 10 * time.Second

// Refresher is the slice of the status channel the control client needs:
// after a successful mutation it makes sure the channel is connected so
// the resulting state change is observed.
type Refresher interface {
	EnsureConnected()
}

// StartRequest is the body of a brew start request.
type StartRequest struct {
	TargetFlowRate float64           `json:"target_flow_rate"`
	ValveInterval  float64           `json:"valve_interval"`
	Epsilon        float64           `json:"epsilon"`
	TargetWeight   float64           `json:"target_weight"`
	VesselWeight   float64           `json:"vessel_weight"`
	Strategy       string            `json:"strategy"`
	StrategyParams map[string]string `json:"strategy_params"`
}

// Client issues one-shot control requests against the API base URL.
type Client struct {
	apiBase string
	http    *http.Client
	channel Refresher
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = timeout
	}
}

// WithHTTPClient substitutes the HTTP client, mainly for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.http = httpClient
	}
}

// NewClient constructs a control client. channel may be nil when no
// status channel should be refreshed after mutations.
func NewClient(apiBase string, channel Refresher, opts ...Option) *Client {
	c := &Client{
		apiBase: apiBase,
		http:    &http.Client{Timeout: defaultTimeout},
		channel: channel,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start begins a new brew with the given parameters.
func (c *Client) Start(ctx context.Context, req StartRequest) error {
	return c.post(ctx, "/brew/start", &req)
}

// Pause pauses the brew in progress.
func (c *Client) Pause(ctx context.Context) error {
	return c.post(ctx, "/brew/pause", nil)
}

// Resume resumes a paused brew.
func (c *Client) Resume(ctx context.Context) error {
	return c.post(ctx, "/brew/resume", nil)
}

// NudgeOpen steps the valve open slightly. The controller rate-limits
// nudges; a 429 response surfaces as ErrRateLimited.
func (c *Client) NudgeOpen(ctx context.Context) error {
	return c.post(ctx, "/brew/nudge/open", nil)
}

// NudgeClose steps the valve closed slightly.
func (c *Client) NudgeClose(ctx context.Context) error {
	return c.post(ctx, "/brew/nudge/close", nil)
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	errFactory := errors.New()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errFactory.Wrap(ErrBuildRequest, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+path, reader)
	if err != nil {
		return errFactory.Wrap(ErrBuildRequest, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errFactory.Wrap(ErrSendRequest, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests {
		logger.Debug().Str("path", path).Msg("Control request rate limited")
		return errFactory.WithData(ErrRateLimited, resp.Status)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return errFactory.WithData(ErrRequestFailed, resp.Status)
	}

	logger.Debug().Str("path", path).Msg("Control request succeeded")

	if c.channel != nil {
		c.channel.EnsureConnected()
	}

	return nil
}

// IsRateLimited reports whether err is the rate-limit failure kind.
func IsRateLimited(err error) bool {
	return errors.IsCode(err, ErrRateLimited)
}
