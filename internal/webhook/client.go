package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/joestump/fera-prompt/internal/metrics"
)

// Dispatcher posts an execution request and returns the raw response body.
type Dispatcher interface {
	Dispatch(ctx context.Context, req Request) (string, error)
}

// Client is the HTTP Dispatcher.
type Client struct {
	endpoints   Endpoints
	environment string
	client      *http.Client
	logger      *zap.Logger
}

// NewClient builds a Client for the given environment. A zero timeout uses
// DefaultTimeout.
func NewClient(endpoints Endpoints, environment string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoints:   endpoints,
		environment: environment,
		client:      &http.Client{Timeout: timeout},
		logger:      logger.Named("webhook"),
	}
}

// Dispatch selects the endpoint for the environment and posts req to it.
// No request is made when the endpoint is not configured.
func (c *Client) Dispatch(ctx context.Context, req Request) (string, error) {
	url, err := c.endpoints.Select(c.environment)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal webhook payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create webhook request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Info("dispatching prompt to webhook",
		zap.Int64("prompt_id", req.PromptID),
		zap.String("model", req.Model),
		zap.String("environment", c.environment),
	)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		metrics.WebhookDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		c.logger.Error("webhook transport error", zap.Int64("prompt_id", req.PromptID), zap.Error(err))
		return "", &UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	metrics.WebhookDuration.WithLabelValues(strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("webhook returned error status",
			zap.Int64("prompt_id", req.PromptID),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", respBody),
		)
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return string(respBody), nil
}
