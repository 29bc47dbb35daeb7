// Package webhook dispatches prompt executions to the external workflow
// webhook and turns its free-form reply into a single output string.
package webhook

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultTimeout bounds a single webhook call. Generation on the workflow
// side can take minutes.
const DefaultTimeout = 120 * time.Second

// ErrNotConfigured is returned when the webhook URLs are unset.
var ErrNotConfigured = errors.New("webhook URL is not configured")

// Request is the JSON payload posted to the webhook.
type Request struct {
	PromptID   int64  `json:"promptId"`
	Model      string `json:"model"`
	Input      string `json:"input"`
	PromptBody string `json:"promptBody"`
}

// Endpoints holds the two configured webhook URLs.
type Endpoints struct {
	TestURL       string
	ProductionURL string
}

// Select returns the test URL in Development and the production URL in every
// other environment. Both URLs must be set.
func (e Endpoints) Select(environment string) (string, error) {
	if e.TestURL == "" || e.ProductionURL == "" {
		return "", ErrNotConfigured
	}
	if strings.EqualFold(environment, "Development") {
		return e.TestURL, nil
	}
	return e.ProductionURL, nil
}

// UpstreamError reports a failed webhook call: either a transport error or a
// non-2xx status. StatusCode is zero for transport errors.
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("webhook request failed: %v", e.Err)
	}
	return fmt.Sprintf("webhook returned status %d", e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
