package pdf

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/joestump/fera-prompt/internal/metrics"
)

// ErrInvalidInput is returned for empty or whitespace-only HTML.
var ErrInvalidInput = errors.New("html content is required")

// RenderError reports a failure inside the browser engine.
type RenderError struct {
	Op  string // "launch" or "render"
	Err error
}

func (e *RenderError) Error() string { return fmt.Sprintf("pdf %s: %v", e.Op, e.Err) }

func (e *RenderError) Unwrap() error { return e.Err }

// Engine starts a browser process from an executable path.
type Engine interface {
	Launch(ctx context.Context, bin string) (Session, error)
}

// Session is one browser process. It is never shared between requests.
type Session interface {
	PrintPDF(ctx context.Context, html string) ([]byte, error)
	Close() error
}

// Renderer converts HTML documents to A4 PDFs.
type Renderer struct {
	gate   *Gate
	engine Engine
	logger *zap.Logger
}

func NewRenderer(gate *Gate, engine Engine, logger *zap.Logger) *Renderer {
	return &Renderer{gate: gate, engine: engine, logger: logger.Named("pdf")}
}

// Render provisions the browser, launches a fresh process for this call and
// prints html. The process is torn down before Render returns.
func (r *Renderer) Render(ctx context.Context, html string) (_ []byte, err error) {
	if strings.TrimSpace(html) == "" {
		return nil, ErrInvalidInput
	}

	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		metrics.PDFRendersTotal.WithLabelValues(outcome).Inc()
		if err == nil {
			metrics.PDFRenderDuration.Observe(time.Since(start).Seconds())
		}
	}()

	bin, err := r.gate.EnsureExecutable(ctx)
	if err != nil {
		return nil, err
	}

	sess, err := r.engine.Launch(ctx, bin)
	if err != nil {
		r.logger.Error("browser launch failed", zap.String("bin", bin), zap.Error(err))
		return nil, &RenderError{Op: "launch", Err: err}
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			r.logger.Warn("browser teardown failed", zap.Error(cerr))
		}
	}()

	out, err := sess.PrintPDF(ctx, html)
	if err != nil {
		r.logger.Error("pdf render failed", zap.Int("html_len", len(html)), zap.Error(err))
		return nil, &RenderError{Op: "render", Err: err}
	}
	return out, nil
}
