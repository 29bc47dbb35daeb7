// Package prompt runs a stored prompt through the workflow webhook and
// records the normalized result as execution history.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/joestump/fera-prompt/internal/metrics"
	"github.com/joestump/fera-prompt/internal/store"
	"github.com/joestump/fera-prompt/internal/webhook"
)

// PromptGetter loads a prompt by id. store.PromptStore satisfies it.
type PromptGetter interface {
	GetByID(ctx context.Context, id int64) (*store.Prompt, error)
}

// HistoryWriter persists one execution. store.HistoryStore satisfies it.
type HistoryWriter interface {
	Create(ctx context.Context, h store.NewHistory) (*store.History, error)
}

// ExecuteRequest identifies the prompt to run and the caller's input. An
// empty Model falls back to the prompt's stored model.
type ExecuteRequest struct {
	PromptID int64
	Input    string
	Model    string
}

// Result is the outcome of a successful execution.
type Result struct {
	PromptID   int64
	Input      string
	Output     string
	ModelUsed  string
	ExecutedAt time.Time
}

// Stage names the step an execution failed in.
type Stage string

const (
	StageLoading     Stage = "loading"
	StageDispatching Stage = "dispatching"
	StageNormalizing Stage = "normalizing"
	StagePersisting  Stage = "persisting"
)

// StageError wraps a failure with the stage it happened in. Callers match the
// underlying cause with errors.Is and errors.As.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// Service executes prompts.
type Service struct {
	prompts    PromptGetter
	histories  HistoryWriter
	dispatcher webhook.Dispatcher
	logger     *zap.Logger
}

func NewService(prompts PromptGetter, histories HistoryWriter, dispatcher webhook.Dispatcher, logger *zap.Logger) *Service {
	return &Service{
		prompts:    prompts,
		histories:  histories,
		dispatcher: dispatcher,
		logger:     logger.Named("prompt"),
	}
}

// Execute loads the prompt, dispatches it, normalizes the reply and records
// it. Nothing is written unless a usable output was extracted; a failure in
// any stage returns immediately without retrying.
func (s *Service) Execute(ctx context.Context, req ExecuteRequest) (*Result, error) {
	p, err := s.prompts.GetByID(ctx, req.PromptID)
	if err != nil {
		return nil, s.fail(StageLoading, req, err)
	}

	model := req.Model
	if model == "" {
		model = p.Model
	}

	raw, err := s.dispatcher.Dispatch(ctx, webhook.Request{
		PromptID:   p.ID,
		Model:      model,
		Input:      req.Input,
		PromptBody: p.Body,
	})
	if err != nil {
		return nil, s.fail(StageDispatching, req, err)
	}

	output, err := webhook.Normalize(raw)
	if err != nil {
		return nil, s.fail(StageNormalizing, req, err)
	}

	h, err := s.histories.Create(ctx, store.NewHistory{
		PromptID:  p.ID,
		Input:     req.Input,
		Output:    output,
		ModelUsed: model,
	})
	if err != nil {
		return nil, s.fail(StagePersisting, req, err)
	}

	metrics.ExecutionsTotal.WithLabelValues("success").Inc()
	metrics.HistoryRecordedTotal.Inc()
	s.logger.Info("prompt executed",
		zap.Int64("prompt_id", p.ID),
		zap.Int64("history_id", h.ID),
		zap.String("model", model),
	)

	return &Result{
		PromptID:   p.ID,
		Input:      h.Input,
		Output:     h.Output,
		ModelUsed:  h.ModelUsed,
		ExecutedAt: h.ExecutedAt,
	}, nil
}

func (s *Service) fail(stage Stage, req ExecuteRequest, err error) error {
	metrics.ExecutionsTotal.WithLabelValues(outcome(err)).Inc()

	fields := []zap.Field{
		zap.String("stage", string(stage)),
		zap.Int64("prompt_id", req.PromptID),
		zap.Error(err),
	}
	var ue *webhook.UnextractableError
	if errors.As(err, &ue) {
		fields = append(fields, zap.String("raw_body", ue.Body))
	}
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("prompt execution failed", fields...)
	} else {
		s.logger.Error("prompt execution failed", fields...)
	}
	return &StageError{Stage: stage, Err: err}
}

func outcome(err error) string {
	var upstream *webhook.UpstreamError
	var unextractable *webhook.UnextractableError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, webhook.ErrNotConfigured):
		return "not_configured"
	case errors.As(err, &upstream):
		return "upstream_error"
	case errors.Is(err, webhook.ErrEmptyResponse),
		errors.Is(err, webhook.ErrMalformedResponse),
		errors.As(err, &unextractable):
		return "bad_response"
	default:
		return "error"
	}
}
