package api

import (
	"time"

	"github.com/joestump/fera-prompt/internal/prompt"
	"github.com/joestump/fera-prompt/internal/store"
)

// DefaultModel is stored when a prompt is created without a model.
const DefaultModel = "gpt-4o"

// --- Prompt types ---

// CreatePromptRequest is the request body for POST /api/Prompts.
type CreatePromptRequest struct {
	Title     string `json:"title" validate:"notblank,max=200"`
	Body      string `json:"body" validate:"notblank,max=5000"`
	Model     string `json:"model" validate:"max=50"`
	CreatedBy string `json:"createdBy,omitempty" validate:"max=100"`
}

// UpdatePromptRequest is the request body for PUT /api/Prompts/{id}.
type UpdatePromptRequest struct {
	Title string `json:"title" validate:"notblank,max=200"`
	Body  string `json:"body" validate:"notblank,max=5000"`
	Model string `json:"model" validate:"max=50"`
}

// HistoryResponse is one recorded execution.
type HistoryResponse struct {
	ID         int64     `json:"id"`
	PromptID   int64     `json:"promptId"`
	Input      string    `json:"input"`
	Output     string    `json:"output"`
	ModelUsed  string    `json:"modelUsed"`
	ExecutedAt time.Time `json:"executedAt"`
}

// PromptResponse is the JSON representation of a prompt with its executions.
type PromptResponse struct {
	ID              int64             `json:"id"`
	Title           string            `json:"title"`
	Body            string            `json:"body"`
	Model           string            `json:"model"`
	CreatedAt       time.Time         `json:"createdAt"`
	CreatedBy       *string           `json:"createdBy"`
	PromptHistories []HistoryResponse `json:"promptHistories"`
}

// --- Execution types ---

// ExecutePromptRequest is the request body for POST /api/Prompts/execute.
// An empty model runs with the prompt's stored model.
type ExecutePromptRequest struct {
	PromptID int64  `json:"promptId" validate:"required,min=1"`
	Input    string `json:"input" validate:"notblank,max=2000"`
	Model    string `json:"model" validate:"max=50"`
}

// ExecutePromptResponse is the normalized result of one execution.
type ExecutePromptResponse struct {
	PromptID   int64     `json:"promptId"`
	Input      string    `json:"input"`
	Output     string    `json:"output"`
	ModelUsed  string    `json:"modelUsed"`
	ExecutedAt time.Time `json:"executedAt"`
}

// --- PDF types ---

// ConvertPdfRequest is the request body for POST /api/Pdf/convert.
type ConvertPdfRequest struct {
	HTML string `json:"html"`
}

func toHistoryResponses(hs []*store.History) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(hs))
	for _, h := range hs {
		out = append(out, HistoryResponse{
			ID:         h.ID,
			PromptID:   h.PromptID,
			Input:      h.Input,
			Output:     h.Output,
			ModelUsed:  h.ModelUsed,
			ExecutedAt: h.ExecutedAt,
		})
	}
	return out
}

func toPromptResponse(p *store.Prompt, hs []*store.History) PromptResponse {
	return PromptResponse{
		ID:              p.ID,
		Title:           p.Title,
		Body:            p.Body,
		Model:           p.Model,
		CreatedAt:       p.CreatedAt,
		CreatedBy:       p.CreatedBy,
		PromptHistories: toHistoryResponses(hs),
	}
}

func toExecuteResponse(r *prompt.Result) ExecutePromptResponse {
	return ExecutePromptResponse{
		PromptID:   r.PromptID,
		Input:      r.Input,
		Output:     r.Output,
		ModelUsed:  r.ModelUsed,
		ExecutedAt: r.ExecutedAt,
	}
}
