package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/joestump/fera-prompt/internal/metrics"
	"github.com/joestump/fera-prompt/internal/prompt"
	"github.com/joestump/fera-prompt/internal/store"
	"github.com/joestump/fera-prompt/internal/webhook"
)

// promptsAPIHandler provides REST handlers for prompts and their executions.
type promptsAPIHandler struct {
	prompts   store.PromptStoreIface
	histories store.HistoryStoreIface
	executor  Executor
	logger    *zap.Logger
}

func registerPromptRoutes(r chi.Router, prompts store.PromptStoreIface, histories store.HistoryStoreIface, executor Executor, logger *zap.Logger) {
	h := &promptsAPIHandler{prompts: prompts, histories: histories, executor: executor, logger: logger}
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/execute", h.Execute)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/history", h.History)
}

// List returns all prompts, newest first, each with its executions.
//
// @Summary      List prompts
// @Description  Returns every prompt ordered by creation time descending, with execution history.
// @Tags         Prompts
// @Produce      json
// @Success      200  {array}   PromptResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /Prompts [get]
func (h *promptsAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	prompts, err := h.prompts.ListAll(r.Context())
	if err != nil {
		h.internalError(w, "list prompts", err)
		return
	}

	ids := make([]int64, 0, len(prompts))
	for _, p := range prompts {
		ids = append(ids, p.ID)
	}
	grouped, err := h.histories.ListByPrompts(r.Context(), ids)
	if err != nil {
		h.internalError(w, "list prompt histories", err)
		return
	}

	resp := make([]PromptResponse, 0, len(prompts))
	for _, p := range prompts {
		resp = append(resp, toPromptResponse(p, grouped[p.ID]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one prompt with its executions.
//
// @Summary      Get a prompt
// @Description  Returns a single prompt by ID with its execution history.
// @Tags         Prompts
// @Produce      json
// @Param        id   path      int  true  "Prompt ID"
// @Success      200  {object}  PromptResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /Prompts/{id} [get]
func (h *promptsAPIHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	p, err := h.prompts.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		h.notFound(w, id)
		return
	}
	if err != nil {
		h.internalError(w, "get prompt", err)
		return
	}

	hs, err := h.histories.ListByPrompt(r.Context(), id)
	if err != nil {
		h.internalError(w, "list prompt histories", err)
		return
	}
	writeJSON(w, http.StatusOK, toPromptResponse(p, hs))
}

// Create stores a new prompt.
//
// @Summary      Create a prompt
// @Description  Creates a prompt template. Model defaults to gpt-4o.
// @Tags         Prompts
// @Accept       json
// @Produce      json
// @Param        body  body      CreatePromptRequest  true  "Prompt to create"
// @Success      201   {object}  PromptResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /Prompts [post]
func (h *promptsAPIHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePromptRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.Model == "" {
		req.Model = DefaultModel
	}

	p, err := h.prompts.Create(r.Context(), store.NewPrompt{
		Title:     req.Title,
		Body:      req.Body,
		Model:     req.Model,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		h.logger.Error("create prompt failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error creating prompt", err.Error())
		return
	}
	metrics.PromptsTotal.Inc()

	w.Header().Set("Location", fmt.Sprintf("/api/Prompts/%d", p.ID))
	writeJSON(w, http.StatusCreated, toPromptResponse(p, nil))
}

// Update replaces title, body and model of a prompt. Its history is kept.
//
// @Summary      Replace a prompt
// @Description  Overwrites title, body and model. Execution history is untouched.
// @Tags         Prompts
// @Accept       json
// @Produce      json
// @Param        id    path      int                  true  "Prompt ID"
// @Param        body  body      UpdatePromptRequest  true  "New prompt content"
// @Success      200   {object}  PromptResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /Prompts/{id} [put]
func (h *promptsAPIHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req UpdatePromptRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.Model == "" {
		req.Model = DefaultModel
	}

	p, err := h.prompts.Replace(r.Context(), id, store.NewPrompt{Title: req.Title, Body: req.Body, Model: req.Model})
	if errors.Is(err, store.ErrNotFound) {
		h.notFound(w, id)
		return
	}
	if err != nil {
		h.internalError(w, "replace prompt", err)
		return
	}

	hs, err := h.histories.ListByPrompt(r.Context(), id)
	if err != nil {
		h.internalError(w, "list prompt histories", err)
		return
	}
	writeJSON(w, http.StatusOK, toPromptResponse(p, hs))
}

// Delete removes a prompt and its executions.
//
// @Summary      Delete a prompt
// @Description  Deletes the prompt and, by cascade, its execution history.
// @Tags         Prompts
// @Param        id   path  int  true  "Prompt ID"
// @Success      204
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /Prompts/{id} [delete]
func (h *promptsAPIHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	err := h.prompts.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		h.logger.Warn("delete of missing prompt", zap.Int64("prompt_id", id))
		h.notFound(w, id)
		return
	}
	if err != nil {
		h.logger.Error("delete prompt failed", zap.Int64("prompt_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error deleting prompt", err.Error())
		return
	}
	metrics.PromptsTotal.Dec()

	w.WriteHeader(http.StatusNoContent)
}

// History returns the executions of one prompt.
//
// @Summary      List executions
// @Description  Returns the execution history of a prompt, newest first.
// @Tags         Prompts
// @Produce      json
// @Param        id   path      int  true  "Prompt ID"
// @Success      200  {array}   HistoryResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /Prompts/{id}/history [get]
func (h *promptsAPIHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if _, err := h.prompts.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.notFound(w, id)
			return
		}
		h.internalError(w, "get prompt", err)
		return
	}

	hs, err := h.histories.ListByPrompt(r.Context(), id)
	if err != nil {
		h.internalError(w, "list prompt histories", err)
		return
	}
	writeJSON(w, http.StatusOK, toHistoryResponses(hs))
}

// Execute sends a prompt to the workflow webhook and records the result.
//
// @Summary      Execute a prompt
// @Description  Posts the prompt and input to the workflow webhook, normalizes the reply and stores it as history.
// @Tags         Prompts
// @Accept       json
// @Produce      json
// @Param        body  body      ExecutePromptRequest  true  "Execution request"
// @Success      200   {object}  ExecutePromptResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Failure      502   {object}  ErrorResponse
// @Router       /Prompts/execute [post]
func (h *promptsAPIHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req ExecutePromptRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.executor.Execute(r.Context(), prompt.ExecuteRequest{
		PromptID: req.PromptID,
		Input:    req.Input,
		Model:    req.Model,
	})
	if err != nil {
		h.executionError(w, req.PromptID, err)
		return
	}
	writeJSON(w, http.StatusOK, toExecuteResponse(res))
}

// executionError maps an execution failure to its HTTP status. The service
// has already logged it.
func (h *promptsAPIHandler) executionError(w http.ResponseWriter, id int64, err error) {
	var upstream *webhook.UpstreamError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("Prompt with ID %d not found", id), "")
	case errors.As(err, &upstream):
		writeError(w, http.StatusBadGateway, "Error communicating with the workflow service", upstream.Error())
	case errors.Is(err, webhook.ErrNotConfigured):
		writeError(w, http.StatusInternalServerError, "Workflow webhook is not configured", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "Error executing prompt", err.Error())
	}
}

func (h *promptsAPIHandler) notFound(w http.ResponseWriter, id int64) {
	writeError(w, http.StatusNotFound, fmt.Sprintf("Prompt with ID %d not found", id), "")
}

func (h *promptsAPIHandler) internalError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op+" failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error", "")
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid prompt id", err.Error())
		return 0, false
	}
	return id, true
}
