package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/joestump/fera-prompt/internal/prompt"
	"github.com/joestump/fera-prompt/internal/store"
)

// Executor runs a prompt through the webhook. *prompt.Service satisfies it.
type Executor interface {
	Execute(ctx context.Context, req prompt.ExecuteRequest) (*prompt.Result, error)
}

// PDFRenderer converts HTML to PDF bytes. *pdf.Renderer satisfies it.
type PDFRenderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// Deps holds all dependencies required to build the API router.
type Deps struct {
	Prompts   store.PromptStoreIface
	Histories store.HistoryStoreIface
	Executor  Executor
	Renderer  PDFRenderer
	Logger    *zap.Logger
}

// NewAPIRouter creates a chi sub-router meant to be mounted at /api.
func NewAPIRouter(deps Deps) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Route("/Prompts", func(r chi.Router) {
		r.Use(jsonContentType)
		registerPromptRoutes(r, deps.Prompts, deps.Histories, deps.Executor, logger)
	})
	r.Route("/Pdf", func(r chi.Router) {
		registerPDFRoutes(r, deps.Renderer, logger)
	})

	return r
}

// jsonContentType is a middleware that sets Content-Type: application/json on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
