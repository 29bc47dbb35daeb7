package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/joestump/fera-prompt/internal/pdf"
)

type pdfAPIHandler struct {
	renderer PDFRenderer
	logger   *zap.Logger
	now      func() time.Time
}

func registerPDFRoutes(r chi.Router, renderer PDFRenderer, logger *zap.Logger) {
	h := &pdfAPIHandler{renderer: renderer, logger: logger, now: time.Now}
	r.Post("/convert", h.Convert)
}

// Convert renders the posted HTML to an A4 PDF.
//
// @Summary      Convert HTML to PDF
// @Description  Renders the HTML in headless Chromium once network activity is idle and returns an A4 PDF with backgrounds.
// @Tags         Pdf
// @Accept       json
// @Produce      application/pdf
// @Param        body  body      ConvertPdfRequest  true  "HTML document"
// @Success      200   {file}    binary
// @Failure      400   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Failure      502   {object}  ErrorResponse
// @Router       /Pdf/convert [post]
func (h *pdfAPIHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req ConvertPdfRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	out, err := h.renderer.Render(r.Context(), req.HTML)
	if err != nil {
		var re *pdf.RenderError
		switch {
		case errors.Is(err, pdf.ErrInvalidInput):
			writeValidationError(w, map[string][]string{"html": {"html is required"}})
		case errors.As(err, &re):
			h.logger.Error("pdf rendering failed", zap.Error(err))
			writeError(w, http.StatusBadGateway, "Error running headless Chromium", err.Error())
		default:
			h.logger.Error("unexpected pdf conversion error", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Unexpected error generating PDF", err.Error())
		}
		return
	}

	name := fmt.Sprintf("document-%s.pdf", h.now().UTC().Format("20060102150405"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}
