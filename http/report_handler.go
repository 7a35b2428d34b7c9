package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"refi-agent/domain"
	"refi-agent/service"
)

// ReportHandler serves the rendered markdown report instead of the raw
// JSON figures.
type ReportHandler struct {
	service  *service.RefinanceService
	defaults domain.AnalysisInput
	logger   *zap.Logger
}

func NewReportHandler(service *service.RefinanceService, defaults domain.AnalysisInput, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{service: service, defaults: defaults, logger: logger}
}

func (h *ReportHandler) Report(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return
	}

	var req AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug("undecodable report request", zap.Error(err))
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	report, err := h.service.Analyze(req.apply(h.defaults))
	if err != nil {
		h.logger.Debug("report rejected", zap.Error(err))
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	if _, err := io.WriteString(w, service.RenderMarkdown(report)); err != nil {
		h.logger.Warn("failed to write report response", zap.Error(err))
	}
}
