package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"refi-agent/service"
)

const (
	defaultRecentLimit = 5
	maxRecentLimit     = 50
)

// RecentHandler lists the latest stored analyses.
type RecentHandler struct {
	service *service.RefinanceService
	logger  *zap.Logger
}

func NewRecentHandler(service *service.RefinanceService, logger *zap.Logger) *RecentHandler {
	return &RecentHandler{service: service, logger: logger}
}

func (h *RecentHandler) Recent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	reports, err := h.service.Recent(limit)
	if err != nil {
		h.logger.Error("failed to list recent analyses", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Codificar JSON en buffer primero para evitar escribir header si falla
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(reports); err != nil {
		h.logger.Error("failed to encode recent analyses", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("failed to write response", zap.Error(err))
	}
}
