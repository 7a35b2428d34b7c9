package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"refi-agent/domain"
	"refi-agent/service"
)

// AnalysisRequest is the wire form of an analysis scenario. Every
// field is optional: absent fields take the server's configured
// defaults, so an explicit zero is distinguishable from "not sent".
type AnalysisRequest struct {
	LoanAmount     *float64 `json:"loan_amount"`
	RatePct        *float64 `json:"rate_pct"`
	TermMonths     *int     `json:"term_months"`
	PaymentsMade   *int     `json:"payments_made"`
	SellYear       *int     `json:"sell_year"`
	SellMonth      *int     `json:"sell_month"`
	ClosingCostPct *float64 `json:"closing_cost_pct"`
}

// apply overlays the request's present fields onto the default input.
func (req AnalysisRequest) apply(base domain.AnalysisInput) domain.AnalysisInput {
	if req.LoanAmount != nil {
		base.LoanAmount = *req.LoanAmount
	}
	if req.RatePct != nil {
		base.RatePct = *req.RatePct
	}
	if req.TermMonths != nil {
		base.TermMonths = *req.TermMonths
	}
	if req.PaymentsMade != nil {
		base.PaymentsMade = *req.PaymentsMade
	}
	if req.SellYear != nil {
		base.SellYear = *req.SellYear
	}
	if req.SellMonth != nil {
		base.SellMonth = *req.SellMonth
	}
	if req.ClosingCostPct != nil {
		base.ClosingCostPct = *req.ClosingCostPct
	}
	return base
}

// statusForError maps service errors onto HTTP statuses. Bad numbers
// are the client's fault; an impossible horizon is a semantic problem
// with an otherwise well-formed request.
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidHorizon):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type AnalyzeHandler struct {
	service  *service.RefinanceService
	defaults domain.AnalysisInput
	logger   *zap.Logger
}

func NewAnalyzeHandler(service *service.RefinanceService, defaults domain.AnalysisInput, logger *zap.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{service: service, defaults: defaults, logger: logger}
}

func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	report, err := h.service.Analyze(req.apply(h.defaults))
	if err != nil {
		h.logger.Debug("analysis rejected", zap.Error(err))
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
