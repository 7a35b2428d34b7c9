package service

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"refi-agent/domain"
	"refi-agent/repository"
)

// SearchTotals carries the fixed benchmark figures every candidate rate
// is measured against. They depend only on the original loan and the
// horizon, so they are computed once per analysis and reused by the
// scan, the comparison table and the report.
type SearchTotals struct {
	RemainingPrincipal        float64
	ClosingCosts              float64
	RefinancedPrincipal       float64
	OriginalPayment           float64
	OriginalCostAtSale        float64
	OriginalRemainingPayments float64
}

type RefinanceService struct {
	repo   repository.AnalysisRepository
	cache  repository.AnalysisCache
	expl   *ExplanationService
	logger *zap.Logger
}

func NewRefinanceService(repo repository.AnalysisRepository, cache repository.AnalysisCache, logger *zap.Logger) *RefinanceService {
	return &RefinanceService{
		repo:   repo,
		cache:  cache,
		expl:   NewExplanationService(logger),
		logger: logger,
	}
}

// Analyze runs the full tipping-point study for one scenario: validate,
// resolve the sale horizon, scan candidate rates, build the comparison
// table and persist the result. Identical inputs are served from cache.
func (s *RefinanceService) Analyze(input domain.AnalysisInput) (domain.AnalysisReport, error) {
	if err := validateInput(input); err != nil {
		return domain.AnalysisReport{}, err
	}

	horizon, err := ResolveSaleHorizon(input.PaymentsMade, input.Sale(), input.Current())
	if err != nil {
		return domain.AnalysisReport{}, err
	}

	key := cacheKey(input)
	if cached, ok := s.cache.Get(key); ok {
		var report domain.AnalysisReport
		if err := json.Unmarshal([]byte(cached), &report); err == nil {
			s.logger.Debug("analysis served from cache", zap.String("key", key))
			return report, nil
		}
		s.logger.Warn("discarding undecodable cached analysis", zap.String("key", key))
	}

	points, totals := FindTippingPoints(input.Terms(), input.PaymentsMade, horizon, input.ClosingCostPct)
	rows := BuildComparisonTable(points, input.Terms(), input.PaymentsMade, horizon, totals)

	report := domain.AnalysisReport{
		ID:                    uuid.NewString(),
		GeneratedAt:           time.Now().UTC(),
		Input:                 input,
		FirstPaymentLabel:     horizon.FirstPayment.Label(),
		SaleLabel:             horizon.Sale.Label(),
		MonthsUntilSale:       horizon.MonthsUntilSale,
		RefiPaymentsUntilSale: horizon.RefiPaymentsUntilSale,
		RemainingPrincipal:    totals.RemainingPrincipal,
		ClosingCosts:          totals.ClosingCosts,
		RefinancedPrincipal:   totals.RefinancedPrincipal,
		OriginalPayment:       totals.OriginalPayment,
		OriginalCostAtSale:    totals.OriginalCostAtSale,
		TippingPoints:         points,
		Rows:                  rows,
	}
	report.Explanation = s.expl.ExplainReport(report)

	s.logger.Info("refinance analysis complete",
		zap.Float64("sale_rate_pct", points.SaleRatePct),
		zap.Bool("sale_found", points.SaleFound),
		zap.Float64("lifetime_rate_pct", points.LifetimeRatePct),
		zap.Bool("lifetime_found", points.LifetimeFound),
		zap.Int("comparison_rows", len(rows)))

	s.persist(key, report)

	return report, nil
}

// Recent returns the latest stored reports, newest first.
func (s *RefinanceService) Recent(limit int) ([]domain.AnalysisReport, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidInput)
	}
	return s.repo.Recent(limit)
}

// persist saves the report and caches its JSON form. Neither failure
// aborts the analysis; the caller already has the result in hand.
func (s *RefinanceService) persist(key string, report domain.AnalysisReport) {
	if err := s.repo.Save(report); err != nil {
		s.logger.Warn("failed to save analysis", zap.String("id", report.ID), zap.Error(err))
	}

	payload, err := json.Marshal(report)
	if err != nil {
		s.logger.Warn("failed to encode analysis for cache", zap.String("id", report.ID), zap.Error(err))
		return
	}
	if err := s.cache.Set(key, string(payload)); err != nil {
		s.logger.Warn("failed to cache analysis", zap.String("key", key), zap.Error(err))
	}
}

func validateInput(in domain.AnalysisInput) error {
	if in.LoanAmount <= 0 {
		return fmt.Errorf("%w: loan amount must be greater than 0", ErrInvalidInput)
	}
	if in.LoanAmount > MaxLoanAmount {
		return fmt.Errorf("%w: loan amount exceeds the maximum allowed", ErrInvalidInput)
	}
	if in.RatePct < 0 {
		return fmt.Errorf("%w: interest rate cannot be negative", ErrInvalidInput)
	}
	if in.RatePct > MaxInterestRate {
		return fmt.Errorf("%w: interest rate exceeds the maximum allowed", ErrInvalidInput)
	}
	if in.TermMonths < MinTermMonths {
		return fmt.Errorf("%w: term must be at least %d month", ErrInvalidInput, MinTermMonths)
	}
	if in.TermMonths > MaxTermMonths {
		return fmt.Errorf("%w: term exceeds %d months", ErrInvalidInput, MaxTermMonths)
	}
	if in.PaymentsMade < 0 {
		return fmt.Errorf("%w: payments made cannot be negative", ErrInvalidInput)
	}
	if in.PaymentsMade > in.TermMonths {
		return fmt.Errorf("%w: payments made cannot exceed the loan term", ErrInvalidInput)
	}
	if in.ClosingCostPct < 0 {
		return fmt.Errorf("%w: closing cost percentage cannot be negative", ErrInvalidInput)
	}
	if in.SellYear < MinCalendarYear || in.SellYear > MaxCalendarYear {
		return fmt.Errorf("%w: sell year must be between %d and %d", ErrInvalidInput, MinCalendarYear, MaxCalendarYear)
	}
	if in.SellMonth < 1 || in.SellMonth > 12 {
		return fmt.Errorf("%w: sell month must be between 1 and 12", ErrInvalidInput)
	}
	if in.CurrentYear < MinCalendarYear || in.CurrentYear > MaxCalendarYear {
		return fmt.Errorf("%w: current year must be between %d and %d", ErrInvalidInput, MinCalendarYear, MaxCalendarYear)
	}
	if in.CurrentMonth < 1 || in.CurrentMonth > 12 {
		return fmt.Errorf("%w: current month must be between 1 and 12", ErrInvalidInput)
	}
	return nil
}

// ResolveSaleHorizon anchors the payment calendar. The first payment is
// reconstructed by walking back from the current month, so payment
// number N always lands on the current month when N payments are made.
func ResolveSaleHorizon(paymentsMade int, sale, current domain.CalendarMonth) (domain.SaleHorizon, error) {
	firstIdx := current.Index() - (paymentsMade - 1)
	first := domain.MonthFromIndex(firstIdx)

	monthsUntilSale := sale.Index() - firstIdx + 1
	if monthsUntilSale < paymentsMade {
		return domain.SaleHorizon{}, fmt.Errorf(
			"%w: sale in %s allows only %d total payments but %d are already made",
			ErrInvalidHorizon, sale.Label(), monthsUntilSale, paymentsMade)
	}

	return domain.SaleHorizon{
		MonthsUntilSale:       monthsUntilSale,
		RefiPaymentsUntilSale: monthsUntilSale - paymentsMade,
		FirstPayment:          first,
		Sale:                  sale,
	}, nil
}

// FindTippingPoints walks candidate refinance rates from the original
// rate down to SearchFloorPct (exclusive) and latches, independently
// per horizon, the first rate at which refinancing comes out cheaper.
// Candidates are generated from the step index in two statements so the
// sequence stays identical across platforms; repeated subtraction would
// drift and a fused multiply-add could shift a boundary candidate.
func FindTippingPoints(terms domain.LoanTerms, paymentsMade int, horizon domain.SaleHorizon, closingCostPct float64) (domain.TippingPoints, SearchTotals) {
	now := LoanStatusAfter(terms.Principal, terms.AnnualRatePct, terms.TermMonths, paymentsMade)
	atSale := LoanStatusAfter(terms.Principal, terms.AnnualRatePct, terms.TermMonths, horizon.MonthsUntilSale)

	totals := SearchTotals{
		RemainingPrincipal:        now.RemainingBalance,
		ClosingCosts:              now.RemainingBalance * closingCostPct,
		RefinancedPrincipal:       now.RemainingBalance * (1 + closingCostPct),
		OriginalPayment:           now.MonthlyPayment,
		OriginalCostAtSale:        now.MonthlyPayment*float64(horizon.MonthsUntilSale) + atSale.RemainingBalance,
		OriginalRemainingPayments: now.MonthlyPayment * float64(terms.TermMonths-paymentsMade),
	}

	// Unfound horizons report the original rate itself.
	points := domain.TippingPoints{
		SaleRatePct:     terms.AnnualRatePct,
		LifetimeRatePct: terms.AnnualRatePct,
	}

	for i := 0; ; i++ {
		drop := SearchStepPct * float64(i)
		rate := terms.AnnualRatePct - drop
		if rate <= SearchFloorPct {
			break
		}

		refiPayment := MonthlyPayment(totals.RefinancedPrincipal, rate, RefinanceTermMonths)

		if !points.LifetimeFound && refiPayment*RefinanceTermMonths < totals.OriginalRemainingPayments {
			points.LifetimeRatePct = rate
			points.LifetimeFound = true
		}

		if !points.SaleFound && refiCostAtSale(refiPayment, rate, paymentsMade, horizon, totals) < totals.OriginalCostAtSale {
			points.SaleRatePct = rate
			points.SaleFound = true
		}

		if points.SaleFound && points.LifetimeFound {
			break
		}
	}

	return points, totals
}

// refiCostAtSale is the all-in cost of refinancing at the given rate
// and then selling: payments already made on the original loan, the new
// payments until the sale, and the balance handed over at closing.
func refiCostAtSale(refiPayment, ratePct float64, paymentsMade int, horizon domain.SaleHorizon, totals SearchTotals) float64 {
	status := LoanStatusAfter(totals.RefinancedPrincipal, ratePct, RefinanceTermMonths, horizon.RefiPaymentsUntilSale)
	return totals.OriginalPayment*float64(paymentsMade) +
		refiPayment*float64(horizon.RefiPaymentsUntilSale) +
		status.RemainingBalance
}

// BuildComparisonTable samples display rates around the tipping points,
// deduplicates them, keeps only genuine drops below the original rate
// and orders them from highest to lowest.
func BuildComparisonTable(points domain.TippingPoints, terms domain.LoanTerms, paymentsMade int, horizon domain.SaleHorizon, totals SearchTotals) []domain.ComparisonRow {
	candidates := []float64{
		roundRate(points.SaleRatePct + 0.075),
		roundRate(points.SaleRatePct),
		roundRate(points.SaleRatePct - 0.25),
		roundRate(points.LifetimeRatePct),
		roundRate(points.LifetimeRatePct - 0.25),
	}

	seen := make(map[float64]bool, len(candidates))
	rates := make([]float64, 0, len(candidates))
	for _, r := range candidates {
		if r >= terms.AnnualRatePct || seen[r] {
			continue
		}
		seen[r] = true
		rates = append(rates, r)
	}
	sort.Slice(rates, func(i, j int) bool { return rates[i] > rates[j] })

	rows := make([]domain.ComparisonRow, 0, len(rates))
	for _, rate := range rates {
		refiPayment := MonthlyPayment(totals.RefinancedPrincipal, rate, RefinanceTermMonths)
		costAtSale := refiCostAtSale(refiPayment, rate, paymentsMade, horizon, totals)

		rows = append(rows, domain.ComparisonRow{
			RatePct:         rate,
			MonthlyPayment:  refiPayment,
			MonthlySavings:  totals.OriginalPayment - refiPayment,
			SavingsAtSale:   totals.OriginalCostAtSale - costAtSale,
			SavingsLifetime: totals.OriginalRemainingPayments - refiPayment*RefinanceTermMonths,
			MeetsSaleTarget: rate <= points.SaleRatePct,
		})
	}

	return rows
}

// roundRate snaps a display rate to the scan's millipercent grid.
func roundRate(pct float64) float64 {
	return math.Round(pct*1000) / 1000
}

func cacheKey(in domain.AnalysisInput) string {
	payload, _ := json.Marshal(in)
	return fmt.Sprintf("refi:analysis:%016x", xxhash.Sum64(payload))
}
