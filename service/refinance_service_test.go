package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"refi-agent/domain"
	"refi-agent/repository"
)

type MockAnalysisRepository struct {
	SaveCalled bool
	SaveCount  int
	ForceError bool
	Saved      []domain.AnalysisReport
}

func (m *MockAnalysisRepository) Save(report domain.AnalysisReport) error {
	m.SaveCalled = true
	m.SaveCount++
	if m.ForceError {
		return errors.New("save error")
	}
	m.Saved = append(m.Saved, report)
	return nil
}

func (m *MockAnalysisRepository) Recent(limit int) ([]domain.AnalysisReport, error) {
	if m.ForceError {
		return nil, errors.New("recent error")
	}
	if limit > len(m.Saved) {
		limit = len(m.Saved)
	}
	out := make([]domain.AnalysisReport, 0, limit)
	for i := len(m.Saved) - 1; i >= len(m.Saved)-limit; i-- {
		out = append(out, m.Saved[i])
	}
	return out, nil
}

func newService(t *testing.T, repo *MockAnalysisRepository) (*RefinanceService, *repository.MockCache) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")

	cache := repository.NewMockCache()
	return NewRefinanceService(repo, cache, zap.NewNop()), cache
}

func TestResolveSaleHorizon_DefaultScenario(t *testing.T) {

	horizon, err := ResolveSaleHorizon(4,
		domain.CalendarMonth{Year: 2035, Month: 7},
		domain.CalendarMonth{Year: 2025, Month: 11})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if horizon.MonthsUntilSale != 120 {
		t.Errorf("expected 120 months until sale, got %d", horizon.MonthsUntilSale)
	}
	if horizon.RefiPaymentsUntilSale != 116 {
		t.Errorf("expected 116 refi payments, got %d", horizon.RefiPaymentsUntilSale)
	}
	if got := horizon.FirstPayment.Label(); got != "Aug 2025" {
		t.Errorf("expected first payment Aug 2025, got %s", got)
	}
	if got := horizon.Sale.Label(); got != "Jul 2035" {
		t.Errorf("expected sale Jul 2035, got %s", got)
	}
}

func TestResolveSaleHorizon_NoPaymentsYet(t *testing.T) {

	// With nothing paid, the first payment lands the month after the
	// reference month.
	horizon, err := ResolveSaleHorizon(0,
		domain.CalendarMonth{Year: 2035, Month: 7},
		domain.CalendarMonth{Year: 2025, Month: 11})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := horizon.FirstPayment.Label(); got != "Dec 2025" {
		t.Errorf("expected first payment Dec 2025, got %s", got)
	}
	if horizon.MonthsUntilSale != 116 {
		t.Errorf("expected 116 months until sale, got %d", horizon.MonthsUntilSale)
	}
}

func TestResolveSaleHorizon_SaleBeforeFirstPayment(t *testing.T) {

	_, err := ResolveSaleHorizon(4,
		domain.CalendarMonth{Year: 2025, Month: 7},
		domain.CalendarMonth{Year: 2025, Month: 11})

	if !errors.Is(err, ErrInvalidHorizon) {
		t.Fatalf("expected ErrInvalidHorizon, got %v", err)
	}
}

func TestResolveSaleHorizon_SaleInCurrentMonth(t *testing.T) {

	// Selling in the reference month itself is the degenerate but
	// legal case: exactly the payments already made, zero refinance
	// payments.
	horizon, err := ResolveSaleHorizon(4,
		domain.CalendarMonth{Year: 2025, Month: 11},
		domain.CalendarMonth{Year: 2025, Month: 11})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if horizon.MonthsUntilSale != 4 {
		t.Errorf("expected 4 months until sale, got %d", horizon.MonthsUntilSale)
	}
	if horizon.RefiPaymentsUntilSale != 0 {
		t.Errorf("expected 0 refi payments, got %d", horizon.RefiPaymentsUntilSale)
	}
}

func TestFindTippingPoints_DefaultScenario(t *testing.T) {

	input := domain.DefaultAnalysisInput()
	horizon, err := ResolveSaleHorizon(input.PaymentsMade, input.Sale(), input.Current())
	require.NoError(t, err)

	points, totals := FindTippingPoints(input.Terms(), input.PaymentsMade, horizon, input.ClosingCostPct)

	assert.True(t, points.SaleFound, "sale tipping point should exist")
	assert.True(t, points.LifetimeFound, "lifetime tipping point should exist")
	assert.InDelta(t, 6.290, points.SaleRatePct, 1e-9, "sale tipping rate incorrect")
	assert.InDelta(t, 6.361, points.LifetimeRatePct, 1e-9, "lifetime tipping rate incorrect")

	assert.InDelta(t, 694519.7685567997, totals.RemainingPrincipal, 1e-4)
	assert.InDelta(t, 13890.3953711360, totals.ClosingCosts, 1e-4)
	assert.InDelta(t, 708410.1639279358, totals.RefinancedPrincipal, 1e-4)
	assert.InDelta(t, 4462.9673986936, totals.OriginalPayment, 1e-6)
	assert.InDelta(t, 1128286.6474105553, totals.OriginalCostAtSale, 1e-4)
	assert.InDelta(t, 1588816.3939349104, totals.OriginalRemainingPayments, 1e-4)
}

func TestFindTippingPoints_ZeroRateOriginal(t *testing.T) {

	// A free loan can never be beaten by a costlier refinance; both
	// horizons fall back to the original rate.
	terms := domain.LoanTerms{Principal: 120000, AnnualRatePct: 0, TermMonths: 120}
	horizon := domain.SaleHorizon{MonthsUntilSale: 72, RefiPaymentsUntilSale: 60}

	points, totals := FindTippingPoints(terms, 12, horizon, 0.02)

	assert.False(t, points.SaleFound)
	assert.False(t, points.LifetimeFound)
	assert.Equal(t, 0.0, points.SaleRatePct)
	assert.Equal(t, 0.0, points.LifetimeRatePct)
	assert.InDelta(t, 110160.0, totals.RefinancedPrincipal, 1e-6)
}

func TestFindTippingPoints_OriginalRateBelowFloor(t *testing.T) {

	// No candidates between 2.5 and the floor: the scan is empty.
	terms := domain.LoanTerms{Principal: 400000, AnnualRatePct: 2.5, TermMonths: 360}
	horizon := domain.SaleHorizon{MonthsUntilSale: 72, RefiPaymentsUntilSale: 60}

	points, _ := FindTippingPoints(terms, 12, horizon, 0.02)

	assert.False(t, points.SaleFound)
	assert.False(t, points.LifetimeFound)
	assert.Equal(t, 2.5, points.SaleRatePct)
	assert.Equal(t, 2.5, points.LifetimeRatePct)
}

func TestFindTippingPoints_SaleInCurrentMonth(t *testing.T) {

	// Zero refinance payments before the sale: the refinance can only
	// add closing costs, so the sale horizon never tips. The lifetime
	// horizon is unaffected.
	input := domain.DefaultAnalysisInput()
	horizon := domain.SaleHorizon{MonthsUntilSale: 4, RefiPaymentsUntilSale: 0}

	points, _ := FindTippingPoints(input.Terms(), input.PaymentsMade, horizon, input.ClosingCostPct)

	assert.False(t, points.SaleFound)
	assert.Equal(t, 6.625, points.SaleRatePct)
	assert.True(t, points.LifetimeFound)
	assert.InDelta(t, 6.361, points.LifetimeRatePct, 1e-9)
}

func TestBuildComparisonTable_DefaultScenario(t *testing.T) {

	input := domain.DefaultAnalysisInput()
	horizon, err := ResolveSaleHorizon(input.PaymentsMade, input.Sale(), input.Current())
	require.NoError(t, err)

	points, totals := FindTippingPoints(input.Terms(), input.PaymentsMade, horizon, input.ClosingCostPct)
	rows := BuildComparisonTable(points, input.Terms(), input.PaymentsMade, horizon, totals)

	require.Len(t, rows, 5)

	wantRates := []float64{6.365, 6.361, 6.290, 6.111, 6.040}
	wantMeets := []bool{false, false, true, true, true}
	for i, row := range rows {
		assert.InDelta(t, wantRates[i], row.RatePct, 1e-9, "row %d rate", i)
		assert.Equal(t, wantMeets[i], row.MeetsSaleTarget, "row %d sale-target flag", i)
	}

	// The sale tipping row itself.
	assert.InDelta(t, 82.717992, rows[2].MonthlySavings, 1e-4)
	assert.InDelta(t, 29.152877, rows[2].SavingsAtSale, 1e-4)
	assert.InDelta(t, 11926.607588, rows[2].SavingsLifetime, 1e-4)

	// Just above the lifetime tipping point: loses on both horizons.
	assert.InDelta(t, -5107.667391, rows[0].SavingsAtSale, 1e-4)
	assert.InDelta(t, -556.789520, rows[0].SavingsLifetime, 1e-4)

	// Between the two tipping points: lifetime gain, sale loss.
	assert.InDelta(t, 110.048627, rows[1].SavingsLifetime, 1e-4)
	assert.InDelta(t, -4833.579303, rows[1].SavingsAtSale, 1e-4)
}

func TestBuildComparisonTable_FiltersAndDeduplicates(t *testing.T) {

	// With unfound tipping points both fall back to the original rate;
	// only original-0.25 survives the below-original filter, and the
	// two copies collapse into one row.
	terms := domain.LoanTerms{Principal: 120000, AnnualRatePct: 0, TermMonths: 120}
	horizon := domain.SaleHorizon{MonthsUntilSale: 72, RefiPaymentsUntilSale: 60}

	points, totals := FindTippingPoints(terms, 12, horizon, 0.02)
	rows := BuildComparisonTable(points, terms, 12, horizon, totals)

	require.Len(t, rows, 1)
	assert.InDelta(t, -0.25, rows[0].RatePct, 1e-9)
	assert.True(t, rows[0].MeetsSaleTarget)
	assert.InDelta(t, 694.0, rows[0].MonthlySavings, 1e-6)
	assert.InDelta(t, -903.813189, rows[0].SavingsAtSale, 1e-4)
	assert.InDelta(t, -2160.0, rows[0].SavingsLifetime, 1e-6)
}

func TestAnalyze_Success(t *testing.T) {

	mockRepo := &MockAnalysisRepository{}
	svc, cache := newService(t, mockRepo)

	report, err := svc.Analyze(domain.DefaultAnalysisInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.ID == "" {
		t.Error("expected a report id")
	}
	if report.MonthsUntilSale != 120 {
		t.Errorf("expected 120 months until sale, got %d", report.MonthsUntilSale)
	}
	if report.FirstPaymentLabel != "Aug 2025" {
		t.Errorf("expected first payment label Aug 2025, got %s", report.FirstPaymentLabel)
	}
	if report.SaleLabel != "Jul 2035" {
		t.Errorf("expected sale label Jul 2035, got %s", report.SaleLabel)
	}
	if len(report.Rows) != 5 {
		t.Errorf("expected 5 comparison rows, got %d", len(report.Rows))
	}
	if report.Explanation == "" {
		t.Error("expected a fallback explanation")
	}

	if !mockRepo.SaveCalled {
		t.Error("expected repository Save to be called")
	}
	if cache.Len() != 1 {
		t.Errorf("expected 1 cached report, got %d", cache.Len())
	}
}

func TestAnalyze_CacheHitReturnsStoredReport(t *testing.T) {

	mockRepo := &MockAnalysisRepository{}
	svc, _ := newService(t, mockRepo)

	first, err := svc.Analyze(domain.DefaultAnalysisInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := svc.Analyze(domain.DefaultAnalysisInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected cached report with id %s, got %s", first.ID, second.ID)
	}
	if mockRepo.SaveCount != 1 {
		t.Errorf("expected a single save, got %d", mockRepo.SaveCount)
	}
}

func TestAnalyze_DeterministicAcrossInstances(t *testing.T) {

	svcA, _ := newService(t, &MockAnalysisRepository{})
	svcB, _ := newService(t, &MockAnalysisRepository{})

	a, err := svcA.Analyze(domain.DefaultAnalysisInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := svcB.Analyze(domain.DefaultAnalysisInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.TippingPoints != b.TippingPoints {
		t.Errorf("tipping points diverged: %+v vs %+v", a.TippingPoints, b.TippingPoints)
	}
	if len(a.Rows) != len(b.Rows) {
		t.Fatalf("row counts diverged: %d vs %d", len(a.Rows), len(b.Rows))
	}
	for i := range a.Rows {
		if a.Rows[i] != b.Rows[i] {
			t.Errorf("row %d diverged: %+v vs %+v", i, a.Rows[i], b.Rows[i])
		}
	}
}

func TestAnalyze_DistinctInputsMissTheCache(t *testing.T) {

	mockRepo := &MockAnalysisRepository{}
	svc, _ := newService(t, mockRepo)

	first, err := svc.Analyze(domain.DefaultAnalysisInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := domain.DefaultAnalysisInput()
	other.PaymentsMade = 6
	second, err := svc.Analyze(other)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.ID == second.ID {
		t.Error("distinct inputs should not share a cached report")
	}
	if mockRepo.SaveCount != 2 {
		t.Errorf("expected two saves, got %d", mockRepo.SaveCount)
	}
}

func TestAnalyze_RepositoryErrorIsNotFatal(t *testing.T) {

	mockRepo := &MockAnalysisRepository{ForceError: true}
	svc, _ := newService(t, mockRepo)

	report, err := svc.Analyze(domain.DefaultAnalysisInput())
	if err != nil {
		t.Fatalf("analysis should survive a failing repository: %v", err)
	}
	if len(report.Rows) != 5 {
		t.Errorf("expected full report despite save failure, got %d rows", len(report.Rows))
	}
}

func TestAnalyze_InvalidHorizon(t *testing.T) {

	mockRepo := &MockAnalysisRepository{}
	svc, _ := newService(t, mockRepo)

	input := domain.DefaultAnalysisInput()
	input.SellYear = 2024

	_, err := svc.Analyze(input)

	if !errors.Is(err, ErrInvalidHorizon) {
		t.Fatalf("expected ErrInvalidHorizon, got %v", err)
	}
	if mockRepo.SaveCalled {
		t.Error("repository Save should NOT be called")
	}
}

func TestAnalyze_ValidationErrors(t *testing.T) {

	cases := []struct {
		name   string
		mutate func(*domain.AnalysisInput)
	}{
		{"zero amount", func(in *domain.AnalysisInput) { in.LoanAmount = 0 }},
		{"amount over bound", func(in *domain.AnalysisInput) { in.LoanAmount = 2_000_000_000 }},
		{"negative rate", func(in *domain.AnalysisInput) { in.RatePct = -1 }},
		{"rate over bound", func(in *domain.AnalysisInput) { in.RatePct = 1500 }},
		{"zero term", func(in *domain.AnalysisInput) { in.TermMonths = 0 }},
		{"term too long", func(in *domain.AnalysisInput) { in.TermMonths = 601 }},
		{"negative payments made", func(in *domain.AnalysisInput) { in.PaymentsMade = -1 }},
		{"payments beyond term", func(in *domain.AnalysisInput) { in.PaymentsMade = 361 }},
		{"sell year before calendar range", func(in *domain.AnalysisInput) { in.SellYear = 0 }},
		{"sell year beyond calendar range", func(in *domain.AnalysisInput) { in.SellYear = 9_000_000_000_000_000 }},
		{"sell month out of range", func(in *domain.AnalysisInput) { in.SellMonth = 13 }},
		{"current year before calendar range", func(in *domain.AnalysisInput) { in.CurrentYear = 0 }},
		{"current year beyond calendar range", func(in *domain.AnalysisInput) { in.CurrentYear = 10000 }},
		{"current month out of range", func(in *domain.AnalysisInput) { in.CurrentMonth = 0 }},
		{"negative closing costs", func(in *domain.AnalysisInput) { in.ClosingCostPct = -0.01 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &MockAnalysisRepository{}
			svc := NewRefinanceService(mockRepo, repository.NewMockCache(), zap.NewNop())

			input := domain.DefaultAnalysisInput()
			tc.mutate(&input)

			_, err := svc.Analyze(input)

			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if mockRepo.SaveCalled {
				t.Error("repository Save should NOT be called")
			}
		})
	}
}

func TestRecent_InvalidLimit(t *testing.T) {

	svc, _ := newService(t, &MockAnalysisRepository{})

	_, err := svc.Recent(0)

	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
