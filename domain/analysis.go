package domain

import "time"

// CalendarMonth anchors a payment to a calendar month. The analysis
// never reads the wall clock; the "current" month is configuration.
type CalendarMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"` // 1 = January
}

// Index returns the month counted from year zero, for month arithmetic.
func (m CalendarMonth) Index() int {
	return m.Year*12 + (m.Month - 1)
}

// Label formats the month as e.g. "Aug 2025".
func (m CalendarMonth) Label() string {
	return time.Date(m.Year, time.Month(m.Month), 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
}

// MonthFromIndex is the inverse of Index.
func MonthFromIndex(idx int) CalendarMonth {
	return CalendarMonth{Year: idx / 12, Month: idx%12 + 1}
}

// AnalysisInput is the full parameter set for one refinance analysis.
type AnalysisInput struct {
	LoanAmount     float64 `json:"loan_amount"`
	RatePct        float64 `json:"rate_pct"`
	TermMonths     int     `json:"term_months"`
	PaymentsMade   int     `json:"payments_made"`
	SellYear       int     `json:"sell_year"`
	SellMonth      int     `json:"sell_month"`
	ClosingCostPct float64 `json:"closing_cost_pct"`

	// Reference month the payments-made count is anchored to.
	CurrentYear  int `json:"current_year"`
	CurrentMonth int `json:"current_month"`
}

// DefaultAnalysisInput returns the stock scenario: a 30-year $697k
// loan at 6.625% with 4 payments made as of Nov 2025, sold Jul 2035,
// 2% closing costs rolled into the refinance.
func DefaultAnalysisInput() AnalysisInput {
	return AnalysisInput{
		LoanAmount:     697000.00,
		RatePct:        6.625,
		TermMonths:     360,
		PaymentsMade:   4,
		SellYear:       2035,
		SellMonth:      7,
		ClosingCostPct: 0.02,
		CurrentYear:    2025,
		CurrentMonth:   11,
	}
}

// Terms returns the original loan's contractual terms.
func (in AnalysisInput) Terms() LoanTerms {
	return LoanTerms{
		Principal:     in.LoanAmount,
		AnnualRatePct: in.RatePct,
		TermMonths:    in.TermMonths,
	}
}

// Sale returns the planned sale month.
func (in AnalysisInput) Sale() CalendarMonth {
	return CalendarMonth{Year: in.SellYear, Month: in.SellMonth}
}

// Current returns the reference month.
func (in AnalysisInput) Current() CalendarMonth {
	return CalendarMonth{Year: in.CurrentYear, Month: in.CurrentMonth}
}

// SaleHorizon is the resolved payment window between the loan's first
// payment and the planned sale. Invariant: MonthsUntilSale covers at
// least the payments already made.
type SaleHorizon struct {
	MonthsUntilSale       int           `json:"months_until_sale"`
	RefiPaymentsUntilSale int           `json:"refi_payments_until_sale"`
	FirstPayment          CalendarMonth `json:"first_payment"`
	Sale                  CalendarMonth `json:"sale"`
}

// TippingPoints holds the first (highest) refinance rate per horizon
// at which refinancing undercuts keeping the loan. When a horizon has
// no qualifying rate down to the search floor, its rate falls back to
// the original rate and Found is false.
type TippingPoints struct {
	SaleRatePct     float64 `json:"sale_rate_pct"`
	LifetimeRatePct float64 `json:"lifetime_rate_pct"`
	SaleFound       bool    `json:"sale_found"`
	LifetimeFound   bool    `json:"lifetime_found"`
}

// ComparisonRow is one sampled rate in the output table.
type ComparisonRow struct {
	RatePct         float64 `json:"rate_pct"`
	MonthlyPayment  float64 `json:"monthly_payment"`
	MonthlySavings  float64 `json:"monthly_savings"`
	SavingsAtSale   float64 `json:"savings_at_sale"`
	SavingsLifetime float64 `json:"savings_lifetime"`

	// True when the row's rate clears the time-to-sell tipping point.
	MeetsSaleTarget bool `json:"meets_sale_target"`
}

// AnalysisReport is the complete result of one analysis run. All
// numeric content is a pure function of Input; ID and GeneratedAt are
// envelope metadata.
type AnalysisReport struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`

	Input AnalysisInput `json:"input"`

	FirstPaymentLabel     string `json:"first_payment_label"`
	SaleLabel             string `json:"sale_label"`
	MonthsUntilSale       int    `json:"months_until_sale"`
	RefiPaymentsUntilSale int    `json:"refi_payments_until_sale"`

	RemainingPrincipal  float64 `json:"remaining_principal"`
	ClosingCosts        float64 `json:"closing_costs"`
	RefinancedPrincipal float64 `json:"refinanced_principal"`
	OriginalPayment     float64 `json:"original_payment"`
	OriginalCostAtSale  float64 `json:"original_cost_at_sale"`

	TippingPoints TippingPoints   `json:"tipping_points"`
	Rows          []ComparisonRow `json:"rows"`

	Explanation string `json:"explanation,omitempty"`
}
