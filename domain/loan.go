package domain

// LoanTerms is the contractual shape of a fixed-rate loan.
type LoanTerms struct {
	Principal     float64 `json:"principal"`
	AnnualRatePct float64 `json:"annual_rate_pct"`
	TermMonths    int     `json:"term_months"`
}

// LoanStatus is the state of a loan after some number of payments.
// Derived on demand from LoanTerms, never mutated in place.
type LoanStatus struct {
	RemainingBalance  float64 `json:"remaining_balance"`
	MonthlyPayment    float64 `json:"monthly_payment"`
	RemainingInterest float64 `json:"remaining_interest"`
}
