package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonthlyPayment_KnownScenario(t *testing.T) {
	pmt := MonthlyPayment(697000.00, 6.625, 360)
	assert.InDelta(t, 4462.9673986936, pmt, 1e-6, "30-year payment incorrect")
}

func TestMonthlyPayment_TypicalConsumerLoan(t *testing.T) {
	pmt := MonthlyPayment(10000, 12, 24)
	assert.InDelta(t, 470.7347222326, pmt, 1e-6)
}

func TestMonthlyPayment_ZeroRate(t *testing.T) {
	pmt := MonthlyPayment(1200, 0, 12)
	assert.InDelta(t, 100.0, pmt, 1e-12, "zero rate should divide principal evenly")
}

func TestMonthlyPayment_NegativeRateDegeneratesToZeroRate(t *testing.T) {
	pmt := MonthlyPayment(1200, -1.5, 12)
	assert.InDelta(t, 100.0, pmt, 1e-12)
}

func TestMonthlyPayment_IncreasesWithRate(t *testing.T) {
	prev := MonthlyPayment(697000.00, 2.0, 360)
	for rate := 2.5; rate <= 10; rate += 0.5 {
		pmt := MonthlyPayment(697000.00, rate, 360)
		assert.Greater(t, pmt, prev, "payment at %.1f%% should exceed the one at the lower rate", rate)
		prev = pmt
	}
}

func TestLoanStatusAfter_FourPayments(t *testing.T) {
	status := LoanStatusAfter(697000.00, 6.625, 360, 4)

	assert.InDelta(t, 4462.9673986936, status.MonthlyPayment, 1e-6)
	assert.InDelta(t, 694519.7685567997, status.RemainingBalance, 1e-6, "balance after 4 payments incorrect")
	assert.InDelta(t, 894296.6253781107, status.RemainingInterest, 1e-6, "remaining interest incorrect")
}

func TestLoanStatusAfter_NoPayments(t *testing.T) {
	status := LoanStatusAfter(697000.00, 6.625, 360, 0)

	assert.Equal(t, 697000.00, status.RemainingBalance, "untouched loan keeps its principal")
	assert.InDelta(t, status.MonthlyPayment*360-697000.00, status.RemainingInterest, 1e-9,
		"remaining interest should be total payments minus principal")
}

func TestLoanStatusAfter_FullTerm(t *testing.T) {
	status := LoanStatusAfter(697000.00, 6.625, 360, 360)

	assert.InDelta(t, 0, status.RemainingBalance, 1e-6, "loan should amortize to zero")
	assert.InDelta(t, 0, status.RemainingInterest, 1e-6)
}

func TestLoanStatusAfter_PartWayThrough(t *testing.T) {
	status := LoanStatusAfter(100000, 5.0, 360, 120)

	assert.InDelta(t, 536.8216230121, status.MonthlyPayment, 1e-6)
	assert.InDelta(t, 81342.0644919802, status.RemainingBalance, 1e-6)
	assert.InDelta(t, 47495.1250309334, status.RemainingInterest, 1e-6)
}

func TestLoanStatusAfter_ZeroRate(t *testing.T) {
	status := LoanStatusAfter(1200, 0, 12, 5)

	assert.InDelta(t, 700.0, status.RemainingBalance, 1e-9, "zero-rate balance declines linearly")
	assert.InDelta(t, 0, status.RemainingInterest, 1e-9, "zero-rate loan owes no interest")
}
