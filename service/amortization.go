package service

import (
	"math"

	"refi-agent/domain"
)

// MonthlyPayment returns the fixed principal-and-interest payment for a
// fully amortizing loan. Rates at or below zero degenerate to straight
// principal division.
func MonthlyPayment(principal, annualRatePct float64, termMonths int) float64 {
	if annualRatePct <= 0 {
		return principal / float64(termMonths)
	}

	monthlyRate := annualRatePct / 100 / 12
	growth := math.Pow(1+monthlyRate, float64(termMonths))
	return principal * (monthlyRate * growth) / (growth - 1)
}

// LoanStatusAfter replays the amortization schedule for the given
// number of payments and reports where the loan stands. The remaining
// interest is everything still owed beyond the outstanding principal.
func LoanStatusAfter(principal, annualRatePct float64, termMonths, paymentsElapsed int) domain.LoanStatus {
	payment := MonthlyPayment(principal, annualRatePct, termMonths)
	monthlyRate := annualRatePct / 100 / 12

	balance := principal
	for i := 0; i < paymentsElapsed; i++ {
		interest := balance * monthlyRate
		balance -= payment - interest
	}

	remainingInterest := payment*float64(termMonths-paymentsElapsed) - balance

	return domain.LoanStatus{
		RemainingBalance:  balance,
		MonthlyPayment:    payment,
		RemainingInterest: remainingInterest,
	}
}
