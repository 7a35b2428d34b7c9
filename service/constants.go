package service

const (
	MaxLoanAmount   = 1_000_000_000.0 // 1 billón
	MaxInterestRate = 1000.0          // 1000% anual
	MaxTermMonths   = 600             // 50 años
	MinTermMonths   = 1

	MinCalendarYear = 1 // años de calendario válidos
	MaxCalendarYear = 9999

	// RefinanceTermMonths is the term every candidate refinance is
	// quoted at: the standard 30-year product, regardless of the
	// original loan's remaining term.
	RefinanceTermMonths = 360

	// The rate scan walks down from the original rate toward the floor
	// (exclusive) in fixed steps, in annual percent.
	SearchFloorPct = 2.99
	SearchStepPct  = 0.001

	GainTolerance = 0.01 // tolerancia para considerar un ahorro como break-even
)
