package service

import "errors"

var (
	// ErrInvalidInput marks analysis parameters that fail validation
	// before any computation runs.
	ErrInvalidInput = errors.New("invalid analysis input")

	// ErrInvalidHorizon marks a sale date that falls before the
	// payments already made, which leaves no horizon to compare.
	ErrInvalidHorizon = errors.New("invalid sale horizon")
)
