package repository

import "refi-agent/domain"

// AnalysisRepository stores finished analysis reports.
type AnalysisRepository interface {
	Save(report domain.AnalysisReport) error
	// Recent returns up to limit reports, newest first.
	Recent(limit int) ([]domain.AnalysisReport, error)
}
