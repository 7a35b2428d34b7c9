package repository

import (
	"sync"

	"refi-agent/domain"
)

// maxStoredReports bounds the in-memory history so a long-running
// server does not grow without limit.
const maxStoredReports = 100

// AnalysisRepositoryMemory is an in-memory implementation of
// AnalysisRepository, safe for concurrent use.
type AnalysisRepositoryMemory struct {
	mu   sync.Mutex
	data []domain.AnalysisReport
}

// NewAnalysisRepositoryMemory creates a new in-memory analysis repository.
func NewAnalysisRepositoryMemory() *AnalysisRepositoryMemory {
	return &AnalysisRepositoryMemory{
		data: []domain.AnalysisReport{},
	}
}

// Save stores the report, evicting the oldest once the bound is hit.
func (r *AnalysisRepositoryMemory) Save(report domain.AnalysisReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data = append(r.data, report)
	if len(r.data) > maxStoredReports {
		r.data = r.data[len(r.data)-maxStoredReports:]
	}
	return nil
}

// Recent returns up to limit reports, newest first.
func (r *AnalysisRepositoryMemory) Recent(limit int) ([]domain.AnalysisReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit > len(r.data) {
		limit = len(r.data)
	}

	out := make([]domain.AnalysisReport, 0, limit)
	for i := len(r.data) - 1; i >= len(r.data)-limit; i-- {
		out = append(out, r.data[i])
	}
	return out, nil
}
