package repository

// AnalysisCache is a key-value cache for encoded analysis reports.
// Implementations decide expiry; a miss is never an error.
type AnalysisCache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}
