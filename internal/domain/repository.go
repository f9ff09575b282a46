package domain

// DownloadRepository defines the interface for download history persistence
type DownloadRepository interface {
	// Create records a download outcome
	Create(download *Download) error

	// FindByID finds a download by ID
	FindByID(id string) (*Download, error)

	// FindAll finds all downloads with optional filters, newest first
	FindAll(filters map[string]interface{}) ([]*Download, error)

	// Count returns the total number of downloads
	Count() (int64, error)

	// GetStats returns download statistics
	GetStats() (*DownloadStats, error)
}

// DownloadStats represents download statistics
type DownloadStats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Skipped   int64 `json:"skipped"`
}
