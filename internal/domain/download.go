package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// DownloadStatus represents the outcome of a download attempt
type DownloadStatus string

const (
	StatusProcessing DownloadStatus = "processing"
	StatusCompleted  DownloadStatus = "completed"
	StatusFailed     DownloadStatus = "failed"
	StatusSkipped    DownloadStatus = "skipped" // selected result had no link
)

// ErrDownloadNotFound is returned when no history entry matches an ID
var ErrDownloadNotFound = errors.New("download not found")

// Download records the outcome of downloading one selected search result
type Download struct {
	ID           string         `json:"id" gorm:"primaryKey"`
	Index        int            `json:"index"`
	Query        string         `json:"query" gorm:"index"`
	URL          string         `json:"url"`
	Title        string         `json:"title"`
	Status       DownloadStatus `json:"status" gorm:"not null;index"`
	FilePath     string         `json:"file_path,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// NewDownload creates a download record for the result at the given 1-based index
func NewDownload(query string, index int, result SearchResult) *Download {
	now := time.Now()
	return &Download{
		ID:        uuid.New().String(),
		Index:     index,
		Query:     query,
		URL:       result.Link,
		Title:     result.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkProcessing marks the download as processing
func (d *Download) MarkProcessing() {
	d.Status = StatusProcessing
	now := time.Now()
	d.StartedAt = &now
	d.UpdatedAt = now
}

// MarkCompleted marks the download as completed
func (d *Download) MarkCompleted(filePath string) {
	d.Status = StatusCompleted
	d.FilePath = filePath
	now := time.Now()
	d.CompletedAt = &now
	d.UpdatedAt = now
}

// MarkFailed marks the download as failed
func (d *Download) MarkFailed(err error) {
	d.Status = StatusFailed
	d.ErrorMessage = err.Error()
	now := time.Now()
	d.CompletedAt = &now
	d.UpdatedAt = now
}

// MarkSkipped marks the download as skipped without attempting it
func (d *Download) MarkSkipped(err error) {
	d.Status = StatusSkipped
	d.ErrorMessage = err.Error()
	d.UpdatedAt = time.Now()
}

// Succeeded reports whether the download completed
func (d *Download) Succeeded() bool {
	return d.Status == StatusCompleted
}

// ValidateStatus checks if a status is a known outcome
func ValidateStatus(status DownloadStatus) bool {
	switch status {
	case StatusProcessing, StatusCompleted, StatusFailed, StatusSkipped:
		return true
	}
	return false
}
