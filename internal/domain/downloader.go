package domain

import "context"

// Searcher defines the interface for the video search service
type Searcher interface {
	// Search returns up to limit results in the service's relevance order
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// Downloader defines the interface for the video download service
type Downloader interface {
	// Download fetches the highest resolution stream of url into outputPath
	Download(ctx context.Context, url, outputPath string) (*DownloadResult, error)

	// Validate validates if the downloader can handle the given URL
	Validate(url string) error
}

// DownloadResult represents the result of a download operation
type DownloadResult struct {
	Title    string
	FilePath string
}

// Notifier is informed about each download outcome
type Notifier interface {
	NotifyDownloadCompleted(download *Download)
	NotifyDownloadFailed(download *Download)
}
