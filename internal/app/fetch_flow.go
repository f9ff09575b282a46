package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yourusername/echo-fetch-go/internal/domain"
	"go.uber.org/zap"
)

// Prompts and diagnostics printed by the fetch flow
const (
	PromptQuery     = "Enter search keywords: "
	PromptSelection = "Select videos to download (comma separated numbers): "
	MsgNoQuery      = "No query provided."
	MsgNoResults    = "No videos found."
	MsgNoSelection  = "No valid selection made."
	MsgSearchFailed = "Search failed:"
	MsgCancelled    = "\nOperation cancelled by user."
)

// FlowState is a step of the fetch flow
type FlowState string

const (
	StateStart              FlowState = "start"
	StateQueryAcquired      FlowState = "query_acquired"
	StateResultsListed      FlowState = "results_listed"
	StateSelectionParsed    FlowState = "selection_parsed"
	StateDownloadsAttempted FlowState = "downloads_attempted"
	StateDone               FlowState = "done"
)

// Report summarizes one run of the fetch flow. A returned report is always
// in StateDone; Reached is the last step before it and Reason is set when
// the flow ended early.
type Report struct {
	Query     string
	Results   []domain.SearchResult
	Selection []int
	Outcomes  []*domain.Download
	State     FlowState
	Reached   FlowState
	Reason    error
}

// FetchFlow searches for videos, asks which to fetch and downloads them in order
type FetchFlow struct {
	searcher   domain.Searcher
	downloader domain.Downloader
	repo       domain.DownloadRepository
	notifier   domain.Notifier
	config     *domain.Config
	logger     *zap.Logger
	in         *bufio.Reader
	out        io.Writer
}

// NewFetchFlow creates a new fetch flow. repo and notifier are optional.
func NewFetchFlow(
	searcher domain.Searcher,
	downloader domain.Downloader,
	repo domain.DownloadRepository,
	notifier domain.Notifier,
	config *domain.Config,
	logger *zap.Logger,
	in io.Reader,
	out io.Writer,
) *FetchFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FetchFlow{
		searcher:   searcher,
		downloader: downloader,
		repo:       repo,
		notifier:   notifier,
		config:     config,
		logger:     logger,
		in:         bufio.NewReader(in),
		out:        out,
	}
}

// Run executes the flow for the given command-line words. Empty input or a
// failing search ends the flow with a nil error and the cause in
// Report.Reason; only a cancelled context or unreadable input is returned.
func (f *FetchFlow) Run(ctx context.Context, args []string) (*Report, error) {
	report := &Report{State: StateStart}

	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		line, err := f.prompt(PromptQuery)
		if err != nil {
			return f.finish(report, err)
		}
		query = strings.TrimSpace(line)
	}
	if query == "" {
		f.println(MsgNoQuery)
		return f.end(report, domain.ErrNoQuery), nil
	}
	report.Query = query
	report.State = StateQueryAcquired

	results, err := f.Search(ctx, query, f.config.Search.Limit)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return f.finish(report, ctxErr)
		}
		f.printf("%s %v\n", MsgSearchFailed, errors.Unwrap(err))
		f.logger.Warn("Search failed", zap.String("query", query), zap.Error(err))
		return f.end(report, err), nil
	}
	report.Results = results
	if len(results) == 0 {
		f.println(MsgNoResults)
		return f.end(report, domain.ErrNoResults), nil
	}
	report.State = StateResultsListed

	raw, err := f.prompt(PromptSelection)
	if err != nil {
		return f.finish(report, err)
	}
	indices, rejected := domain.ParseSelection(raw, len(results))
	for _, r := range rejected {
		f.println(r.Error())
	}
	report.Selection = indices
	if len(indices) == 0 {
		f.println(MsgNoSelection)
		return f.end(report, domain.ErrNoSelection), nil
	}
	report.State = StateSelectionParsed

	for _, idx := range indices {
		if err := ctx.Err(); err != nil {
			return f.finish(report, err)
		}
		result := results[idx-1]
		outcome := f.Download(ctx, query, idx, result, f.config.Download.OutputDir)
		report.Outcomes = append(report.Outcomes, outcome)
	}
	report.State = StateDownloadsAttempted

	f.logger.Info("Fetch finished",
		zap.String("query", query),
		zap.Int("selected", len(indices)),
		zap.Int("completed", countCompleted(report.Outcomes)))

	return f.end(report, nil), nil
}

// Search looks up query, keeps at most limit results and prints the listing
func (f *FetchFlow) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	if limit < 1 {
		limit = 10
	}

	f.logger.Debug("Searching", zap.String("query", query), zap.Int("limit", limit))

	results, err := f.searcher.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if len(results) > limit {
		results = results[:limit]
	}

	for i, r := range results {
		f.println(r.Listing(i + 1))
	}
	return results, nil
}

// Download fetches the result at the 1-based index into outputPath. Failures
// are reported and returned as the outcome's status, never as an error. A
// download cut short by ctx is marked failed but neither printed nor recorded.
func (f *FetchFlow) Download(ctx context.Context, query string, index int, result domain.SearchResult, outputPath string) *domain.Download {
	download := domain.NewDownload(query, index, result)

	if result.Link == "" {
		f.printf("Missing URL for selected video #%d.\n", index)
		download.MarkSkipped(fmt.Errorf("%w #%d", domain.ErrMissingLink, index))
		f.record(download)
		return download
	}

	if outputPath == "" {
		outputPath = "."
	}

	download.MarkProcessing()
	f.printf("Downloading: %s\n", result.DisplayTitle())

	res, err := f.downloader.Download(ctx, result.Link, outputPath)
	if err != nil && ctx.Err() != nil {
		download.MarkFailed(ctx.Err())
		f.logger.Debug("Download interrupted",
			zap.String("id", download.ID),
			zap.String("url", result.Link))
		return download
	}
	if err != nil {
		f.printf("Failed to download %s: %v\n", result.Link, err)
		download.MarkFailed(err)

		f.logger.Warn("Download failed",
			zap.String("id", download.ID),
			zap.String("url", result.Link),
			zap.Error(err))

		f.record(download)
		if f.notifier != nil {
			f.notifier.NotifyDownloadFailed(download)
		}
		return download
	}

	var filePath string
	if res != nil {
		if res.Title != "" {
			download.Title = res.Title
		}
		filePath = res.FilePath
	}
	download.MarkCompleted(filePath)
	f.printf("Downloaded successfully.\n\n")

	f.logger.Info("Download completed",
		zap.String("id", download.ID),
		zap.String("url", result.Link),
		zap.String("file", download.FilePath))

	f.record(download)
	if f.notifier != nil {
		f.notifier.NotifyDownloadCompleted(download)
	}
	return download
}

// record stores the outcome; history is best effort
func (f *FetchFlow) record(download *domain.Download) {
	if f.repo == nil {
		return
	}
	if err := f.repo.Create(download); err != nil {
		f.logger.Warn("Failed to record download history",
			zap.String("id", download.ID),
			zap.Error(err))
	}
}

// prompt prints label and reads one line. End of input counts as an empty answer.
func (f *FetchFlow) prompt(label string) (string, error) {
	fmt.Fprint(f.out, label)
	line, err := f.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (f *FetchFlow) end(report *Report, reason error) *Report {
	report.Reason = reason
	report.Reached = report.State
	if reason != nil {
		f.logger.Debug("Fetch ended early",
			zap.String("state", string(report.State)),
			zap.Error(reason))
	}
	report.State = StateDone
	return report
}

func (f *FetchFlow) finish(report *Report, err error) (*Report, error) {
	return f.end(report, err), err
}

func (f *FetchFlow) println(line string) {
	fmt.Fprintln(f.out, line)
}

func (f *FetchFlow) printf(format string, args ...interface{}) {
	fmt.Fprintf(f.out, format, args...)
}

func countCompleted(outcomes []*domain.Download) int {
	n := 0
	for _, o := range outcomes {
		if o.Succeeded() {
			n++
		}
	}
	return n
}
