package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/echo-fetch-go/internal/app"
	"github.com/yourusername/echo-fetch-go/internal/domain"
	"github.com/yourusername/echo-fetch-go/internal/infrastructure"
	"github.com/yourusername/echo-fetch-go/pkg/logger"
)

var (
	configPath string
	limit      int
	outputDir  string
	verbose    bool
	rootCmd    = &cobra.Command{
		Use:   "vidfetch [query words...]",
		Short: "Search YouTube and download the videos you pick",
		Long: `Searches YouTube for the given words, lists the matches and downloads
the ones you select at the highest available quality.

Without arguments the search words are read interactively. A query that is
exactly a subcommand name must be quoted with other words or passed after --.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runFetch,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")
	rootCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of search results")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory to save videos in")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(configCmd)
}

// loadRuntime loads configuration with flag overrides and builds the logger
func loadRuntime(cmd *cobra.Command) (*domain.Config, *zap.Logger, error) {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	if cmd.Flags().Changed("limit") {
		if limit < 1 {
			return nil, nil, fmt.Errorf("limit must be at least 1")
		}
		config.Search.Limit = limit
	}
	if outputDir != "" {
		config.Download.OutputDir = outputDir
	}

	// Diagnostics for the user go to stdout; structured logs stay quiet unless asked
	level := "warn"
	if verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Config{
		Level:      level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return config, log, nil
}

// openHistory opens the history store. A store that cannot be opened only
// disables history for this run.
func openHistory(config *domain.Config, log *zap.Logger) *infrastructure.SQLiteDownloadRepository {
	if !config.History.Enabled {
		return nil
	}
	repo, err := infrastructure.NewSQLiteDownloadRepository(config.History.DatabasePath)
	if err != nil {
		log.Warn("Download history unavailable",
			zap.String("path", config.History.DatabasePath),
			zap.Error(err))
		return nil
	}
	return repo
}

func runFetch(cmd *cobra.Command, args []string) error {
	config, log, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	searcher := infrastructure.NewYouTubeSearcher(&config.Search, log)
	downloader := infrastructure.NewYTDLPDownloader(&config.Download, log)

	var repo domain.DownloadRepository
	if history := openHistory(config, log); history != nil {
		defer history.Close()
		repo = history
	}

	var notifier domain.Notifier
	if config.Notification.Enabled {
		notifier = infrastructure.NewNotificationService(&config.Notification, log)
	}

	flow := app.NewFetchFlow(searcher, downloader, repo, notifier, config, log,
		cmd.InOrStdin(), cmd.OutOrStdout())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Reading the terminal blocks, so the flow runs aside and an interrupt
	// can end the command while it waits for input
	done := make(chan flowResult, 1)
	go func() {
		report, err := flow.Run(ctx, args)
		done <- flowResult{report, err}
	}()

	return awaitFlow(ctx, cmd.OutOrStdout(), done)
}

// cancelGrace bounds the wait for an interrupted flow to stop before the
// history store closes
var cancelGrace = 3 * time.Second

type flowResult struct {
	report *app.Report
	err    error
}

// awaitFlow waits for the flow or an interrupt. Cancellation prints one
// notice and is not an error.
func awaitFlow(ctx context.Context, out io.Writer, done <-chan flowResult) error {
	select {
	case res := <-done:
		if !errors.Is(res.err, context.Canceled) {
			return res.err
		}
	case <-ctx.Done():
		// A running download sees ctx and returns without recording;
		// a flow blocked on input is abandoned
		select {
		case <-done:
		case <-time.After(cancelGrace):
		}
	}
	fmt.Fprintln(out, app.MsgCancelled)
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
