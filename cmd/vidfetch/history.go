package main

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/yourusername/echo-fetch-go/internal/app"
	"github.com/yourusername/echo-fetch-go/internal/domain"
	"github.com/yourusername/echo-fetch-go/internal/infrastructure"
)

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "List past downloads or show one of them",
	Long: `Without arguments lists past downloads, newest first. With an ID, or a
unique prefix of one as shown in the listing, prints that download's details.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		filters := map[string]interface{}{}
		if status != "" {
			if !domain.ValidateStatus(domain.DownloadStatus(status)) {
				return fmt.Errorf("unknown status: %s", status)
			}
			filters["status"] = status
		}

		repo, err := historyStore(cmd)
		if err != nil {
			return err
		}
		defer repo.Close()

		if len(args) == 1 {
			download, err := repo.FindByID(args[0])
			if err != nil {
				return err
			}
			printDownload(cmd.OutOrStdout(), download)
			return nil
		}

		downloads, err := repo.FindAll(filters)
		if err != nil {
			return err
		}
		total, err := repo.Count()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tQUERY\tTITLE\tSTATUS\tCREATED")
		for _, d := range downloads {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				truncate(d.ID, 8),
				truncate(d.Query, 24),
				truncate(d.Title, 40),
				d.Status,
				d.CreatedAt.Format("2006-01-02 15:04"))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nShowing %d of %d downloads\n", len(downloads), total)
		return nil
	},
}

func printDownload(out io.Writer, d *domain.Download) {
	fmt.Fprintf(out, "ID:       %s\n", d.ID)
	fmt.Fprintf(out, "Query:    %s\n", d.Query)
	fmt.Fprintf(out, "Index:    %d\n", d.Index)
	fmt.Fprintf(out, "Title:    %s\n", d.Title)
	fmt.Fprintf(out, "URL:      %s\n", d.URL)
	fmt.Fprintf(out, "Status:   %s\n", d.Status)
	if d.FilePath != "" {
		fmt.Fprintf(out, "File:     %s\n", d.FilePath)
	}
	if d.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:    %s\n", d.ErrorMessage)
	}
	fmt.Fprintf(out, "Created:  %s\n", d.CreatedAt.Format("2006-01-02 15:04:05"))
	if d.CompletedAt != nil {
		fmt.Fprintf(out, "Finished: %s\n", d.CompletedAt.Format("2006-01-02 15:04:05"))
	}
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show download statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := historyStore(cmd)
		if err != nil {
			return err
		}
		defer repo.Close()

		stats, err := repo.GetStats()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Download Statistics:")
		fmt.Fprintf(out, "  Total:      %d\n", stats.Total)
		fmt.Fprintf(out, "  Completed:  %d\n", stats.Completed)
		fmt.Fprintf(out, "  Failed:     %d\n", stats.Failed)
		fmt.Fprintf(out, "  Skipped:    %d\n", stats.Skipped)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the current configuration to a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, log, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		path := filepath.Join(filepath.Dir(config.History.DatabasePath), "config.yaml")
		if len(args) == 1 {
			path = args[0]
		}
		if err := app.SaveConfig(config, path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
		return nil
	},
}

func init() {
	historyCmd.Flags().StringP("status", "s", "", "Filter by status (completed, failed, skipped)")
	configCmd.AddCommand(configInitCmd)
}

// historyStore opens the history database for the read-only subcommands
func historyStore(cmd *cobra.Command) (*infrastructure.SQLiteDownloadRepository, error) {
	config, log, err := loadRuntime(cmd)
	if err != nil {
		return nil, err
	}
	defer log.Sync()

	if !config.History.Enabled {
		return nil, fmt.Errorf("download history is disabled")
	}
	return infrastructure.NewSQLiteDownloadRepository(config.History.DatabasePath)
}

func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}
