package infrastructure

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"go.uber.org/zap"

	"github.com/yourusername/echo-fetch-go/internal/domain"
)

const (
	outputTemplate    = "%(title)s.%(ext)s"
	progressFrequency = 2 * time.Second
)

var youtubeHosts = map[string]bool{
	"youtube.com":       true,
	"www.youtube.com":   true,
	"m.youtube.com":     true,
	"music.youtube.com": true,
	"youtu.be":          true,
}

// YTDLPDownloader implements Downloader using the yt-dlp binary
type YTDLPDownloader struct {
	config      *domain.DownloadConfig
	logger      *zap.Logger
	installOnce sync.Once
	installErr  error
}

// NewYTDLPDownloader creates a new yt-dlp downloader
func NewYTDLPDownloader(config *domain.DownloadConfig, logger *zap.Logger) *YTDLPDownloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YTDLPDownloader{
		config: config,
		logger: logger,
	}
}

// Validate validates if the downloader can handle the given URL
func (d *YTDLPDownloader) Validate(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid YouTube URL: %s", rawURL)
	}
	host := strings.ToLower(u.Hostname())
	if !youtubeHosts[host] {
		return fmt.Errorf("invalid YouTube URL: %s", rawURL)
	}
	if host == "youtu.be" {
		if strings.Trim(u.Path, "/") == "" {
			return fmt.Errorf("invalid YouTube URL: %s", rawURL)
		}
		return nil
	}
	if u.Path == "/watch" && u.Query().Get("v") == "" {
		return fmt.Errorf("invalid YouTube URL: %s", rawURL)
	}
	return nil
}

// Download downloads the highest resolution stream of a video into outputPath
func (d *YTDLPDownloader) Download(ctx context.Context, rawURL, outputPath string) (*domain.DownloadResult, error) {
	if err := d.Validate(rawURL); err != nil {
		return nil, err
	}

	if outputPath == "" {
		outputPath = "."
	}
	if err := os.MkdirAll(outputPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := d.ensureInstalled(ctx); err != nil {
		return nil, err
	}

	cmd := d.buildCommand(outputPath)
	cmd.ProgressFunc(progressFrequency, func(update ytdlp.ProgressUpdate) {
		fields := []zap.Field{
			zap.String("url", rawURL),
			zap.String("status", string(update.Status)),
			zap.Any("downloaded_bytes", update.DownloadedBytes),
		}
		if update.TotalBytes > 0 {
			percent := float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
			fields = append(fields, zap.Float64("percent", percent))
		}
		d.logger.Debug("Download progress", fields...)
	})

	d.logger.Info("Starting yt-dlp download",
		zap.String("url", rawURL),
		zap.String("output", outputPath),
		zap.String("format", d.format()))

	result, err := cmd.Run(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp failed: %w", err)
	}

	info, err := result.GetExtractedInfo()
	if err != nil {
		d.logger.Warn("Failed to read extracted info", zap.Error(err))
	}
	return resultFromInfo(info, outputPath), nil
}

// buildCommand configures yt-dlp for a single-video, best-quality download
func (d *YTDLPDownloader) buildCommand(outputPath string) *ytdlp.Command {
	cmd := ytdlp.New().
		Format(d.format()).
		NoPlaylist().
		NoOverwrites().
		PrintJSON().
		Paths(outputPath).
		Output(outputTemplate)

	if d.config.YTDLPBinary != "" {
		cmd.SetExecutable(d.config.YTDLPBinary)
	}
	return cmd
}

func (d *YTDLPDownloader) format() string {
	if d.config.Format == "" {
		return "best"
	}
	return d.config.Format
}

// ensureInstalled downloads a yt-dlp binary once when auto install is enabled
func (d *YTDLPDownloader) ensureInstalled(ctx context.Context) error {
	if !d.config.AutoInstall || d.config.YTDLPBinary != "" {
		return nil
	}
	d.installOnce.Do(func() {
		resolved, err := ytdlp.Install(ctx, nil)
		if err != nil {
			d.installErr = fmt.Errorf("failed to install yt-dlp: %w", err)
			return
		}
		d.logger.Info("yt-dlp available",
			zap.String("executable", resolved.Executable),
			zap.String("version", resolved.Version))
	})
	return d.installErr
}

// resultFromInfo picks title and file path from the first extracted entry
func resultFromInfo(info []*ytdlp.ExtractedInfo, outputPath string) *domain.DownloadResult {
	result := &domain.DownloadResult{}
	if len(info) == 0 || info[0] == nil {
		return result
	}
	if info[0].Title != nil {
		result.Title = *info[0].Title
	}
	if info[0].Filename != nil {
		result.FilePath = *info[0].Filename
		if !filepath.IsAbs(result.FilePath) && !strings.HasPrefix(result.FilePath, outputPath) {
			result.FilePath = filepath.Join(outputPath, result.FilePath)
		}
	}
	return result
}
