package infrastructure

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lrstanley/go-ytdlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/echo-fetch-go/internal/domain"
)

func newTestYTDLPDownloader() *YTDLPDownloader {
	config := domain.DefaultConfig().Download
	return NewYTDLPDownloader(&config, nil)
}

func TestYTDLPDownloader_Validate(t *testing.T) {
	downloader := newTestYTDLPDownloader()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "watch URL", url: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{name: "mobile watch URL", url: "https://m.youtube.com/watch?v=dQw4w9WgXcQ&t=10"},
		{name: "short link", url: "https://youtu.be/dQw4w9WgXcQ"},
		{name: "shorts", url: "https://www.youtube.com/shorts/abcdefghijk"},
		{name: "uppercase host", url: "https://WWW.YOUTUBE.COM/watch?v=dQw4w9WgXcQ"},
		{name: "watch without id", url: "https://www.youtube.com/watch", wantErr: true},
		{name: "short link without id", url: "https://youtu.be/", wantErr: true},
		{name: "other domain", url: "https://example.com/watch?v=dQw4w9WgXcQ", wantErr: true},
		{name: "lookalike domain", url: "https://youtube.com.evil.example/watch?v=x", wantErr: true},
		{name: "not a URL", url: "definitely not a url", wantErr: true},
		{name: "ftp scheme", url: "ftp://youtube.com/watch?v=x", wantErr: true},
		{name: "empty", url: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := downloader.Validate(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid YouTube URL")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestYTDLPDownloader_DownloadRejectsInvalidURL(t *testing.T) {
	downloader := newTestYTDLPDownloader()

	result, err := downloader.Download(context.Background(), "https://example.com/video", t.TempDir())
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestYTDLPDownloader_DefaultFormat(t *testing.T) {
	downloader := NewYTDLPDownloader(&domain.DownloadConfig{}, nil)
	assert.Equal(t, "best", downloader.format())

	downloader.config.Format = "bestvideo*+bestaudio/best"
	assert.Equal(t, "bestvideo*+bestaudio/best", downloader.format())
}

func TestYTDLPDownloader_EnsureInstalledSkippedWithoutAutoInstall(t *testing.T) {
	downloader := NewYTDLPDownloader(&domain.DownloadConfig{AutoInstall: false}, nil)
	assert.NoError(t, downloader.ensureInstalled(context.Background()))

	downloader = NewYTDLPDownloader(&domain.DownloadConfig{AutoInstall: true, YTDLPBinary: "/usr/bin/yt-dlp"}, nil)
	assert.NoError(t, downloader.ensureInstalled(context.Background()))
}

func TestResultFromInfo(t *testing.T) {
	title := "Some Video"
	relative := "Some_Video.mp4"
	absolute := "/data/videos/Some_Video.mp4"

	result := resultFromInfo(nil, "out")
	assert.Empty(t, result.Title)
	assert.Empty(t, result.FilePath)

	result = resultFromInfo([]*ytdlp.ExtractedInfo{{Title: &title, Filename: &relative}}, "out")
	assert.Equal(t, "Some Video", result.Title)
	assert.Equal(t, filepath.Join("out", "Some_Video.mp4"), result.FilePath)

	result = resultFromInfo([]*ytdlp.ExtractedInfo{{Title: &title, Filename: &absolute}}, "out")
	assert.Equal(t, absolute, result.FilePath)
}
