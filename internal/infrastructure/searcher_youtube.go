package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/yourusername/echo-fetch-go/internal/domain"
)

const (
	ytInitialDataMarker = "var ytInitialData = "
	ytSearchFilter      = "EgIQAQ%3D%3D" // videos only
	ytWatchURL          = "https://www.youtube.com/watch?v="
	ytMaxPageSize       = 4 * 1024 * 1024
	ytAPIMaxResults     = 50
	userAgent           = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
)

var isoDurationRE = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// YouTube Data API v3 payloads

type ytDataSearchResp struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
	} `json:"items"`
}

type ytDataVideosResp struct {
	Items []struct {
		ID             string `json:"id"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// ytInitialData payloads

type ytText struct {
	SimpleText string `json:"simpleText"`
	Runs       []struct {
		Text string `json:"text"`
	} `json:"runs"`
}

func (t ytText) String() string {
	if t.SimpleText != "" {
		return t.SimpleText
	}
	var b strings.Builder
	for _, r := range t.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

type ytVideoRenderer struct {
	VideoID    string `json:"videoId"`
	Title      ytText `json:"title"`
	OwnerText  ytText `json:"ownerText"`
	LengthText ytText `json:"lengthText"`
}

// YouTubeSearcher implements Searcher against YouTube.
// It uses the Data API when a key is configured and scrapes the results page otherwise.
type YouTubeSearcher struct {
	config *domain.SearchConfig
	client *http.Client
	logger *zap.Logger
}

// NewYouTubeSearcher creates a new YouTube searcher
func NewYouTubeSearcher(config *domain.SearchConfig, logger *zap.Logger) *YouTubeSearcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YouTubeSearcher{
		config: config,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Search returns up to limit videos for query in relevance order
func (s *YouTubeSearcher) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	if limit <= 0 {
		limit = s.config.Limit
	}

	var (
		results []domain.SearchResult
		err     error
	)
	if s.config.APIKey != "" {
		results, err = s.searchDataAPI(ctx, query, limit)
	} else {
		results, err = s.searchInitialData(ctx, query, limit)
	}
	if err != nil {
		return nil, err
	}

	if len(results) > limit {
		results = results[:limit]
	}
	s.logger.Debug("Search finished",
		zap.String("query", query),
		zap.Int("limit", limit),
		zap.Int("results", len(results)))
	return results, nil
}

// searchDataAPI queries search.list and then videos.list for durations
func (s *YouTubeSearcher) searchDataAPI(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	maxResults := limit
	if maxResults > ytAPIMaxResults {
		maxResults = ytAPIMaxResults
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("key", s.config.APIKey)
	if s.config.Language != "" {
		params.Set("relevanceLanguage", s.config.Language)
	}

	var searchResp ytDataSearchResp
	if err := s.getJSON(ctx, s.config.APIURL+"/search?"+params.Encode(), &searchResp); err != nil {
		return nil, fmt.Errorf("youtube data API search: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(searchResp.Items))
	ids := make([]string, 0, len(searchResp.Items))
	for _, item := range searchResp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		ids = append(ids, item.ID.VideoID)
		results = append(results, domain.SearchResult{
			ID:      item.ID.VideoID,
			Title:   item.Snippet.Title,
			Link:    ytWatchURL + item.ID.VideoID,
			Channel: item.Snippet.ChannelTitle,
		})
	}
	if len(ids) == 0 {
		return results, nil
	}

	params = url.Values{}
	params.Set("part", "contentDetails")
	params.Set("id", strings.Join(ids, ","))
	params.Set("key", s.config.APIKey)

	var videosResp ytDataVideosResp
	if err := s.getJSON(ctx, s.config.APIURL+"/videos?"+params.Encode(), &videosResp); err != nil {
		// Results are still usable without durations.
		s.logger.Warn("Failed to fetch video durations", zap.Error(err))
		return results, nil
	}

	durations := make(map[string]string, len(videosResp.Items))
	for _, item := range videosResp.Items {
		durations[item.ID] = formatISODuration(item.ContentDetails.Duration)
	}
	for i := range results {
		results[i].Duration = durations[results[i].ID]
	}
	return results, nil
}

// searchInitialData scrapes the results page and walks ytInitialData
func (s *YouTubeSearcher) searchInitialData(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	searchURL := s.config.BaseURL + "/results?search_query=" + url.QueryEscape(query) + "&sp=" + ytSearchFilter

	body, err := s.get(ctx, searchURL, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return nil, fmt.Errorf("youtube search page: %w", err)
	}

	idx := strings.Index(string(body), ytInitialDataMarker)
	if idx < 0 {
		return nil, fmt.Errorf("ytInitialData not found in search response")
	}
	data := extractJSON(body[idx+len(ytInitialDataMarker):])
	if data == nil {
		return nil, fmt.Errorf("failed to extract ytInitialData JSON")
	}
	return extractVideoRenderers(data, limit), nil
}

func (s *YouTubeSearcher) getJSON(ctx context.Context, rawURL string, v interface{}) error {
	body, err := s.get(ctx, rawURL, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// get performs a GET with exponential backoff on 429 and 5xx responses
func (s *YouTubeSearcher) get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	operation := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", accept)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := s.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, err
		}
		defer resp.Body.Close()

		if isRetryableStatus(resp.StatusCode) {
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, backoff.Permanent(fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
		}

		return io.ReadAll(io.LimitReader(resp.Body, ytMaxPageSize))
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(3),
		backoff.WithNotify(func(err error, wait time.Duration) {
			s.logger.Debug("Retrying search request", zap.Error(err), zap.Duration("wait", wait))
		}))
}

// isRetryableStatus returns true for HTTP status codes worth retrying
func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// extractJSON returns the JSON object starting at b[0], tracking brace depth
// outside of string literals.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}

// extractVideoRenderers walks ytInitialData depth-first in document order and
// collects videoRenderer entries, preserving relevance order.
func extractVideoRenderers(data []byte, limit int) []domain.SearchResult {
	var results []domain.SearchResult
	var walk func(v json.RawMessage)
	walk = func(v json.RawMessage) {
		if len(results) >= limit {
			return
		}
		v = json.RawMessage(strings.TrimSpace(string(v)))
		if len(v) == 0 {
			return
		}
		switch v[0] {
		case '{':
			if raw, ok := rendererOf(v); ok {
				var vr ytVideoRenderer
				if err := json.Unmarshal(raw, &vr); err == nil && vr.VideoID != "" {
					results = append(results, domain.SearchResult{
						ID:       vr.VideoID,
						Title:    vr.Title.String(),
						Duration: vr.LengthText.String(),
						Link:     ytWatchURL + vr.VideoID,
						Channel:  vr.OwnerText.String(),
					})
					return
				}
			}
			for _, child := range orderedValues(v) {
				if len(results) >= limit {
					return
				}
				walk(child)
			}
		case '[':
			var arr []json.RawMessage
			if err := json.Unmarshal(v, &arr); err != nil {
				return
			}
			for _, item := range arr {
				if len(results) >= limit {
					return
				}
				walk(item)
			}
		}
	}
	walk(data)
	return results
}

func rendererOf(obj json.RawMessage) (json.RawMessage, bool) {
	var candidate struct {
		VideoRenderer json.RawMessage `json:"videoRenderer"`
	}
	if err := json.Unmarshal(obj, &candidate); err != nil || candidate.VideoRenderer == nil {
		return nil, false
	}
	return candidate.VideoRenderer, true
}

// orderedValues returns the values of a JSON object in document order.
// Go maps do not keep key order, and result order matters here.
func orderedValues(obj json.RawMessage) []json.RawMessage {
	dec := json.NewDecoder(strings.NewReader(string(obj)))
	if _, err := dec.Token(); err != nil {
		return nil
	}
	var values []json.RawMessage
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return values
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return values
		}
		values = append(values, value)
	}
	return values
}

// formatISODuration converts an ISO-8601 duration (PT1H2M3S) to 1:02:03
func formatISODuration(iso string) string {
	m := isoDurationRE.FindStringSubmatch(iso)
	if m == nil {
		return ""
	}
	part := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	total := part(m[1])*86400 + part(m[2])*3600 + part(m[3])*60 + part(m[4])
	if total == 0 {
		return ""
	}
	return formatSeconds(total)
}

// formatSeconds formats seconds as M:SS or H:MM:SS
func formatSeconds(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
