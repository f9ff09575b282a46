package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/echo-fetch-go/internal/domain"
)

const initialDataFixture = `{
  "contents": {"twoColumnSearchResultsRenderer": {"primaryContents": {"sectionListRenderer": {"contents": [
    {"itemSectionRenderer": {"contents": [
      {"adSlotRenderer": {"id": "ad"}},
      {"videoRenderer": {"videoId": "zzzzzzzzzz1", "title": {"runs": [{"text": "First "}, {"text": "video"}]},
        "ownerText": {"runs": [{"text": "Channel A"}]}, "lengthText": {"simpleText": "4:05"}}},
      {"videoRenderer": {"videoId": "aaaaaaaaaa2", "title": {"runs": [{"text": "Second {braces} \"quoted\""}]},
        "lengthText": {"simpleText": "1:02:03"}}},
      {"videoRenderer": {"videoId": "mmmmmmmmmm3", "title": {"runs": [{"text": "Live now"}]}}}
    ]}}
  ]}}}}
}`

func newTestSearcher(baseURL, apiKey string) *YouTubeSearcher {
	config := domain.DefaultConfig().Search
	config.BaseURL = baseURL
	config.APIURL = baseURL + "/youtube/v3"
	config.APIKey = apiKey
	return NewYouTubeSearcher(&config, nil)
}

func TestYouTubeSearcher_ScrapesInitialData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/results", r.URL.Path)
		assert.Equal(t, "lo fi beats", r.URL.Query().Get("search_query"))
		fmt.Fprintf(w, "<html><script>var ytInitialData = %s;</script></html>", initialDataFixture)
	}))
	defer server.Close()

	searcher := newTestSearcher(server.URL, "")
	results, err := searcher.Search(context.Background(), "lo fi beats", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "First video", results[0].Title)
	assert.Equal(t, "4:05", results[0].Duration)
	assert.Equal(t, "Channel A", results[0].Channel)
	assert.Equal(t, "https://www.youtube.com/watch?v=zzzzzzzzzz1", results[0].Link)

	assert.Equal(t, `Second {braces} "quoted"`, results[1].Title)
	assert.Equal(t, "1:02:03", results[1].Duration)

	assert.Equal(t, "Live now", results[2].Title)
	assert.Empty(t, results[2].Duration)
}

func TestYouTubeSearcher_TruncatesToLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "var ytInitialData = %s;", initialDataFixture)
	}))
	defer server.Close()

	results, err := newTestSearcher(server.URL, "").Search(context.Background(), "q", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "zzzzzzzzzz1", results[0].ID)
	assert.Equal(t, "aaaaaaaaaa2", results[1].ID)
}

func TestYouTubeSearcher_MissingInitialData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>consent page</html>")
	}))
	defer server.Close()

	_, err := newTestSearcher(server.URL, "").Search(context.Background(), "q", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ytInitialData not found")
}

func TestYouTubeSearcher_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintf(w, "var ytInitialData = %s;", initialDataFixture)
	}))
	defer server.Close()

	results, err := newTestSearcher(server.URL, "").Search(context.Background(), "q", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestYouTubeSearcher_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestSearcher(server.URL, "").Search(context.Background(), "q", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestYouTubeSearcher_DataAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		switch r.URL.Path {
		case "/youtube/v3/search":
			assert.Equal(t, "video", r.URL.Query().Get("type"))
			assert.Equal(t, "3", r.URL.Query().Get("maxResults"))
			fmt.Fprint(w, `{"items": [
				{"id": {"videoId": "bbbbbbbbbb1"}, "snippet": {"title": "B", "channelTitle": "Chan"}},
				{"id": {"channelId": "not-a-video"}, "snippet": {"title": "channel"}},
				{"id": {"videoId": "aaaaaaaaaa2"}, "snippet": {"title": "A"}}
			]}`)
		case "/youtube/v3/videos":
			assert.Equal(t, "bbbbbbbbbb1,aaaaaaaaaa2", r.URL.Query().Get("id"))
			fmt.Fprint(w, `{"items": [
				{"id": "aaaaaaaaaa2", "contentDetails": {"duration": "PT1H2M3S"}},
				{"id": "bbbbbbbbbb1", "contentDetails": {"duration": "PT45S"}}
			]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	results, err := newTestSearcher(server.URL, "secret").Search(context.Background(), "q", 3)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "B", results[0].Title)
	assert.Equal(t, "0:45", results[0].Duration)
	assert.Equal(t, "Chan", results[0].Channel)
	assert.Equal(t, "A", results[1].Title)
	assert.Equal(t, "1:02:03", results[1].Duration)
}

func TestExtractJSON(t *testing.T) {
	assert.Nil(t, extractJSON([]byte("nope")))
	assert.Nil(t, extractJSON([]byte(`{"unterminated": 1`)))
	assert.Equal(t, `{"a":"}\\"}`, string(extractJSON([]byte(`{"a":"}\\"};var x = {}`))))
	assert.Equal(t, `{"a":{"b":"\"}"}}`, string(extractJSON([]byte(`{"a":{"b":"\"}"}} trailing`))))
}

func TestFormatISODuration(t *testing.T) {
	tests := map[string]string{
		"PT4M5S":    "4:05",
		"PT45S":     "0:45",
		"PT1H":      "1:00:00",
		"PT1H2M3S":  "1:02:03",
		"P1DT1S":    "24:00:01",
		"P0D":       "",
		"garbage":   "",
		"":          "",
		"PT10M":     "10:00",
		"PT2H0M30S": "2:00:30",
	}
	for iso, expected := range tests {
		t.Run(strings.ReplaceAll(iso, " ", "_"), func(t *testing.T) {
			assert.Equal(t, expected, formatISODuration(iso))
		})
	}
}
