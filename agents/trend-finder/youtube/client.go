package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"

	"trend-finder/internal/models"
	"trend-finder/internal/normalize"
	"trend-finder/shared/config"
	"trend-finder/shared/logger"
	"trend-finder/shared/monitoring"
)

const serviceName = "youtube"

// Client looks up recent videos for a search query with the YouTube Data API.
type Client struct {
	apiKey        string
	baseURL       string
	maxResults    int
	publishedDays int
	httpClient    *http.Client
	now           func() time.Time
}

// NewClient builds a client from cfg. An empty API key yields a client whose
// lookups fail with a configuration error.
func NewClient(cfg *config.YouTubeConfig) *Client {
	if cfg.APIKey == "" {
		logger.Log.Warn("YOUTUBE_API_KEY not set, YouTube video fetching is disabled")
	}

	return &Client{
		apiKey:        cfg.APIKey,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		maxResults:    cfg.MaxResults,
		publishedDays: cfg.PublishedDays,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		now: time.Now,
	}
}

// Enabled reports whether an API key was configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// FetchVideosForQuery searches for recent videos matching query, then fetches
// their details in one batch. An empty result is not an error.
func (c *Client) FetchVideosForQuery(ctx context.Context, query string) ([]models.Video, error) {
	if c.apiKey == "" {
		return nil, models.NewError(models.KindConfiguration, nil,
			"YouTube Video Fetching Disabled: The YOUTUBE_API_KEY environment variable is not configured. Please set this environment variable to enable fetching YouTube videos.")
	}

	log := logger.Log.WithField("query", query)

	// Step 1: Search for candidate video IDs
	videoIDs, err := c.searchVideoIDs(ctx, query)
	if err != nil {
		log.WithError(err).Error("YouTube search failed")
		return nil, err
	}

	if len(videoIDs) == 0 {
		log.Info("No videos found for query")
		return []models.Video{}, nil
	}

	// Step 2: Get details for all IDs in one call
	videos, err := c.videoDetails(ctx, videoIDs)
	if err != nil {
		log.WithError(err).Error("YouTube video details lookup failed")
		return nil, err
	}

	log.Infof("Retrieved %d videos for %d search results", len(videos), len(videoIDs))
	return videos, nil
}

func (c *Client) searchVideoIDs(ctx context.Context, query string) ([]string, error) {
	params := url.Values{
		"part":           {"snippet"},
		"q":              {query},
		"type":           {"video"},
		"order":          {"viewCount"},
		"maxResults":     {strconv.Itoa(c.maxResults)},
		"publishedAfter": {c.publishedAfter()},
		"key":            {c.apiKey},
	}

	var resp youtube.SearchListResponse
	if err := c.get(ctx, "search", "YouTube Search API", params, &resp); err != nil {
		return nil, err
	}

	var ids []string
	for _, item := range resp.Items {
		if item == nil || item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		ids = append(ids, item.Id.VideoId)
	}
	return ids, nil
}

func (c *Client) videoDetails(ctx context.Context, ids []string) ([]models.Video, error) {
	params := url.Values{
		"part": {"snippet,statistics,contentDetails"},
		"id":   {strings.Join(ids, ",")},
		"key":  {c.apiKey},
	}

	// Items stay untyped so a single odd item is defaulted instead of failing
	// the whole decode.
	var resp struct {
		Items []any `json:"items"`
	}
	if err := c.get(ctx, "videos", "YouTube Videos API", params, &resp); err != nil {
		return nil, err
	}

	videos := make([]models.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		videos = append(videos, normalize.VideoItem(item))
	}
	return videos, nil
}

// get issues one GET against {baseURL}/{resource} and decodes a 2xx body into out.
func (c *Client) get(ctx context.Context, resource, label string, params url.Values, out any) (err error) {
	started := time.Now()
	defer func() {
		monitoring.ObserveUpstream(serviceName+"_"+resource, started, err)
	}()

	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, resource, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.NewError(models.KindUnknown, err, "failed to create %s request: %v", label, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.NewError(models.KindServiceUnavailable, err,
			"Failed to retrieve YouTube videos: %s request failed: %v", label, err)
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return statusError(label, resp.StatusCode, err)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return models.NewError(models.KindServiceUnavailable, err,
			"Failed to retrieve YouTube videos: could not decode %s response: %v", label, err)
	}
	return nil
}

// statusError surfaces the status text and the API's error.message.
func statusError(label string, status int, err error) error {
	message := "Unknown error"
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		message = apiErr.Message
	}
	return models.NewError(models.KindServiceUnavailable, err,
		"Failed to retrieve YouTube videos: %s request failed: %s - %s", label, http.StatusText(status), message)
}

func (c *Client) publishedAfter() string {
	return c.now().UTC().AddDate(0, 0, -c.publishedDays).Format(time.RFC3339)
}
