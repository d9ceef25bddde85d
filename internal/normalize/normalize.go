// Package normalize validates raw AI and YouTube payloads and coerces them
// into the internal data model.
//
// Trend analysis replies are all-or-nothing: a wrong-typed or missing field
// rejects the whole reply. Video items are best effort: every field falls back
// to a default so one odd item never aborts a batch.
package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"trend-finder/internal/models"
)

// MaxSuggestedQueries caps the suggested queries kept from an AI reply.
const MaxSuggestedQueries = 3

const (
	defaultTitle        = "No title"
	defaultChannelTitle = "Unknown channel"
)

var fenceRegex = regexp.MustCompile("(?s)^```(?:json)?\\s*\\n?(.*?)\\n?\\s*```$")

// StripCodeFence removes a surrounding ``` or ```json block from text.
// Unfenced text is returned trimmed.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if m := fenceRegex.FindStringSubmatch(text); m != nil && m[1] != "" {
		return strings.TrimSpace(m[1])
	}
	return text
}

// TrendAnalysis validates a decoded JSON value against the reply contract
// {"trendAnalysis": string, "suggestedSearchQueries": [string, ...]}.
func TrendAnalysis(raw any) (*models.TrendAnalysis, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, malformed("AI response is not a JSON object.")
	}

	text, ok := obj["trendAnalysis"].(string)
	if !ok || strings.TrimSpace(text) == "" {
		return nil, malformed("AI response is missing crucial data (trendAnalysis).")
	}

	rawQueries, ok := obj["suggestedSearchQueries"].([]any)
	if !ok || len(rawQueries) == 0 {
		return nil, malformed("AI response is missing crucial data (suggestedSearchQueries).")
	}

	queries := make([]string, 0, len(rawQueries))
	for i, q := range rawQueries {
		s, ok := q.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, malformed(fmt.Sprintf("AI provided search queries in an invalid format (entry %d).", i))
		}
		queries = append(queries, strings.TrimSpace(s))
	}
	if len(queries) > MaxSuggestedQueries {
		queries = queries[:MaxSuggestedQueries]
	}

	return &models.TrendAnalysis{
		AnalysisText:     strings.TrimSpace(text),
		SuggestedQueries: queries,
	}, nil
}

func malformed(msg string) error {
	return models.NewError(models.KindMalformedAnalysis, nil, "%s", msg)
}

// VideoItem maps one item of a videos.list response. It never fails.
func VideoItem(raw any) models.Video {
	item, _ := raw.(map[string]any)
	snippet := object(item, "snippet")
	stats := object(item, "statistics")

	return models.Video{
		ID:           stringOr(item, "id", ""),
		Title:        stringOr(snippet, "title", defaultTitle),
		ChannelID:    stringOr(snippet, "channelId", ""),
		ChannelTitle: stringOr(snippet, "channelTitle", defaultChannelTitle),
		ViewCount:    count(stats["viewCount"]),
		LikeCount:    count(stats["likeCount"]),
		CommentCount: count(stats["commentCount"]),
		Description:  stringOr(snippet, "description", ""),
		Tags:         tags(snippet["tags"]),
		ThumbnailURL: thumbnail(object(snippet, "thumbnails")),
		PublishedAt:  stringOr(snippet, "publishedAt", ""),
	}
}

func object(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)
	return v
}

// stringOr returns m[key] when it is a non-empty string.
func stringOr(m map[string]any, key, fallback string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

// count parses the API's string-encoded counters. Leading digits are used the
// way a lenient integer parse would; anything unusable is zero.
func count(v any) int64 {
	switch n := v.(type) {
	case string:
		s := strings.TrimSpace(n)
		end := 0
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}
		if end == 0 {
			return 0
		}
		parsed, err := strconv.ParseInt(s[:end], 10, 64)
		if err != nil {
			return math.MaxInt64
		}
		return parsed
	case float64:
		if n <= 0 || math.IsNaN(n) {
			return 0
		}
		if n >= math.MaxInt64 {
			return math.MaxInt64
		}
		return int64(n)
	}
	return 0
}

func tags(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, t := range list {
		if s, ok := t.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func thumbnail(thumbs map[string]any) string {
	for _, size := range []string{"medium", "default"} {
		if url := stringOr(object(thumbs, size), "url", ""); url != "" {
			return url
		}
	}
	return models.PlaceholderThumbnailURL
}
