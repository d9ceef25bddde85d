package models

import "fmt"

// PlaceholderThumbnailURL is used when a video carries no usable thumbnail.
const PlaceholderThumbnailURL = "https://via.placeholder.com/320x180.png?text=No+Thumbnail"

const (
	watchURLPrefix   = "https://www.youtube.com/watch?v="
	channelURLPrefix = "https://www.youtube.com/channel/"
)

// TrendAnalysis is the normalized reply of the AI service for one niche.
type TrendAnalysis struct {
	AnalysisText     string   `json:"trend_analysis"`
	SuggestedQueries []string `json:"suggested_search_queries"` // 1-3 entries
}

// TopQuery returns the first suggested query, or "" when there is none.
func (t *TrendAnalysis) TopQuery() string {
	if t == nil || len(t.SuggestedQueries) == 0 {
		return ""
	}
	return t.SuggestedQueries[0]
}

// Video is the normalized metadata for one matched video.
type Video struct {
	ID           string   `json:"video_id"`
	Title        string   `json:"title"`
	ChannelID    string   `json:"channel_id"`
	ChannelTitle string   `json:"channel_title"`
	ViewCount    int64    `json:"view_count"`
	LikeCount    int64    `json:"like_count"`
	CommentCount int64    `json:"comment_count"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
	ThumbnailURL string   `json:"thumbnail_url"`
	PublishedAt  string   `json:"published_at"`
}

func (v Video) WatchURL() string {
	return fmt.Sprintf("%s%s", watchURLPrefix, v.ID)
}

func (v Video) ChannelURL() string {
	if v.ChannelID == "" {
		return ""
	}
	return fmt.Sprintf("%s%s", channelURLPrefix, v.ChannelID)
}
