package models

import "time"

// NicheDigest is the outcome of one scheduled niche run.
type NicheDigest struct {
	Niche    string         `json:"niche"`
	Query    string         `json:"query"`
	Analysis *TrendAnalysis `json:"analysis,omitempty"`
	Videos   []Video        `json:"videos"`
	Failure  *ErrorInfo     `json:"failure,omitempty"`
}

// DigestReport groups every niche of a scheduled run for e-mail delivery.
type DigestReport struct {
	Date      time.Time      `json:"date"`
	Niches    []*NicheDigest `json:"niches"`
	NewVideos int            `json:"new_videos"`
}
