package web

import (
	"html/template"
	"time"

	"trend-finder/agents/trend-finder/orchestrator"
	"trend-finder/internal/models"
)

const appTitle = "AI YouTube Niche Trend Finder"

// NoVideosMessage is shown when the analysis finished but the lookup matched
// nothing.
const NoVideosMessage = "AI analysis complete. No specific videos were found for the top suggested search query at this time."

// refreshSeconds is how often the page reloads itself while a run is active.
const refreshSeconds = 2

var templateFuncs = template.FuncMap{
	"formatCount": models.FormatCount,
	"formatDate":  models.FormatPublished,
}

// pageView decides which sections of the page are visible for a state.
type pageView struct {
	Title          string
	RefreshSeconds int
	Year           int
	State          orchestrator.State

	Running            bool
	ErrorAlone         bool
	ShowAnalysis       bool
	ErrorAfterAnalysis bool
	ShowVideos         bool
	NoVideos           bool
	NoVideosMessage    string
}

func newPageView(s orchestrator.State, now time.Time) pageView {
	v := pageView{
		Title:           appTitle,
		RefreshSeconds:  refreshSeconds,
		Year:            now.Year(),
		State:           s,
		Running:         s.IsRunning,
		NoVideosMessage: NoVideosMessage,
	}
	if s.IsRunning {
		return v
	}

	hasFailure := s.Failure != nil
	hasAnalysis := s.Analysis != nil
	submitted := s.Niche != ""

	v.ErrorAlone = hasFailure && !hasAnalysis
	v.ShowAnalysis = submitted && hasAnalysis
	v.ErrorAfterAnalysis = submitted && hasAnalysis && hasFailure
	v.ShowVideos = submitted && hasAnalysis && !hasFailure && len(s.Videos) > 0
	v.NoVideos = submitted && hasAnalysis && !hasFailure && len(s.Videos) == 0
	return v
}
