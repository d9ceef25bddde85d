package orchestrator

import (
	"fmt"
	"time"

	"trend-finder/internal/models"
)

// Phase is the lifecycle position of the current submission.
type Phase string

const (
	PhaseIdle           Phase = "Idle"
	PhaseRunning        Phase = "Running"
	PhaseSuccess        Phase = "Success"
	PhasePartialFailure Phase = "PartialFailure"
	PhaseFailure        Phase = "Failure"
)

const (
	statusAnalyzing = "Analyzing niche with AI..."
	// NoQueriesMessage is shown when the AI analysis came back without queries.
	NoQueriesMessage = "AI provided analysis but no search queries to find videos."
)

// State is everything the presentation layer renders for one submission.
type State struct {
	Token         uint64                `json:"token"`
	RunID         string                `json:"run_id,omitempty"`
	Phase         Phase                 `json:"phase"`
	Niche         string                `json:"niche,omitempty"`
	Analysis      *models.TrendAnalysis `json:"analysis,omitempty"`
	Query         string                `json:"query,omitempty"`
	Videos        []models.Video        `json:"videos"`
	IsRunning     bool                  `json:"is_running"`
	StatusMessage string                `json:"status_message,omitempty"`
	Failure       *models.ErrorInfo     `json:"failure,omitempty"`
	StartedAt     time.Time             `json:"started_at"`
	FinishedAt    time.Time             `json:"finished_at"`
}

// NoVideosFound is the neutral "analysis done, nothing matched" outcome.
func (s State) NoVideosFound() bool {
	return s.Phase == PhaseSuccess && s.Analysis != nil && s.Failure == nil && len(s.Videos) == 0
}

// Clone returns a copy that shares no slices with s.
func (s State) Clone() State {
	out := s
	if s.Videos != nil {
		out.Videos = append([]models.Video(nil), s.Videos...)
	}
	if s.Analysis != nil {
		a := *s.Analysis
		a.SuggestedQueries = append([]string(nil), s.Analysis.SuggestedQueries...)
		out.Analysis = &a
	}
	if s.Failure != nil {
		f := *s.Failure
		out.Failure = &f
	}
	return out
}

// EventType names a state transition.
type EventType int

const (
	EventSubmitted EventType = iota
	EventAnalysisSucceeded
	EventAnalysisFailed
	EventNoQueries
	EventVideosSucceeded
	EventVideosFailed
	EventFailed
	EventFinished
)

func (t EventType) String() string {
	switch t {
	case EventSubmitted:
		return "submitted"
	case EventAnalysisSucceeded:
		return "analysis_succeeded"
	case EventAnalysisFailed:
		return "analysis_failed"
	case EventNoQueries:
		return "no_queries"
	case EventVideosSucceeded:
		return "videos_succeeded"
	case EventVideosFailed:
		return "videos_failed"
	case EventFailed:
		return "failed"
	case EventFinished:
		return "finished"
	}
	return fmt.Sprintf("event(%d)", int(t))
}

// Event carries the payload of one transition. Only the fields relevant to
// Type are read.
type Event struct {
	Type     EventType
	Token    uint64
	RunID    string
	Niche    string
	Analysis *models.TrendAnalysis
	Videos   []models.Video
	Failure  *models.ErrorInfo
	At       time.Time
}

// Apply returns the state that follows s after e. It does not mutate s.
func Apply(s State, e Event) State {
	switch e.Type {
	case EventSubmitted:
		return State{
			Token:         e.Token,
			RunID:         e.RunID,
			Phase:         PhaseRunning,
			Niche:         e.Niche,
			Videos:        []models.Video{},
			IsRunning:     true,
			StatusMessage: statusAnalyzing,
			StartedAt:     e.At,
		}

	case EventAnalysisSucceeded:
		s.Analysis = e.Analysis
		if q := e.Analysis.TopQuery(); q != "" {
			s.Query = q
			s.StatusMessage = fmt.Sprintf(`Fetching YouTube videos for query: "%s"...`, q)
		}

	case EventAnalysisFailed, EventFailed:
		s.Analysis = nil
		s.Query = ""
		s.Videos = []models.Video{}
		s.Failure = e.Failure
		s.Phase = PhaseFailure

	case EventNoQueries:
		s.Failure = &models.ErrorInfo{Kind: models.KindNoSearchQueries, Message: NoQueriesMessage}
		s.Phase = PhasePartialFailure

	case EventVideosSucceeded:
		s.Videos = e.Videos
		if s.Videos == nil {
			s.Videos = []models.Video{}
		}
		s.Phase = PhaseSuccess

	case EventVideosFailed:
		s.Videos = []models.Video{}
		s.Failure = e.Failure
		if s.Analysis != nil {
			s.Phase = PhasePartialFailure
		} else {
			s.Phase = PhaseFailure
		}

	case EventFinished:
		if s.Phase == PhaseRunning {
			// A run that ends without an outcome event never produced one.
			s.Phase = PhaseFailure
			if s.Failure == nil {
				s.Failure = &models.ErrorInfo{Kind: models.KindUnknown, Message: "An unexpected error occurred."}
			}
		}
		s.IsRunning = false
		s.StatusMessage = ""
		s.FinishedAt = e.At
	}
	return s
}
