package trendfinder

import (
	"fmt"

	"trend-finder/agents/trend-finder/orchestrator"
	"trend-finder/shared/monitoring"
)

// RecordOutcomes returns a subscriber that reports finished interactive
// submissions to the monitor. Intermediate states are ignored.
func RecordOutcomes(m *monitoring.Monitor) func(orchestrator.State) {
	return func(s orchestrator.State) {
		if s.IsRunning || s.Phase == orchestrator.PhaseIdle {
			return
		}
		duration := s.FinishedAt.Sub(s.StartedAt)

		msg := "unknown error"
		if s.Failure != nil {
			msg = s.Failure.Message
		}

		switch s.Phase {
		case orchestrator.PhaseSuccess:
			m.RecordSuccess(fmt.Sprintf("niche %q: %d videos", s.Niche, len(s.Videos)), duration)
		case orchestrator.PhasePartialFailure:
			m.RecordPartialFailure(fmt.Errorf("niche %q: %s", s.Niche, msg), duration)
		case orchestrator.PhaseFailure:
			m.RecordCriticalFailure(fmt.Errorf("niche %q: %s", s.Niche, msg), duration)
		}
	}
}
