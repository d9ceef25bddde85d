package monitoring

import (
	"fmt"
	"sync"
	"time"

	"trend-finder/shared/logger"
)

// Monitor tracks the health of the most recent run.
type Monitor struct {
	mu             sync.RWMutex
	lastRunSuccess bool
	lastRunTime    time.Time
	lastSummary    string
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.lastSummary = summary
	m.mu.Unlock()

	logger.Log.WithField("duration", duration).Infof("Run completed successfully - %s", summary)
}

func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	// Partial failures leave health untouched.
	logger.Log.WithField("duration", duration).Warnf("PARTIAL FAILURE: %v", err)
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.lastSummary = err.Error()
	m.mu.Unlock()

	logger.Log.WithField("duration", duration).Errorf("CRITICAL FAILURE: %v", err)
}

func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return true // No runs yet
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}

	if m.lastRunSuccess {
		return fmt.Sprintf("Last run: %s (%s)", m.lastRunTime.Format("Jan 2 15:04"), m.lastSummary)
	}
	return fmt.Sprintf("Last run failed: %s (%s)", m.lastRunTime.Format("Jan 2 15:04"), m.lastSummary)
}
