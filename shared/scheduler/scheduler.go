package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"trend-finder/shared/logger"
	"trend-finder/shared/monitoring"
)

// Metrics defines the common interface for agent metrics
type Metrics interface {
	// GetSummary returns a human-readable summary of the run
	GetSummary() string
}

// AgentEvents provides callbacks for monitoring agent execution
type AgentEvents struct {
	OnSuccess         func(metrics Metrics, duration time.Duration)
	OnPartialFailure  func(err error, duration time.Duration)
	OnCriticalFailure func(err error, duration time.Duration)
}

// Agent defines the interface that all agents must implement
type Agent interface {
	Name() string
	RunOnce(ctx context.Context, events *AgentEvents) error
	Initialize() error
}

// Scheduler runs one agent on a cron schedule and reports every run to the
// monitor.
type Scheduler struct {
	schedule string
	monitor  *monitoring.Monitor
	agent    Agent
	cron     *cron.Cron
}

// New creates a scheduler. schedule uses the six-field cron format with
// seconds.
func New(schedule string, agent Agent, monitor *monitoring.Monitor) *Scheduler {
	cronLog := cron.PrintfLogger(logger.Log)

	return &Scheduler{
		schedule: schedule,
		monitor:  monitor,
		agent:    agent,
		// Prevent overlapping runs
		cron: cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cronLog))),
	}
}

// Start initializes the agent and blocks running it on schedule until ctx is
// cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.agent.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			logger.Log.Errorf("Error running scheduled job for %s: %v", s.agent.Name(), err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	logger.Log.Infof("Scheduler started for %s with schedule: %s", s.agent.Name(), s.schedule)
	s.cron.Start()

	<-ctx.Done()
	logger.Log.Infof("Scheduler stopped for %s", s.agent.Name())
	// Wait for a run in progress before returning.
	<-s.cron.Stop().Done()
	return ctx.Err()
}

// RunOnce runs the agent a single time, outside the cron schedule.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	startTime := time.Now()
	agentName := s.agent.Name()

	logger.Log.Infof("Starting %s run...", agentName)

	events := &AgentEvents{
		OnSuccess: func(metrics Metrics, duration time.Duration) {
			s.monitor.RecordSuccess(metrics.GetSummary(), duration)
		},
		OnPartialFailure: func(err error, duration time.Duration) {
			s.monitor.RecordPartialFailure(fmt.Errorf("%s partial failure: %w", agentName, err), duration)
		},
		OnCriticalFailure: func(err error, duration time.Duration) {
			s.monitor.RecordCriticalFailure(fmt.Errorf("%s critical failure: %w", agentName, err), duration)
		},
	}

	if err := s.agent.RunOnce(ctx, events); err != nil {
		duration := time.Since(startTime)
		s.monitor.RecordCriticalFailure(fmt.Errorf("%s failed: %w", agentName, err), duration)
		return fmt.Errorf("%s run failed: %w", agentName, err)
	}

	return nil
}
