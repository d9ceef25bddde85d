// Package orchestrator sequences one niche submission: trend analysis, then a
// video lookup for the top suggested query, folded into a single State.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"trend-finder/internal/models"
	"trend-finder/shared/logger"
	"trend-finder/shared/monitoring"
)

// ErrEmptyNiche is returned by Submit for a blank niche. No run is started.
var ErrEmptyNiche = errors.New("niche must not be empty")

// TrendAnalyzer produces a trend analysis for a niche.
type TrendAnalyzer interface {
	FetchTrendAnalysis(ctx context.Context, niche string) (*models.TrendAnalysis, error)
}

// VideoFinder looks up recent videos for one search query.
type VideoFinder interface {
	FetchVideosForQuery(ctx context.Context, query string) ([]models.Video, error)
}

// Controller owns the state of the latest submission. A newer submission
// supersedes older ones: results of superseded runs are never published.
type Controller struct {
	analyzer TrendAnalyzer
	finder   VideoFinder
	now      func() time.Time

	mu          sync.Mutex
	state       State
	active      uint64
	subscribers map[int]func(State)
	nextSubID   int
}

func NewController(analyzer TrendAnalyzer, finder VideoFinder) *Controller {
	return &Controller{
		analyzer:    analyzer,
		finder:      finder,
		now:         time.Now,
		state:       State{Phase: PhaseIdle, Videos: []models.Video{}},
		subscribers: make(map[int]func(State)),
	}
}

// Snapshot returns a copy of the published state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Subscribe registers fn to be called with every published state. The
// returned function removes the subscription. fn runs on the submitting
// goroutine, outside the controller's lock.
func (c *Controller) Subscribe(fn func(State)) (cancel func()) {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// Submit runs one submission for niche and returns that run's final state.
// The run's results are published only while it is the latest submission.
// Upstream failures are folded into the state; the only error returned is
// ErrEmptyNiche.
func (c *Controller) Submit(ctx context.Context, niche string) (State, error) {
	_, done, err := c.Start(ctx, niche)
	if err != nil {
		return State{}, err
	}
	return <-done, nil
}

// Start begins a submission and returns without waiting for it. started is
// the Running state carrying the run's token; done yields the final state.
func (c *Controller) Start(ctx context.Context, niche string) (started State, done <-chan State, err error) {
	niche = strings.TrimSpace(niche)
	if niche == "" {
		return State{}, nil, ErrEmptyNiche
	}

	r := c.begin(niche)
	r.log.Info("Submission started")
	started = r.state.Clone()

	ch := make(chan State, 1)
	go func() {
		ch <- c.finish(ctx, r)
	}()
	return started, ch, nil
}

func (c *Controller) finish(ctx context.Context, r *run) (final State) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Errorf("Submission panicked: %v", p)
			r.dispatch(Event{Type: EventFailed, Failure: &models.ErrorInfo{
				Kind:    models.KindUnknown,
				Message: fmt.Sprintf("An unexpected error occurred: %v", p),
			}})
		}
		r.dispatch(Event{Type: EventFinished, At: c.now()})
		monitoring.RecordSubmission(string(r.state.Phase))
		r.log.WithField("phase", r.state.Phase).Infof("Submission finished with %d videos", len(r.state.Videos))
		final = r.state
	}()

	c.execute(ctx, r)
	return r.state
}

func (c *Controller) execute(ctx context.Context, r *run) {
	analysis, err := c.analyzer.FetchTrendAnalysis(ctx, r.niche)
	if err != nil {
		r.log.WithError(err).Warn("Trend analysis failed, skipping video lookup")
		r.dispatch(Event{Type: EventAnalysisFailed, Failure: models.InfoFromError(err)})
		return
	}
	if analysis == nil {
		r.dispatch(Event{Type: EventFailed, Failure: &models.ErrorInfo{
			Kind:    models.KindUnknown,
			Message: "AI returned no analysis.",
		}})
		return
	}
	r.dispatch(Event{Type: EventAnalysisSucceeded, Analysis: analysis})

	query := analysis.TopQuery()
	if query == "" {
		r.log.Warn(NoQueriesMessage)
		r.dispatch(Event{Type: EventNoQueries})
		return
	}

	r.log = r.log.WithField("query", query)
	videos, err := c.finder.FetchVideosForQuery(ctx, query)
	if err != nil {
		r.log.WithError(err).Warn("Video lookup failed, keeping analysis")
		r.dispatch(Event{Type: EventVideosFailed, Failure: models.InfoFromError(err)})
		return
	}
	r.dispatch(Event{Type: EventVideosSucceeded, Videos: videos})
}

// run is the private bookkeeping of one submission.
type run struct {
	c     *Controller
	token uint64
	niche string
	state State
	log   *logrus.Entry
}

func (c *Controller) begin(niche string) *run {
	runID := uuid.NewString()

	c.mu.Lock()
	c.active++
	token := c.active
	c.mu.Unlock()

	r := &run{
		c:     c,
		token: token,
		niche: niche,
		log: logger.Log.WithFields(logrus.Fields{
			"niche":  niche,
			"token":  token,
			"run_id": runID,
		}),
	}
	r.dispatch(Event{Type: EventSubmitted, Token: token, RunID: runID, Niche: niche, At: c.now()})
	return r
}

// dispatch folds e into the run's own state and publishes it when the run is
// still the active submission. Stale results are dropped silently.
func (r *run) dispatch(e Event) {
	r.state = Apply(r.state, e)

	c := r.c
	c.mu.Lock()
	if r.token != c.active {
		c.mu.Unlock()
		r.log.WithField("event", e.Type.String()).Debug("Discarding result of superseded submission")
		return
	}
	c.state = r.state.Clone()
	published := c.state.Clone()
	subs := make([]func(State), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(published)
	}
}
