package trendfinder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trend-finder/agents/trend-finder/orchestrator"
	"trend-finder/internal/models"
	"trend-finder/shared/config"
	"trend-finder/shared/email"
	"trend-finder/shared/logger"
	"trend-finder/shared/scheduler"
	"trend-finder/shared/storage"
)

// DigestMetrics contains metrics from one digest run
type DigestMetrics struct {
	Niches       int
	FailedNiches int
	VideosFound  int
	NewVideos    int
	EmailSent    bool
}

// GetSummary implements the scheduler.Metrics interface
func (m DigestMetrics) GetSummary() string {
	summary := fmt.Sprintf("checked %d niches (%d failed), found %d videos, %d new",
		m.Niches, m.FailedNiches, m.VideosFound, m.NewVideos)
	if m.EmailSent {
		summary += ", digest sent"
	}
	return summary
}

type submitter interface {
	Submit(ctx context.Context, niche string) (orchestrator.State, error)
}

type reportLedger interface {
	Unreported(videos []models.Video) []models.Video
	MarkReported(niche string, videos []models.Video) error
	Count() int
}

type digestMailer interface {
	SendDigest(report *models.DigestReport) error
}

// DigestAgent implements the scheduler.Agent interface. Each run submits
// every configured niche and mails the videos not reported before.
type DigestAgent struct {
	config     *config.Config
	controller submitter
	ledger     reportLedger
	mailer     digestMailer
	now        func() time.Time
}

var _ scheduler.Agent = (*DigestAgent)(nil)

// NewDigestAgent creates the agent with its own controller, so digest runs
// never supersede interactive submissions.
func NewDigestAgent(cfg *config.Config, analyzer orchestrator.TrendAnalyzer, finder orchestrator.VideoFinder) *DigestAgent {
	return &DigestAgent{
		config:     cfg,
		controller: orchestrator.NewController(analyzer, finder),
		now:        time.Now,
	}
}

func (d *DigestAgent) Name() string {
	return "Niche Trend Digest"
}

func (d *DigestAgent) Initialize() error {
	logger.Log.Infof("Initializing %s...", d.Name())

	if err := d.config.ValidateDigest(); err != nil {
		return fmt.Errorf("invalid digest configuration: %w", err)
	}

	if d.mailer == nil {
		d.mailer = email.NewSender(&d.config.Email)
		logger.Log.Info("Email sender initialized")
	}

	if d.ledger == nil {
		ledger, err := storage.NewReportLedger(d.config.Digest.DataDir, d.config.Digest.SeenRetention)
		if err != nil {
			return fmt.Errorf("failed to create report ledger: %w", err)
		}
		d.ledger = ledger
		logger.Log.Infof("Report ledger initialized (%d videos tracked)", ledger.Count())
	}

	return nil
}

func (d *DigestAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := d.now()
	niches := d.config.Digest.Niches

	report := &models.DigestReport{Date: startTime}
	metrics := DigestMetrics{Niches: len(niches)}
	var failures []error

	for i, niche := range niches {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Log.Infof("Checking niche %d/%d: %s", i+1, len(niches), niche)

		digest, err := d.checkNiche(ctx, niche)
		if err != nil {
			failures = append(failures, err)
		}
		metrics.VideosFound += digest.found
		metrics.NewVideos += len(digest.Videos)
		report.Niches = append(report.Niches, digest.NicheDigest)
	}
	report.NewVideos = metrics.NewVideos
	metrics.FailedNiches = len(failures)

	if len(niches) > 0 && len(failures) == len(niches) {
		events.OnCriticalFailure(fmt.Errorf("all %d niches failed: %w", len(niches), errors.Join(failures...)), time.Since(startTime))
		return nil
	}

	if metrics.NewVideos > 0 {
		logger.Log.Infof("Sending digest with %d new videos", metrics.NewVideos)
		if err := d.mailer.SendDigest(report); err != nil {
			return fmt.Errorf("failed to send digest: %w", err)
		}
		metrics.EmailSent = true

		for _, n := range report.Niches {
			if err := d.ledger.MarkReported(n.Niche, n.Videos); err != nil {
				logger.Log.WithError(err).Warnf("Failed to mark videos of %q as reported", n.Niche)
			}
		}
	} else {
		logger.Log.Info("No new videos found, skipping email")
	}

	duration := time.Since(startTime)
	if len(failures) > 0 {
		events.OnPartialFailure(fmt.Errorf("%d of %d niches failed: %w", len(failures), len(niches), errors.Join(failures...)), duration)
	}
	events.OnSuccess(metrics, duration)
	return nil
}

type nicheResult struct {
	*models.NicheDigest
	found int
}

// checkNiche runs one niche through the controller. The returned error is
// the niche's failure, if any; the digest is always usable.
func (d *DigestAgent) checkNiche(ctx context.Context, niche string) (nicheResult, error) {
	digest := &models.NicheDigest{Niche: niche, Videos: []models.Video{}}

	state, err := d.controller.Submit(ctx, niche)
	if err != nil {
		digest.Failure = models.InfoFromError(err)
		return nicheResult{NicheDigest: digest}, fmt.Errorf("%s: %w", niche, err)
	}

	digest.Query = state.Query
	digest.Analysis = state.Analysis
	digest.Failure = state.Failure
	digest.Videos = d.ledger.Unreported(state.Videos)

	log := logger.Log.WithField("niche", niche)
	if state.Failure != nil {
		log.Warnf("Niche finished with %s: %s", state.Failure.Kind, state.Failure.Message)
		return nicheResult{NicheDigest: digest, found: len(state.Videos)},
			fmt.Errorf("%s: %s", niche, state.Failure.Message)
	}

	log.Infof("Found %d videos (%d new)", len(state.Videos), len(digest.Videos))
	return nicheResult{NicheDigest: digest, found: len(state.Videos)}, nil
}
