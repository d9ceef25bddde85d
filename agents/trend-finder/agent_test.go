package trendfinder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trend-finder/agents/trend-finder/orchestrator"
	"trend-finder/internal/models"
	"trend-finder/shared/config"
	"trend-finder/shared/monitoring"
	"trend-finder/shared/scheduler"
)

type fakeAnalyzer struct {
	fail map[string]error
}

func (f *fakeAnalyzer) FetchTrendAnalysis(ctx context.Context, niche string) (*models.TrendAnalysis, error) {
	if err := f.fail[niche]; err != nil {
		return nil, err
	}
	return &models.TrendAnalysis{AnalysisText: "Trends for " + niche, SuggestedQueries: []string{niche + " query"}}, nil
}

type fakeFinder struct {
	videos map[string][]models.Video
}

func (f *fakeFinder) FetchVideosForQuery(ctx context.Context, query string) ([]models.Video, error) {
	return f.videos[query], nil
}

type memoryLedger struct {
	reported map[string]string
}

func (l *memoryLedger) Unreported(videos []models.Video) []models.Video {
	out := []models.Video{}
	for _, v := range videos {
		if _, ok := l.reported[v.ID]; !ok {
			out = append(out, v)
		}
	}
	return out
}

func (l *memoryLedger) MarkReported(niche string, videos []models.Video) error {
	for _, v := range videos {
		l.reported[v.ID] = niche
	}
	return nil
}

func (l *memoryLedger) Count() int { return len(l.reported) }

type fakeMailer struct {
	reports []*models.DigestReport
	err     error
}

func (m *fakeMailer) SendDigest(report *models.DigestReport) error {
	m.reports = append(m.reports, report)
	return m.err
}

type recordedEvents struct {
	successes []scheduler.Metrics
	partial   []error
	critical  []error
}

func (r *recordedEvents) events() *scheduler.AgentEvents {
	return &scheduler.AgentEvents{
		OnSuccess:         func(m scheduler.Metrics, d time.Duration) { r.successes = append(r.successes, m) },
		OnPartialFailure:  func(err error, d time.Duration) { r.partial = append(r.partial, err) },
		OnCriticalFailure: func(err error, d time.Duration) { r.critical = append(r.critical, err) },
	}
}

func newTestAgent(niches []string, analyzer *fakeAnalyzer, finder *fakeFinder) (*DigestAgent, *memoryLedger, *fakeMailer) {
	cfg := &config.Config{Digest: config.DigestConfig{Niches: niches}}
	agent := NewDigestAgent(cfg, analyzer, finder)
	ledger := &memoryLedger{reported: map[string]string{}}
	mailer := &fakeMailer{}
	agent.ledger = ledger
	agent.mailer = mailer
	agent.now = func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) }
	return agent, ledger, mailer
}

func TestDigestAgentName(t *testing.T) {
	assert.Equal(t, "Niche Trend Digest", NewDigestAgent(&config.Config{}, nil, nil).Name())
}

func TestDigestMetricsGetSummary(t *testing.T) {
	tests := []struct {
		name     string
		metrics  DigestMetrics
		expected string
	}{
		{
			name:     "All zeros",
			metrics:  DigestMetrics{},
			expected: "checked 0 niches (0 failed), found 0 videos, 0 new",
		},
		{
			name:     "Digest sent",
			metrics:  DigestMetrics{Niches: 3, FailedNiches: 1, VideosFound: 8, NewVideos: 5, EmailSent: true},
			expected: "checked 3 niches (1 failed), found 8 videos, 5 new, digest sent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.metrics.GetSummary())
		})
	}
}

func TestDigestRunSendsOnlyNewVideos(t *testing.T) {
	finder := &fakeFinder{videos: map[string][]models.Video{
		"bonsai query": {{ID: "b1"}, {ID: "b2"}},
		"chess query":  {{ID: "c1"}},
	}}
	agent, ledger, mailer := newTestAgent([]string{"bonsai", "chess"}, &fakeAnalyzer{}, finder)
	ledger.reported["b1"] = "bonsai"

	rec := &recordedEvents{}
	require.NoError(t, agent.RunOnce(context.Background(), rec.events()))

	require.Len(t, mailer.reports, 1)
	report := mailer.reports[0]
	assert.Equal(t, 2, report.NewVideos)
	require.Len(t, report.Niches, 2)
	assert.Equal(t, "bonsai query", report.Niches[0].Query)
	assert.Equal(t, []models.Video{{ID: "b2"}}, report.Niches[0].Videos)
	assert.Equal(t, "Trends for chess", report.Niches[1].Analysis.AnalysisText)

	assert.Equal(t, map[string]string{"b1": "bonsai", "b2": "bonsai", "c1": "chess"}, ledger.reported)

	require.Len(t, rec.successes, 1)
	assert.Equal(t, "checked 2 niches (0 failed), found 3 videos, 2 new, digest sent", rec.successes[0].GetSummary())
	assert.Empty(t, rec.partial)
	assert.Empty(t, rec.critical)
}

func TestDigestRunNothingNew(t *testing.T) {
	finder := &fakeFinder{videos: map[string][]models.Video{"bonsai query": {{ID: "b1"}}}}
	agent, ledger, mailer := newTestAgent([]string{"bonsai"}, &fakeAnalyzer{}, finder)
	ledger.reported["b1"] = "bonsai"

	rec := &recordedEvents{}
	require.NoError(t, agent.RunOnce(context.Background(), rec.events()))

	assert.Empty(t, mailer.reports)
	require.Len(t, rec.successes, 1)
	assert.False(t, rec.successes[0].(DigestMetrics).EmailSent)
}

func TestDigestRunPartialFailure(t *testing.T) {
	analyzer := &fakeAnalyzer{fail: map[string]error{
		"chess": models.NewError(models.KindServiceUnavailable, nil, "quota exceeded"),
	}}
	finder := &fakeFinder{videos: map[string][]models.Video{"bonsai query": {{ID: "b1"}}}}
	agent, _, mailer := newTestAgent([]string{"bonsai", "chess"}, analyzer, finder)

	rec := &recordedEvents{}
	require.NoError(t, agent.RunOnce(context.Background(), rec.events()))

	require.Len(t, mailer.reports, 1)
	chess := mailer.reports[0].Niches[1]
	require.NotNil(t, chess.Failure)
	assert.Equal(t, "quota exceeded", chess.Failure.Message)

	require.Len(t, rec.partial, 1)
	assert.Contains(t, rec.partial[0].Error(), "1 of 2 niches failed")
	assert.Contains(t, rec.partial[0].Error(), "chess: quota exceeded")
	require.Len(t, rec.successes, 1)
	assert.Empty(t, rec.critical)
}

func TestDigestRunAllNichesFail(t *testing.T) {
	boom := models.NewError(models.KindConfiguration, nil, "AI Service Disabled")
	analyzer := &fakeAnalyzer{fail: map[string]error{"bonsai": boom, "chess": boom}}
	agent, _, mailer := newTestAgent([]string{"bonsai", "chess"}, analyzer, &fakeFinder{})

	rec := &recordedEvents{}
	require.NoError(t, agent.RunOnce(context.Background(), rec.events()))

	assert.Empty(t, mailer.reports)
	require.Len(t, rec.critical, 1)
	assert.Contains(t, rec.critical[0].Error(), "all 2 niches failed")
	assert.Empty(t, rec.successes)
}

func TestDigestRunMailError(t *testing.T) {
	finder := &fakeFinder{videos: map[string][]models.Video{"bonsai query": {{ID: "b1"}}}}
	agent, ledger, mailer := newTestAgent([]string{"bonsai"}, &fakeAnalyzer{}, finder)
	mailer.err = errors.New("smtp down")

	err := agent.RunOnce(context.Background(), (&recordedEvents{}).events())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send digest")
	assert.Empty(t, ledger.reported, "unsent videos stay unreported")
}

func TestDigestRunCancelled(t *testing.T) {
	agent, _, mailer := newTestAgent([]string{"bonsai"}, &fakeAnalyzer{}, &fakeFinder{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := agent.RunOnce(ctx, (&recordedEvents{}).events())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, mailer.reports)
}

func TestDigestInitialize(t *testing.T) {
	t.Run("Requires niches", func(t *testing.T) {
		agent := NewDigestAgent(&config.Config{}, &fakeAnalyzer{}, &fakeFinder{})
		assert.ErrorContains(t, agent.Initialize(), "invalid digest configuration")
	})

	t.Run("Builds ledger and sender", func(t *testing.T) {
		cfg := &config.Config{
			Digest: config.DigestConfig{Niches: []string{"bonsai"}, DataDir: t.TempDir(), SeenRetention: time.Hour},
			Email:  config.EmailConfig{SMTPServer: "smtp.example.com", SMTPPort: 587, Username: "u", Password: "p", ToEmail: "to@example.com"},
		}
		agent := NewDigestAgent(cfg, &fakeAnalyzer{}, &fakeFinder{})
		require.NoError(t, agent.Initialize())
		assert.NotNil(t, agent.ledger)
		assert.NotNil(t, agent.mailer)
	})
}

func TestRecordOutcomes(t *testing.T) {
	m := monitoring.NewMonitor()
	record := RecordOutcomes(m)
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	record(orchestrator.State{Phase: orchestrator.PhaseRunning, IsRunning: true})
	assert.Equal(t, "No runs yet", m.GetStatusSummary())

	record(orchestrator.State{Phase: orchestrator.PhaseSuccess, Niche: "bonsai", Videos: []models.Video{{ID: "a"}}, StartedAt: start, FinishedAt: start.Add(time.Second)})
	assert.True(t, m.IsHealthy())
	assert.Contains(t, m.GetStatusSummary(), `niche "bonsai": 1 videos`)

	record(orchestrator.State{Phase: orchestrator.PhasePartialFailure, Niche: "bonsai", Failure: &models.ErrorInfo{Message: "quota"}})
	assert.True(t, m.IsHealthy())

	record(orchestrator.State{Phase: orchestrator.PhaseFailure, Niche: "bonsai", Failure: &models.ErrorInfo{Message: "AI Service Disabled"}})
	assert.False(t, m.IsHealthy())
	assert.Contains(t, m.GetStatusSummary(), "AI Service Disabled")
}
