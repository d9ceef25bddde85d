package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	trendfinder "trend-finder/agents/trend-finder"
	"trend-finder/agents/trend-finder/orchestrator"
	"trend-finder/agents/trend-finder/web"
	"trend-finder/agents/trend-finder/youtube"
	"trend-finder/shared/ai"
	"trend-finder/shared/config"
	"trend-finder/shared/logger"
	"trend-finder/shared/monitoring"
	"trend-finder/shared/scheduler"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.File); err != nil {
		logger.Log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	analyzer, err := ai.NewAnalyzer(ctx, &cfg.AI)
	if err != nil {
		logger.Log.Fatalf("Failed to create AI analyzer: %v", err)
	}
	videos := youtube.NewClient(&cfg.YouTube)

	monitor := monitoring.NewMonitor()
	agent := trendfinder.NewDigestAgent(cfg, analyzer, videos)
	s := scheduler.New(cfg.Digest.Schedule, agent, monitor)

	if len(os.Args) > 1 && os.Args[1] == "--once" {
		logger.Log.Info("Running digest once...")
		if err := agent.Initialize(); err != nil {
			logger.Log.Fatalf("Failed to initialize agent: %v", err)
		}
		if err := s.RunOnce(ctx); err != nil {
			logger.Log.Fatalf("Failed to run: %v", err)
		}
		return
	}

	if err := run(ctx, cfg, analyzer, videos, monitor, s); err != nil {
		logger.Log.Fatalf("Server failed: %v", err)
	}
	logger.Log.Info("Shut down cleanly")
}

func run(ctx context.Context, cfg *config.Config, analyzer *ai.Analyzer, videos *youtube.Client, monitor *monitoring.Monitor, s *scheduler.Scheduler) error {
	controller := orchestrator.NewController(analyzer, videos)
	unsubscribe := controller.Subscribe(trendfinder.RecordOutcomes(monitor))
	defer unsubscribe()

	handler := web.NewHandler(ctx, controller, cfg.Server.SubmissionsPerMinute)
	srv := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           web.NewRouter(handler, monitoring.NewHandler(monitor)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Log.Infof("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Digest.Enabled {
		g.Go(func() error {
			if err := s.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("digest scheduler: %w", err)
			}
			return nil
		})
	} else {
		logger.Log.Info("Scheduled digest disabled")
	}

	return g.Wait()
}
