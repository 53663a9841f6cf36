package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type HTTPServerOptions struct {
	Addr          string
	EnableMetrics bool
	Health        *HealthTracker
	Registry      prometheus.Gatherer
}

// StartHTTPServer serves /metrics and /healthz until the context is canceled,
// then shuts down gracefully. It blocks.
func StartHTTPServer(ctx context.Context, opts HTTPServerOptions, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	addr := opts.Addr
	if addr == "" {
		addr = "0.0.0.0:9090"
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	if opts.EnableMetrics {
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}
	mux.Handle("/healthz", healthHandler(opts.Health))

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("observability server listening",
			zap.String("addr", server.Addr),
			zap.Bool("metrics", opts.EnableMetrics),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("observability server failed to start: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("observability server shutdown error", zap.Error(err))
			return err
		}
		logger.Info("observability server stopped")
		return nil
	}
}

// HealthReport is the /healthz payload: the outcome counts of the most recent
// sync run.
type HealthReport struct {
	Status     string    `json:"status"`
	LastRunAt  time.Time `json:"lastRunAt,omitzero"`
	Succeeded  int       `json:"succeeded"`
	Unchanged  int       `json:"unchanged"`
	Failed     int       `json:"failed"`
	LastRunID  string    `json:"lastRunId,omitempty"`
	WatchedDir string    `json:"watchedDir,omitempty"`
}

// HealthTracker records the latest sync summary for the health endpoint.
type HealthTracker struct {
	mu     sync.RWMutex
	report HealthReport
}

func NewHealthTracker(watchedDir string) *HealthTracker {
	return &HealthTracker{report: HealthReport{Status: "ok", WatchedDir: watchedDir}}
}

func (t *HealthTracker) RecordRun(runID string, succeeded, unchanged, failed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.report.LastRunAt = time.Now().UTC()
	t.report.LastRunID = runID
	t.report.Succeeded = succeeded
	t.report.Unchanged = unchanged
	t.report.Failed = failed
	t.report.Status = "ok"
	if failed > 0 {
		t.report.Status = "degraded"
	}
}

func (t *HealthTracker) Report() HealthReport {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.report
}

func healthHandler(tracker *HealthTracker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report := HealthReport{Status: "ok"}
		if tracker != nil {
			report = tracker.Report()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(report)
	})
}
