package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"biosync/internal/domain"
)

func TestHealthTracker(t *testing.T) {
	tracker := NewHealthTracker("content/data")

	report := tracker.Report()
	assert.Equal(t, "ok", report.Status)
	assert.Equal(t, "content/data", report.WatchedDir)

	tracker.RecordRun("run-1", 2, 3, 0)
	report = tracker.Report()
	assert.Equal(t, "ok", report.Status)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 3, report.Unchanged)

	tracker.RecordRun("run-2", 0, 0, 1)
	assert.Equal(t, "degraded", tracker.Report().Status)
}

func TestHealthHandler(t *testing.T) {
	tracker := NewHealthTracker("data")
	tracker.RecordRun("run-1", 1, 0, 0)

	recorder := httptest.NewRecorder()
	healthHandler(tracker).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	var report HealthReport
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&report))
	assert.Equal(t, "run-1", report.LastRunID)
	assert.Equal(t, 1, report.Succeeded)
}

func TestMetrics_ObserveIsNilSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveOutcome(domain.OutcomeSuccess)
	metrics.ObserveRegistryRequest(http.MethodGet, 200)
	metrics.ObserveSyncRun(time.Second)
}

func TestStartHTTPServer_ServesMetrics(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	metrics.ObserveOutcome(domain.OutcomeSuccess)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- StartHTTPServer(ctx, HTTPServerOptions{
			Addr:          fmt.Sprintf("127.0.0.1:%d", port),
			EnableMetrics: true,
			Registry:      registry,
		}, zap.NewNop())
	}()

	// Wait for server to start
	time.Sleep(100 * time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/metrics", port))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "biosync_sync_outcomes_total")

	cancel()
	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop in time")
	}
}
