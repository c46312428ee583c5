package observability_test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aylabs/musicore-playback/internal/observability"
)

func startDiagnostics(t *testing.T, checks ...observability.ReadyCheck) *observability.DiagnosticsServer {
	t.Helper()

	ds, err := observability.NewDiagnosticsServer("127.0.0.1:0", checks...)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, ds.Close()) })

	return ds
}

func getBody(t *testing.T, url string) (int, string) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, http.NoBody)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer func() { require.NoError(t, resp.Body.Close()) }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

func TestDiagnosticsServer_ServesHealthAndMetrics(t *testing.T) {
	t.Parallel()

	ds := startDiagnostics(t)

	status, body := getBody(t, "http://"+ds.Addr()+"/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "ok")

	status, _ = getBody(t, "http://"+ds.Addr()+"/readyz")
	assert.Equal(t, http.StatusOK, status)

	status, body = getBody(t, "http://"+ds.Addr()+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "musicore_runtime_goroutines", "runtime metrics should be scrapeable")
}

func TestDiagnosticsServer_MeterFeedsScrapeEndpoint(t *testing.T) {
	t.Parallel()

	ds := startDiagnostics(t)

	fm, err := observability.NewFrameMetrics(ds.Meter())
	require.NoError(t, err)

	fm.ObserveFrame(processedFrame(480, 2, []string{"n1"}))

	status, body := getBody(t, "http://"+ds.Addr()+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "musicore_playback_frames")
}

func TestDiagnosticsServer_ReadyCheckFailure(t *testing.T) {
	t.Parallel()

	failing := func(_ context.Context) error { return context.DeadlineExceeded }
	ds := startDiagnostics(t, failing)

	status, body := getBody(t, "http://"+ds.Addr()+"/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Contains(t, body, "unavailable")
}
