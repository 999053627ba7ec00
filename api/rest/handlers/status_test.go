package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"training-orchestrator/api/rest/routes"
	"training-orchestrator/core/models"
	"training-orchestrator/core/monitoring"
)

func newTestServer(t *testing.T) (*monitoring.Tracker, *httptest.Server) {
	t.Helper()
	tracker := monitoring.NewTracker("run-1", "retina")
	r := mux.NewRouter()
	routes.SetupRoutes(r, tracker)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return tracker, srv
}

func TestGetRun(t *testing.T) {
	tracker, srv := newTestServer(t)
	tracker.Emit(models.InitializingEvent("Initializing training environment..."))
	tracker.Emit(models.TrainingStartEvent(10, 100, "Starting model training..."))
	tracker.Emit(models.EpochStartEvent(4, 10))

	resp, err := http.Get(srv.URL + "/v1/run")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var snap monitoring.RunSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, "run-1", snap.RunID)
	assert.Equal(t, models.RunStatusRunning, snap.Status)
	assert.Equal(t, 4, snap.CurrentEpoch)
	assert.Equal(t, 10, snap.TotalEpochs)
}

func TestGetEvents(t *testing.T) {
	tracker, srv := newTestServer(t)
	for epoch := 1; epoch <= 4; epoch++ {
		tracker.Emit(models.EpochStartEvent(epoch, 4))
	}

	resp, err := http.Get(srv.URL + "/v1/run/events?limit=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var events []models.ProgressEvent
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	require.Len(t, events, 2)
	assert.Equal(t, 3, *events[0].Epoch)
	assert.Equal(t, 4, *events[1].Epoch)
}

func TestGetEventsRejectsBadLimit(t *testing.T) {
	_, srv := newTestServer(t)

	for _, limit := range []string{"abc", "0", "-3"} {
		resp, err := http.Get(srv.URL + "/v1/run/events?limit=" + limit)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "limit=%s", limit)
	}
}

func TestGetHistory(t *testing.T) {
	tracker, srv := newTestServer(t)
	tracker.Emit(models.EpochEndEvent(1, 2, 10.0, models.EpochMetrics{ValAcc: 0.5, ValLoss: 0.9}))

	resp, err := http.Get(srv.URL + "/v1/run/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var history []models.EpochRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].Epoch)
	assert.InDelta(t, 0.5, history[0].Metrics.ValAcc, 1e-9)
}

func TestGetMetricsExposition(t *testing.T) {
	tracker, srv := newTestServer(t)
	tracker.Emit(models.InitializingEvent("Initializing training environment..."))
	tracker.Emit(models.EpochEndEvent(1, 4, 10.0, models.EpochMetrics{ValAcc: 0.5, ValLoss: 0.9}))

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, "training_run_active")
	assert.Contains(t, text, `run_id="run-1"`)
	assert.Contains(t, text, "training_run_val_accuracy")
	assert.Contains(t, text, "training_run_epochs_completed")
}

func TestHealth(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnknownMethodRejected(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/run", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
