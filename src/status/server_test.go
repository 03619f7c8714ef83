package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stake-plus/mission-agent/src/agent"
	"github.com/stake-plus/mission-agent/src/logging"
)

type fixedReporter agent.Snapshot

func (f fixedReporter) Snapshot() agent.Snapshot { return agent.Snapshot(f) }

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(NewRouter(fixedReporter{}, logging.Discard()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatusReportsSnapshot(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	reporter := fixedReporter{
		Running:     true,
		Cycles:      3,
		Errors:      1,
		Outcomes:    map[agent.Outcome]int64{agent.OutcomeCompleted: 2, agent.OutcomeError: 1},
		LastCycleID: "cycle-3",
		LastOutcome: agent.OutcomeCompleted,
		LastCycleAt: at,
	}
	srv := httptest.NewServer(NewRouter(reporter, logging.Discard()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got agent.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.True(t, got.Running)
	assert.Equal(t, int64(3), got.Cycles)
	assert.Equal(t, int64(2), got.Outcomes[agent.OutcomeCompleted])
	assert.Equal(t, "cycle-3", got.LastCycleID)
	assert.True(t, at.Equal(got.LastCycleAt))
}

func TestStatusWhenStopped(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	NewRouter(fixedReporter{}, nil).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"running":false`)
}

func TestCORSPreflight(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/status", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	req.Header.Set("Access-Control-Request-Method", "GET")
	NewRouter(fixedReporter{}, nil).ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
