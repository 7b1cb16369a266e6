package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetsync/internal/cache"
	"fleetsync/internal/domain"
	"fleetsync/internal/stats"
)

func newTestServer(t *testing.T, c *cache.StateCache) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	NewAPI(c, stats.New(c), nil).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp
}

func TestTrucksEndpoint(t *testing.T) {
	c := cache.New()
	c.UpdateTelemetry(domain.TelemetryRecord{TruckID: "TRUCK-001", Speed: 50, Timestamp: 1})
	srv := newTestServer(t, c)

	var got map[string]domain.TelemetryRecord
	getJSON(t, srv.URL+"/api/fleet/trucks", &got)

	require.Len(t, got, 1)
	assert.Equal(t, 50.0, got["TRUCK-001"].Speed)
}

func TestAlertsEndpoint(t *testing.T) {
	c := cache.New()
	c.RecordAlert("TRUCK-001: SPEEDING")
	c.RecordAlert("TRUCK-002: LOW_FUEL")
	srv := newTestServer(t, c)

	var got []string
	getJSON(t, srv.URL+"/api/fleet/alerts", &got)

	assert.Equal(t, []string{"TRUCK-002: LOW_FUEL", "TRUCK-001: SPEEDING"}, got)
}

func TestStatsEndpoint(t *testing.T) {
	c := cache.New()
	c.UpdateTelemetry(domain.TelemetryRecord{TruckID: "A", Speed: 60, EngineTemp: 90, FuelLevel: 40})
	c.UpdateTelemetry(domain.TelemetryRecord{TruckID: "B", Speed: 80, EngineTemp: 100, FuelLevel: 60})
	srv := newTestServer(t, c)

	var got stats.FleetStats
	getJSON(t, srv.URL+"/api/fleet/stats", &got)

	assert.Equal(t, 2, got.ActiveTrucks)
	assert.Equal(t, 70.0, got.AverageSpeed)
}

func TestHistoryUnavailableWithoutStore(t *testing.T) {
	srv := newTestServer(t, cache.New())

	// Every history route is registered and answers 503, not 404, when
	// the process runs without a database.
	for _, path := range []string{
		"/api/history/telemetry",
		"/api/history/truck/TRUCK-001",
		"/api/history/stats",
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, "path %s", path)
	}
}
