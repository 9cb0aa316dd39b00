package health_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theblitlabs/starknet-env/internal/connection"
	"github.com/theblitlabs/starknet-env/internal/environment"
	"github.com/theblitlabs/starknet-env/internal/models"
	"github.com/theblitlabs/starknet-env/internal/monitoring/health"
)

func TestHealthChecker(t *testing.T) {
	connected := false
	hc := health.NewHealthChecker(time.Minute)
	hc.Register("bridge", health.BridgeCheck(func() bool { return connected }))
	hc.Register("broken", func(context.Context) (health.Status, string) {
		return health.StatusError, "down"
	})

	hc.CheckAll(context.Background())
	components := hc.GetAllHealth()
	require.Len(t, components, 2)
	assert.Equal(t, "bridge", components[0].Name)
	assert.Equal(t, health.StatusWarning, components[0].Status)

	rr := httptest.NewRecorder()
	hc.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	var report health.Report
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&report))
	assert.Equal(t, "degraded", report.Status)
	require.Len(t, report.Components, 2)
	assert.Equal(t, "bridge", report.Components[0].Name)

	connected = true
	hc.CheckAll(context.Background())
	components = hc.GetAllHealth()
	assert.Equal(t, health.StatusOK, components[0].Status)
	assert.Equal(t, health.StatusError, components[1].Status)
}

func TestDevnetCheck(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/is_alive", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Alive!!!"))
	})
	mux.HandleFunc("/predeployed_accounts", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	selector := environment.NewSelector(connection.NewState(), []models.Devnet{{Name: "local", URL: server.URL}}, models.EnvModeDevnet, time.Second)
	defer selector.Close()
	check := health.DevnetCheck(selector)

	status, _ := check(context.Background())
	assert.Equal(t, health.StatusWarning, status)

	require.NoError(t, selector.SelectDevnet(context.Background(), "local"))
	status, message := check(context.Background())
	assert.Equal(t, health.StatusOK, status)
	assert.Equal(t, "local is alive", message)
}
