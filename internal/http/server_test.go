package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slavakukuyev/elevator-go/internal/factory"
	"github.com/slavakukuyev/elevator-go/internal/infra/config"
	"github.com/slavakukuyev/elevator-go/internal/manager"
)

func buildServerTestConfig() *config.Config {
	return &config.Config{
		LogLevel:               "ERROR",
		Port:                   8080,
		ReadTimeout:            5 * time.Second,
		WriteTimeout:           5 * time.Second,
		IdleTimeout:            5 * time.Second,
		ShutdownTimeout:        2 * time.Second,
		FloorCount:             10,
		CabinCount:             2,
		Capacity:               4,
		FloorTravelTime:        0.01,
		DoorTime:               0.01,
		MaxIdleTime:            10,
		MaxWaitTime:            30,
		HomeFloor:              1,
		MaxRequestsPerFloor:    10,
		MaxTotalInflight:       1000,
		MaxPerCabinAssignments: 50,
		Strategy:               "load-aware",
		TickInterval:           10 * time.Millisecond,
		TickDelta:              1.0,
		EngineOperationTimeout: 2 * time.Second,
		HealthCheckTimeout:     2 * time.Second,
		RateLimitRPM:           10000,
		WebSocketWriteTimeout:  2 * time.Second,
		WebSocketReadTimeout:   5 * time.Second,
		WebSocketPingInterval:  time.Second,
	}
}

func setupTestServer(t *testing.T) (*Server, *manager.Manager) {
	t.Helper()
	cfg := buildServerTestConfig()
	mgr, err := manager.New(cfg, factory.StandardEngineFactory{})
	require.NoError(t, err)
	server := NewServer(cfg, 8080, mgr)
	return server, mgr
}

func TestServer_NewServer(t *testing.T) {
	server, mgr := setupTestServer(t)

	assert.NotNil(t, server)
	assert.Equal(t, mgr, server.manager)
	assert.NotNil(t, server.httpServer)
	assert.NotNil(t, server.logger)
	assert.NotNil(t, server.healthService)
}

func TestServer_Routes(t *testing.T) {
	server, _ := setupTestServer(t)
	handler := server.GetHandler()

	t.Run("submits a request through /v1/requests", func(t *testing.T) {
		body, _ := json.Marshal(map[string]int{"from": 1, "to": 5, "count": 1})
		req := httptest.NewRequest(http.MethodPost, "/v1/requests", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusAccepted, rr.Code)
	})

	t.Run("reports status through /v1/status", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("reports liveness through /v1/health/live", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/health/live", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("reports readiness through /v1/health/ready", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/health/ready", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("exposes Prometheus metrics", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
	})
}

func TestServer_ConcurrentRequests(t *testing.T) {
	server, _ := setupTestServer(t)
	handler := server.GetHandler()

	const numRequests = 20
	done := make(chan bool, numRequests)

	for i := 0; i < numRequests; i++ {
		go func(requestID int) {
			from := requestID%8 + 1
			to := from + 2
			if to > 10 {
				to = 10
			}

			body, _ := json.Marshal(map[string]int{"from": from, "to": to, "count": 1})
			req := httptest.NewRequest(http.MethodPost, "/v1/requests", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			done <- rr.Code == http.StatusAccepted
		}(i)
	}

	successCount := 0
	for i := 0; i < numRequests; i++ {
		if <-done {
			successCount++
		}
	}

	assert.Greater(t, successCount, numRequests/2, "expected most concurrent requests to be admitted")
}

func TestServer_HealthChecks_ReportHealthyWithCabins(t *testing.T) {
	server, _ := setupTestServer(t)

	overallStatus, results := server.healthService.GetOverallStatus(httptest.NewRequest(http.MethodGet, "/v1/health/detailed", nil).Context())

	assert.Contains(t, results, "manager")
	assert.NotEmpty(t, overallStatus)
}
