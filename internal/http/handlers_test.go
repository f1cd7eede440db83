package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slavakukuyev/elevator-go/internal/factory"
	"github.com/slavakukuyev/elevator-go/internal/infra/config"
	"github.com/slavakukuyev/elevator-go/internal/manager"
)

func testHandlerConfig() *config.Config {
	return &config.Config{
		FloorCount:             10,
		CabinCount:             2,
		Capacity:               4,
		FloorTravelTime:        1.0,
		DoorTime:               1.0,
		MaxIdleTime:            10.0,
		MaxWaitTime:            30.0,
		HomeFloor:              1,
		MaxRequestsPerFloor:    2,
		MaxTotalInflight:       20,
		MaxPerCabinAssignments: 8,
		Strategy:               "load-aware",
		TickInterval:           10 * time.Millisecond,
		TickDelta:              1.0,
		EngineOperationTimeout: 500 * time.Millisecond,
		HealthCheckTimeout:     200 * time.Millisecond,
	}
}

func setupTestHandlers(t *testing.T) *V1Handlers {
	t.Helper()
	cfg := testHandlerConfig()
	mgr, err := manager.New(cfg, factory.StandardEngineFactory{})
	require.NoError(t, err)
	return NewV1Handlers(mgr, cfg, slog.Default())
}

func newJSONRequest(method, path, body string) *http.Request {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	return r
}

func parseAPIResponse(t *testing.T, body []byte) APIResponse {
	t.Helper()
	var response APIResponse
	require.NoError(t, json.Unmarshal(body, &response))
	return response
}

func TestV1Handlers_APIInfoHandler(t *testing.T) {
	h := setupTestHandlers(t)

	w := httptest.NewRecorder()
	r := newJSONRequest(http.MethodGet, "/v1", "")

	h.APIInfoHandler(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	response := parseAPIResponse(t, w.Body.Bytes())
	assert.True(t, response.Success)

	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "v1", data["version"])
	assert.Contains(t, data, "endpoints")
}

func TestV1Handlers_RequestHandler(t *testing.T) {
	h := setupTestHandlers(t)

	t.Run("admits a valid request", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := newJSONRequest(http.MethodPost, "/v1/requests", `{"from":1,"to":5,"count":2}`)

		h.RequestHandler(w, r)

		assert.Equal(t, http.StatusAccepted, w.Code)
		response := parseAPIResponse(t, w.Body.Bytes())
		assert.True(t, response.Success)

		data, ok := response.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "admitted", data["outcome"])
	})

	t.Run("rejects an invalid request", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := newJSONRequest(http.MethodPost, "/v1/requests", `{"from":1,"to":1,"count":1}`)

		h.RequestHandler(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		response := parseAPIResponse(t, w.Body.Bytes())
		assert.False(t, response.Success)
		assert.Equal(t, "VALIDATION_ERROR", response.Error.Code)
	})

	t.Run("handles invalid JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := newJSONRequest(http.MethodPost, "/v1/requests", `{"from": invalid}`)

		h.RequestHandler(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		response := parseAPIResponse(t, w.Body.Bytes())
		assert.Equal(t, "INVALID_JSON", response.Error.Code)
	})

	t.Run("rejects wrong HTTP method", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := newJSONRequest(http.MethodGet, "/v1/requests", "")

		h.RequestHandler(w, r)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("surfaces the per-floor cap as a conflict", func(t *testing.T) {
		h := setupTestHandlers(t)
		w1 := httptest.NewRecorder()
		h.RequestHandler(w1, newJSONRequest(http.MethodPost, "/v1/requests", `{"from":2,"to":6,"count":1}`))
		assert.Equal(t, http.StatusAccepted, w1.Code)

		w2 := httptest.NewRecorder()
		h.RequestHandler(w2, newJSONRequest(http.MethodPost, "/v1/requests", `{"from":2,"to":7,"count":1}`))
		assert.Equal(t, http.StatusAccepted, w2.Code)

		w3 := httptest.NewRecorder()
		h.RequestHandler(w3, newJSONRequest(http.MethodPost, "/v1/requests", `{"from":2,"to":8,"count":1}`))
		response := parseAPIResponse(t, w3.Body.Bytes())
		assert.False(t, response.Success)
		assert.Equal(t, "CONFLICT", response.Error.Code)
	})
}

func TestV1Handlers_RequestFileHandler(t *testing.T) {
	h := setupTestHandlers(t)

	body := "1 5 1\nbogus line\n3 7 2\n"
	w := httptest.NewRecorder()
	r := newJSONRequest(http.MethodPost, "/v1/requests/file", body)

	h.RequestFileHandler(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	response := parseAPIResponse(t, w.Body.Bytes())
	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), data["skipped"])

	submitted, ok := data["submitted"].([]interface{})
	require.True(t, ok)
	assert.Len(t, submitted, 2)
}

func TestV1Handlers_TickHandler(t *testing.T) {
	h := setupTestHandlers(t)

	h.RequestHandler(httptest.NewRecorder(), newJSONRequest(http.MethodPost, "/v1/requests", `{"from":1,"to":5,"count":1}`))

	w := httptest.NewRecorder()
	r := newJSONRequest(http.MethodPost, "/v1/tick", `{"delta":1.0}`)

	h.TickHandler(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	response := parseAPIResponse(t, w.Body.Bytes())
	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, data, "cabins")
	assert.Contains(t, data, "pending_count")

	t.Run("rejects non-positive delta", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := newJSONRequest(http.MethodPost, "/v1/tick", `{"delta":0}`)

		h.TickHandler(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestV1Handlers_ResetHandler(t *testing.T) {
	h := setupTestHandlers(t)
	h.RequestHandler(httptest.NewRecorder(), newJSONRequest(http.MethodPost, "/v1/requests", `{"from":1,"to":5,"count":1}`))

	w := httptest.NewRecorder()
	r := newJSONRequest(http.MethodPost, "/v1/reset", "")

	h.ResetHandler(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestV1Handlers_StrategyHandler(t *testing.T) {
	h := setupTestHandlers(t)

	t.Run("applies a known strategy", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := newJSONRequest(http.MethodPost, "/v1/strategy", `{"strategy":"nearest-first"}`)

		h.StrategyHandler(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects an unknown strategy", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := newJSONRequest(http.MethodPost, "/v1/strategy", `{"strategy":"bogus"}`)

		h.StrategyHandler(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		response := parseAPIResponse(t, w.Body.Bytes())
		assert.Equal(t, "VALIDATION_ERROR", response.Error.Code)
	})
}

func TestV1Handlers_StatusHandler(t *testing.T) {
	h := setupTestHandlers(t)

	w := httptest.NewRecorder()
	r := newJSONRequest(http.MethodGet, "/v1/status", "")

	h.StatusHandler(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	response := parseAPIResponse(t, w.Body.Bytes())
	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, data, "cabins")
}

func TestV1Handlers_StatsHandler(t *testing.T) {
	h := setupTestHandlers(t)

	w := httptest.NewRecorder()
	r := newJSONRequest(http.MethodGet, "/v1/stats", "")

	h.StatsHandler(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	response := parseAPIResponse(t, w.Body.Bytes())
	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, data, "conservation")
	assert.Contains(t, data, "success_rate")
}

func TestV1Handlers_HealthHandler(t *testing.T) {
	h := setupTestHandlers(t)

	w := httptest.NewRecorder()
	r := newJSONRequest(http.MethodGet, "/v1/health", "")

	h.HealthHandler(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	response := parseAPIResponse(t, w.Body.Bytes())
	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "healthy", data["status"])
}

func TestResponseFormat(t *testing.T) {
	h := setupTestHandlers(t)

	w := httptest.NewRecorder()
	r := newJSONRequest(http.MethodGet, "/v1", "")

	h.APIInfoHandler(w, r)

	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	response := parseAPIResponse(t, w.Body.Bytes())
	assert.NotNil(t, response.Meta)
	assert.Equal(t, "v1", response.Meta.Version)
	assert.False(t, response.Timestamp.IsZero())
}
