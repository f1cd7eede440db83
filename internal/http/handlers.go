package http

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/slavakukuyev/elevator-go/internal/constants"
	"github.com/slavakukuyev/elevator-go/internal/infra/config"
	"github.com/slavakukuyev/elevator-go/internal/infra/logging"
	"github.com/slavakukuyev/elevator-go/internal/manager"
	"github.com/slavakukuyev/elevator-go/internal/sim"
)

// V1Handlers contains all v1 API handlers
type V1Handlers struct {
	manager *manager.Manager
	cfg     *config.Config
	logger  *slog.Logger
}

// NewV1Handlers creates a new V1Handlers instance
func NewV1Handlers(manager *manager.Manager, cfg *config.Config, logger *slog.Logger) *V1Handlers {
	return &V1Handlers{
		manager: manager,
		cfg:     cfg,
		logger:  logger,
	}
}

// RequestBody represents the JSON body of a floor-to-floor request.
type RequestBody struct {
	From  int `json:"from"`
	To    int `json:"to"`
	Count int `json:"count"`
}

// TickBody represents the JSON body of a manual tick.
type TickBody struct {
	Delta float64 `json:"delta"`
}

// StrategyBody represents the JSON body of a strategy change.
type StrategyBody struct {
	Strategy string `json:"strategy"`
}

// RequestResponse represents the response for a submitted floor request.
type RequestResponse struct {
	Outcome string `json:"outcome"`
	From    int    `json:"from"`
	To      int    `json:"to"`
	Count   int    `json:"count"`
}

// APIInfoResponse represents API information
type APIInfoResponse struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Endpoints   map[string]string `json:"endpoints"`
}

// RequestHandler handles v1 floor-to-floor request submission (POST /v1/requests)
func (h *V1Handlers) RequestHandler(w http.ResponseWriter, r *http.Request) {
	requestID := logging.GetRequestID(r.Context())
	rw := NewResponseWriter(w, h.logger, requestID)

	if r.Method != http.MethodPost {
		rw.WriteError(http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed,
			"Method not allowed", "Only POST method is supported")
		return
	}

	var body RequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to decode request body",
			slog.String("error", err.Error()),
			slog.String("request_id", requestID))
		rw.WriteError(http.StatusBadRequest, ErrorCodeInvalidJSON,
			"Invalid JSON", "Request body contains invalid JSON")
		return
	}

	outcome, err := h.manager.Submit(body.From, body.To, body.Count)
	if err != nil {
		h.logger.WarnContext(r.Context(), "request not admitted",
			slog.Int("from", body.From), slog.Int("to", body.To), slog.Int("count", body.Count),
			slog.String("outcome", string(outcome)),
			slog.String("error", err.Error()),
			slog.String("request_id", requestID))
		rw.WriteDomainError(err)
		return
	}

	h.logger.InfoContext(r.Context(), "request admitted",
		slog.Int("from", body.From), slog.Int("to", body.To), slog.Int("count", body.Count),
		slog.String("request_id", requestID),
		slog.String("component", constants.ComponentHTTPHandler))

	rw.WriteJSON(http.StatusAccepted, RequestResponse{
		Outcome: string(outcome),
		From:    body.From,
		To:      body.To,
		Count:   body.Count,
	})
}

// RequestFileHandler handles a plain-text or multipart body of whitespace
// "from to count" triples, submitting each as a separate request. Malformed
// lines are skipped rather than failing the whole batch.
func (h *V1Handlers) RequestFileHandler(w http.ResponseWriter, r *http.Request) {
	requestID := logging.GetRequestID(r.Context())
	rw := NewResponseWriter(w, h.logger, requestID)

	if r.Method != http.MethodPost {
		rw.WriteError(http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed,
			"Method not allowed", "Only POST method is supported")
		return
	}

	body := r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		file, _, err := r.FormFile("file")
		if err != nil {
			rw.WriteError(http.StatusBadRequest, ErrorCodeValidation,
				"Invalid multipart body", "Expected a \"file\" form field")
			return
		}
		defer file.Close()
		body = file
	}

	results := make([]RequestResponse, 0)
	skipped := 0

	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			skipped++
			continue
		}
		from, err1 := strconv.Atoi(fields[0])
		to, err2 := strconv.Atoi(fields[1])
		count, err3 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil || err3 != nil {
			skipped++
			continue
		}

		outcome, _ := h.manager.Submit(from, to, count)
		results = append(results, RequestResponse{Outcome: string(outcome), From: from, To: to, Count: count})
	}

	h.logger.InfoContext(r.Context(), "request file processed",
		slog.Int("submitted", len(results)),
		slog.Int("skipped", skipped),
		slog.String("request_id", requestID))

	rw.WriteJSON(http.StatusOK, map[string]interface{}{
		"submitted": results,
		"skipped":   skipped,
	})
}

// TickHandler handles a manual engine tick (POST /v1/tick)
func (h *V1Handlers) TickHandler(w http.ResponseWriter, r *http.Request) {
	requestID := logging.GetRequestID(r.Context())
	rw := NewResponseWriter(w, h.logger, requestID)

	if r.Method != http.MethodPost {
		rw.WriteError(http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed,
			"Method not allowed", "Only POST method is supported")
		return
	}

	var body TickBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rw.WriteError(http.StatusBadRequest, ErrorCodeInvalidJSON,
			"Invalid JSON", "Request body contains invalid JSON")
		return
	}
	if body.Delta <= 0 {
		rw.WriteError(http.StatusBadRequest, ErrorCodeValidation,
			"Invalid delta", "delta must be a positive number of simulated seconds")
		return
	}

	h.manager.Tick(body.Delta)

	status, err := h.manager.GetStatus(r.Context())
	if err != nil {
		rw.WriteDomainError(err)
		return
	}

	rw.WriteJSON(http.StatusOK, status)
}

// ResetHandler discards all in-flight state (POST /v1/reset)
func (h *V1Handlers) ResetHandler(w http.ResponseWriter, r *http.Request) {
	requestID := logging.GetRequestID(r.Context())
	rw := NewResponseWriter(w, h.logger, requestID)

	if r.Method != http.MethodPost {
		rw.WriteError(http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed,
			"Method not allowed", "Only POST method is supported")
		return
	}

	if err := h.manager.Reset(h.cfg.SimConfig()); err != nil {
		rw.WriteDomainError(err)
		return
	}

	h.logger.InfoContext(r.Context(), "engine reset", slog.String("request_id", requestID))
	rw.WriteJSON(http.StatusOK, map[string]string{"message": "engine reset"})
}

// StrategyHandler changes the dispatcher's cost function (POST /v1/strategy)
func (h *V1Handlers) StrategyHandler(w http.ResponseWriter, r *http.Request) {
	requestID := logging.GetRequestID(r.Context())
	rw := NewResponseWriter(w, h.logger, requestID)

	if r.Method != http.MethodPost {
		rw.WriteError(http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed,
			"Method not allowed", "Only POST method is supported")
		return
	}

	var body StrategyBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rw.WriteError(http.StatusBadRequest, ErrorCodeInvalidJSON,
			"Invalid JSON", "Request body contains invalid JSON")
		return
	}

	if err := h.manager.SetStrategy(sim.Strategy(body.Strategy)); err != nil {
		rw.WriteDomainError(err)
		return
	}

	h.logger.InfoContext(r.Context(), "strategy changed",
		slog.String("strategy", body.Strategy), slog.String("request_id", requestID))
	rw.WriteJSON(http.StatusOK, map[string]string{"strategy": body.Strategy})
}

// StatusHandler returns the Observation Surface snapshot (GET /v1/status)
func (h *V1Handlers) StatusHandler(w http.ResponseWriter, r *http.Request) {
	requestID := logging.GetRequestID(r.Context())
	rw := NewResponseWriter(w, h.logger, requestID)

	if r.Method != http.MethodGet {
		rw.WriteError(http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed,
			"Method not allowed", "Only GET method is supported")
		return
	}

	status, err := h.manager.GetStatus(r.Context())
	if err != nil {
		rw.WriteDomainError(err)
		return
	}

	rw.WriteJSON(http.StatusOK, status)
}

// StatsHandler returns dispatcher statistics and conservation counters
// (GET /v1/stats)
func (h *V1Handlers) StatsHandler(w http.ResponseWriter, r *http.Request) {
	requestID := logging.GetRequestID(r.Context())
	rw := NewResponseWriter(w, h.logger, requestID)

	if r.Method != http.MethodGet {
		rw.WriteError(http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed,
			"Method not allowed", "Only GET method is supported")
		return
	}

	stats, conserve := h.manager.Stats()
	rw.WriteJSON(http.StatusOK, map[string]interface{}{
		"total_assignments":      stats.TotalAssignments,
		"successful_assignments": stats.SuccessfulAssignments,
		"success_rate":           stats.SuccessRate(),
		"mean_wait_seconds":      stats.MeanWait(),
		"mean_travel_distance":   stats.MeanDistance(),
		"conservation":           conserve,
	})
}

// HealthHandler handles v1 health checks (GET /v1/health)
func (h *V1Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	requestID := logging.GetRequestID(r.Context())
	rw := NewResponseWriter(w, h.logger, requestID)

	if r.Method != http.MethodGet {
		rw.WriteError(http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed,
			"Method not allowed", "Only GET method is supported")
		return
	}

	health, err := h.manager.GetHealthStatus(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to get health status",
			slog.String("error", err.Error()),
			slog.String("request_id", requestID))
		rw.WriteError(http.StatusInternalServerError, ErrorCodeInternal,
			"Health check failed", err.Error())
		return
	}

	status := "healthy"
	statusCode := http.StatusOK
	if systemHealthy, ok := health["system_healthy"].(bool); ok && !systemHealthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	rw.WriteJSON(statusCode, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now(),
		"checks":    health,
	})
}

// APIInfoHandler provides information about available API endpoints (GET /v1)
func (h *V1Handlers) APIInfoHandler(w http.ResponseWriter, r *http.Request) {
	requestID := logging.GetRequestID(r.Context())
	rw := NewResponseWriter(w, h.logger, requestID)

	if r.Method != http.MethodGet {
		rw.WriteError(http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed,
			"Method not allowed", "Only GET method is supported")
		return
	}

	response := APIInfoResponse{
		Name:        "Elevator Bank Dispatch API",
		Version:     "v1",
		Description: "RESTful API for the elevator bank dispatch-and-motion simulator",
		Endpoints: map[string]string{
			"POST /v1/requests":      "Submit a floor-to-floor request",
			"POST /v1/requests/file": "Submit a batch of requests from whitespace-triple lines",
			"POST /v1/tick":          "Advance the simulation by one manual tick",
			"POST /v1/reset":         "Discard all in-flight state",
			"POST /v1/strategy":      "Change the dispatcher's cost function",
			"GET /v1/status":         "Observation Surface snapshot",
			"GET /v1/stats":          "Dispatcher statistics and conservation counters",
			"GET /v1/health":         "Check system health status",
			"GET /v1":                "Get API information",
			"GET /metrics":           "Prometheus metrics endpoint",
			"WebSocket /ws/status":   "Real-time Observation Surface snapshots",
		},
	}

	rw.WriteJSON(http.StatusOK, response)
}
