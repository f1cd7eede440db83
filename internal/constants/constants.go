package constants

import "time"

// Application constants centralized in one location to improve type safety
// and eliminate magic strings throughout the codebase

// Default Configuration Values
const (
	DefaultPort     = 6660
	DefaultLogLevel = "INFO"

	// StatusUpdateInterval is the default cadence of WebSocket status pushes.
	StatusUpdateInterval = 1 * time.Second
)

// HTTP Content Types
const (
	ContentTypeJSON      = "application/json"
	ContentTypeTextPlain = "text/plain"
)

// HTTP Methods
const (
	MethodGET  = "GET"
	MethodPOST = "POST"
)

// Component Names for Logging
const (
	ComponentHTTPServer  = "http-server"
	ComponentHTTPHandler = "http_handler"
	ComponentWebSocket   = "websocket"
	ComponentEngine      = "engine"
	ComponentManager     = "manager"
)

// Building Configuration Limits — sanity bounds on SIM_FLOOR_COUNT /
// SIM_CABIN_COUNT, not the per-request floor range (that is [1,FloorCount]
// and enforced by sim.Config.Validate).
const (
	MinAllowedFloorCount = 2   // a building needs at least two floors to dispatch between
	MaxAllowedFloorCount = 200 // reasonable maximum for a skyscraper simulation
	MaxAllowedCabinCount = 64
)

// Metrics
const (
	MetricsNamespace = "elevator_bank"
	CabinIDLabel     = "cabin_id"
)
