// Package app wires the sample server together: configuration, logging,
// telemetry, the dataset and the HTTP router, plus the server lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, YAML file and environment
//	2. Initialize logging and OpenTelemetry
//	3. Open the dataset and switch it to the configured mode
//	4. Set up middleware, handlers and the HTTP server
//	5. Serve until SIGINT or SIGTERM, then shut down gracefully
//
// # Middleware Order
//
//	RequestID → RealIP → Recoverer → OTel → StructuredLogger →
//	SecurityHeaders → CORS → RateLimiter → handler
//
// /metrics is registered outside the group so that scrapes are neither
// rate limited nor counted as API requests.
package app
