// Package http implements the HTTP and WebSocket handlers of the sample server.
// Handlers are a thin layer over a DatasetService: they parse and validate
// requests, call the dataset and render the result.
//
// # Routes
//
//	GET  /healthz                          health and runtime statistics
//	GET  /api/v1/version                   build information
//	GET  /api/v1/dataset                   dataset summary
//	GET  /api/v1/dataset/samples/{index}   one sample of the active mode
//	PUT  /api/v1/dataset/mode              switch the sample mode
//	GET  /api/v1/dataset/split             train/validation/test index ranges
//	GET  /api/v1/dataset/stream            WebSocket batch stream
//
// # Error Handling
//
// All errors follow the RFC 7807 Problem Details format:
//
//	{
//	    "type": "/errors/dataset/index-out-of-range",
//	    "title": "Not Found",
//	    "status": 404,
//	    "detail": "index 9000 out of range [0, 4392)",
//	    "instance": "/api/v1/dataset/samples/9000"
//	}
//
// # Streaming
//
// The stream endpoint validates its query parameters, upgrades the
// connection and writes "batch" messages of consecutive samples followed by
// a single "done" message. A stream reads one view snapshot, so a mode
// switch during the stream does not affect it.
package http
