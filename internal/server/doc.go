// Package server provides the optional status HTTP server.
//
// Routes:
//
//   - GET /api/status: JSON snapshot of the latest report of each tool
//   - GET /api/sse: Server-Sent Events stream of report updates
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
