// Package api serves the published snapshot over HTTP.
//
// # Routes
//
//	GET  /api/graph    full snapshot envelope (status, message, data)
//	GET  /api/summary  status plus aggregate counts, no node payload
//	POST /api/scan     trigger an out-of-band scan pass (rate limited)
//	GET  /metrics      Prometheus metrics
//	GET  /healthz      liveness
//	GET  /readyz       readiness, passes once a snapshot is published
//
// Handlers only read the atomic snapshot; no request ever blocks the
// scanner.
package api
