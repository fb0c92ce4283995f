// Package server exposes the orchestrator over HTTP.
//
// Routes:
//   - GET /health: liveness plus snapshot age
//   - GET /api/state: current snapshot
//   - POST /api/refresh: run a refresh and return the new snapshot
//   - GET /api/assets, POST /api/assets, DELETE /api/assets/{symbol}: tracked-symbol registry
//   - POST /api/agents/OrchestratorAgent/query: dashboard query endpoint
//   - GET /api/stream: websocket, one snapshot message on connect and after every refresh
//   - GET /metrics: Prometheus metrics
package server
