// Package http provides the HTTP API server for the fair deal service.
//
// The server exposes session lifecycle endpoints under /api/v1/games plus
// gameplay operations on ready games, a health check, and Prometheus
// metrics.
package http
