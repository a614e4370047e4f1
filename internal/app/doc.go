// Package app assembles the dashboard backend: configuration, logging,
// telemetry, the dataset service, HTTP transport and the WebSocket hub.
//
// The only public entry points are NewApplication and Run; cmd/web is a
// thin wrapper around them.
package app
