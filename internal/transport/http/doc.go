// Package http implements the HTTP handlers for the dashboard API.
//
// Handlers stay thin: they parse and validate the request, call the
// service layer and render a JSON envelope. All failures go through the
// RFC 7807 error handler, so every error response is problem+json.
//
// A typical request flows:
//
//	HTTP Request -> Chi Router -> Middleware -> Handler -> DashboardService -> dataset pipeline
//
// Aggregation endpoints share a common query surface: year_from and
// year_to default to the dataset's full span, repeated platform
// parameters narrow the platform set (none selected keeps all), and
// measure picks the sales column to sum.
package http
