// Package services implements the business logic layer between HTTP
// handlers and the dataset pipeline.
//
// DashboardService owns the single-entry dataset cache and runs the
// ingestion pipeline (validate, parse, schema check, clean) on upload.
// Every aggregated view resolves the dataset id against the cache,
// applies the request's filter and delegates to internal/dataset.
// HealthService reports liveness and whether a dataset is loaded.
//
// Services return *errors.APIError values; handlers pass them to the
// RFC 7807 error handler unchanged.
package services
