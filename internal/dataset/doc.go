// Package dataset implements the CSV ingestion and aggregation pipeline
// behind the sales dashboards. It covers the complete data lifecycle from
// uploaded bytes to the grouped views the UI renders.
//
// # Pipeline
//
// The pipeline is a sequence of pure transformations:
//
//	bytes → Parse → Table → ValidateSchema → Clean → CleanTable
//	      → Filter → AggregateByYear / AggregateByYearPlatform / Rank
//	      → Pivot / RegionBreakdown / Stats
//
// Each step produces a new value; nothing is mutated in place. The only
// state in the package is Cache, a single-entry store keyed by content
// identity that prevents re-parsing the same upload on every interaction.
//
// # Coercion policy
//
// Cleaning is deliberately asymmetric: rows whose Year cell cannot be
// coerced to a number are dropped, while sales cells that fail coercion are
// zero-filled. A CleanTable therefore always holds an integer Year and
// numeric sales figures for every record.
//
// # Error handling
//
// Parse returns *ParseError when no encoding strategy yields a valid table,
// and ValidateSchema returns *SchemaError listing the missing and detected
// columns. An empty CleanTable or filter result is not an error; callers
// surface it as a warning and skip chart rendering.
package dataset
