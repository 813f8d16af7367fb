// Package telemetry groups Skyway's observability subpackages.
//
//   - logging: structured slog handler construction and level parsing
//   - metrics: request, cache, and session counters exposed as both
//     Prometheus series and JSON read models
package telemetry
