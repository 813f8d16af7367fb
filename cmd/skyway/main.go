// Skyway is an edge gateway that fronts a pool of regional backends.
//
// It terminates client HTTP and WebSocket traffic and provides:
//   - Per-client sliding-window rate limiting
//   - Region-affine routing with health-based failover
//   - Response caching with configurable bypass paths
//   - WebSocket session keep-alive management
//   - Prometheus and JSON operational introspection
//
// Usage:
//
//	# Start the gateway with default configuration
//	skyway run
//
//	# Start with a custom configuration file
//	skyway run --config /etc/skyway/config.yaml
//
//	# Validate a configuration file without starting
//	skyway validate
//
//	# Show version information
//	skyway version
package main

func main() {
	Execute()
}
