// Package operation provides the shared framework for integration adapters.
//
// Every adapter implements Provider: it receives one platform command with a
// flat argument map and returns a Result holding one or more Entries. An
// Entry carries the readable markdown shown to analysts, the machine-readable
// outputs stored under a context prefix, and optionally a reputation
// Indicator.
//
// The package also holds what the adapters share:
//   - Error classification of vendor HTTP failures
//   - Validation helpers for adapter parameters and arguments
//   - Transport construction from instance configuration
//   - Invocation metrics exported through Prometheus
//
// Adapters themselves live under internal/integration.
package operation
