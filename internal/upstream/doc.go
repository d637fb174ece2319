// Package upstream fetches the outbound targets shown by proxy widgets.
// Each Target tracks in-flight requests and a latency moving average, and
// is guarded by a circuit breaker.
package upstream
