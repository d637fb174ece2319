// Package circuitbreaker guards outbound proxy targets.
//
// A breaker has three states:
//
//   - CLOSED: requests pass through
//   - OPEN: the target failed too often, requests are rejected
//   - HALF-OPEN: one probe request is let through
//
// Usage:
//
//	breaker := circuitbreaker.NewRegistry(5, 30*time.Second).Get("https://example.com")
//	if !breaker.Allow() {
//	    // target is cooling down
//	}
//	if err := fetch(); err != nil {
//	    breaker.RecordFailure()
//	} else {
//	    breaker.RecordSuccess()
//	}
package circuitbreaker
