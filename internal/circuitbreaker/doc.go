// Package circuitbreaker stops the transport from posting to a log endpoint
// that keeps failing.
//
// After threshold consecutive failures a breaker opens and Allow rejects
// sends outright. Once the reset timeout has passed it goes half-open and
// lets sends through again; the next recorded outcome either closes it or
// opens it for another full timeout.
//
//	registry := circuitbreaker.NewRegistry(5, 30*time.Second)
//	cb := registry.ForEndpoint(endpoint)
//	if !cb.Allow() {
//		return ErrCircuitOpen
//	}
//
// The caller reports each delivery with RecordSuccess or RecordFailure.
package circuitbreaker
