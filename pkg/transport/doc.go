// Package transport delivers serialized log events to a collection endpoint
// over HTTP, fire-and-forget.
//
// Send never blocks on the network. It builds the POST request, checks that
// the transport is open, that the send rate limit and the endpoint's circuit
// breaker allow it, and then enqueues it for a worker. Any of those checks
// failing is returned synchronously; what happens after the enqueue is only
// visible through metrics and the diagnostics logger. There is no retry.
//
// Each request carries Content-Type "application/json; charset=utf-8", a
// fresh X-Log-Event-Id and the capture time in X-Log-Timestamp.
//
//	t := transport.New(transport.WithTimeout(5*time.Second))
//	defer t.Close(ctx)
//
//	err := t.Send(transport.Event{
//		Endpoint:  "https://logs.example/ingest",
//		Body:      []byte(`{"level":"INFO","msg":"user login"}`),
//		Timestamp: time.Now().UnixMilli(),
//	})
package transport
