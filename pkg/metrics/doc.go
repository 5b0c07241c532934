// Package metrics counts what happens to log calls after they leave the
// caller: how many were made per level, how many reached the console, how
// many sends were suppressed by the send gate or rejected by the transport,
// and how deliveries to each endpoint went.
//
// The Collector receives events over a buffered channel and aggregates them
// in a dedicated goroutine. Record never blocks; when the buffer is full the
// event is dropped and counted in Snapshot.DroppedEvents.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	collector.Record(metrics.Event{
//		Type:       metrics.EventDeliveryCompleted,
//		Endpoint:   "https://logs.example/ingest",
//		Duration:   40 * time.Millisecond,
//		StatusCode: 202,
//	})
//
//	snapshot := collector.Snapshot()
//
// On context cancellation the collector drains whatever is still buffered
// before it stops.
package metrics
