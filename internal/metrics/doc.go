// Package metrics collects probe events and turns them into progress and
// per-egress statistics.
//
// The coordinator emits events on a buffered channel without blocking the
// probe loop; the collector consumes them in its own goroutine, updates the
// aggregates, and forwards every event to the registered listeners (the CLI
// uses one to render progress). Tracked values:
//   - probes, transport failures and blocked classifications per egress
//   - response times per egress with P50, P95 and P99
//   - HTTP status code distribution per egress
//   - batch progress: completed domains and their partition counts
//
// Example usage:
//
//	collector := metrics.NewCollector(256, logger, func(e metrics.Event) {
//		if e.Type == metrics.EventProgress {
//			logger.Info("progress", slog.Int("done", e.Index), slog.Int("total", e.Total))
//		}
//	})
//	collector.Start(ctx)
//
//	snapshot := collector.Snapshot()
//
// On context cancellation the collector drains pending events before it
// stops, so nothing emitted before shutdown is lost.
package metrics
