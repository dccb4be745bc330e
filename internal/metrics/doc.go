// Package metrics provides live and final round-trip statistics for udprtt.
//
// # Collector
//
// [Collector] receives events from the benchmark tasks while a run is in
// flight and keeps an HDR histogram of round trips for cheap live percentiles:
//
//	collector := metrics.NewCollector()
//	collector.TrackOutstanding(runner.Outstanding)
//	collector.Start()
//
//	live := collector.Stats()
//
// It implements bench.Recorder and is safe for concurrent use.
//
// # Summary
//
// [Summarize] computes the exact statistics of a finished run from the
// per-request round trips: received count, loss, mean, median, 10th/90th/99th
// percentiles, min, max, population variance and standard deviation.
//
//	summary := metrics.Summarize(int(result.Total), result.RTTs())
//	if summary.NoData {
//		// every request was lost
//	}
package metrics
