package metrics_test

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/torosent/udprtt/internal/metrics"
)

func TestCollectorLiveStats(t *testing.T) {
	c := metrics.NewCollector()
	c.TrackOutstanding(func() int64 { return 3 })

	for i := 0; i < 5; i++ {
		c.RecordSent()
	}
	c.RecordReply(10 * time.Millisecond)
	c.RecordReply(20 * time.Millisecond)
	c.RecordReply(30 * time.Millisecond)
	c.RecordDuplicate()
	c.RecordUnknown()
	c.RecordMalformed()

	stats := c.Stats()

	if stats.Sent != 5 {
		t.Errorf("Sent = %d, want 5", stats.Sent)
	}
	if stats.Received != 3 {
		t.Errorf("Received = %d, want 3", stats.Received)
	}
	if stats.Duplicates != 1 || stats.Unknown != 1 || stats.Malformed != 1 {
		t.Errorf("duplicates/unknown/malformed = %d/%d/%d, want 1/1/1", stats.Duplicates, stats.Unknown, stats.Malformed)
	}
	if stats.Outstanding != 3 {
		t.Errorf("Outstanding = %d, want 3", stats.Outstanding)
	}
	if stats.MinRTT != 10*time.Millisecond {
		t.Errorf("MinRTT = %s, want 10ms", stats.MinRTT)
	}
	if stats.MaxRTT != 30*time.Millisecond {
		t.Errorf("MaxRTT = %s, want 30ms", stats.MaxRTT)
	}
	if stats.MeanRTT != 20*time.Millisecond {
		t.Errorf("MeanRTT = %s, want 20ms", stats.MeanRTT)
	}
	if stats.SendRate <= 0 {
		t.Errorf("SendRate = %f, want > 0", stats.SendRate)
	}
}

func TestCollectorPercentiles(t *testing.T) {
	c := metrics.NewCollector()

	// 100 samples: 1ms, 2ms, ..., 100ms.
	for i := 1; i <= 100; i++ {
		c.RecordReply(time.Duration(i) * time.Millisecond)
	}

	stats := c.Stats()

	if stats.P50RTT < 49*time.Millisecond || stats.P50RTT > 51*time.Millisecond {
		t.Errorf("expected P50 ~50ms, got %s", stats.P50RTT)
	}
	if stats.P90RTT < 89*time.Millisecond || stats.P90RTT > 91*time.Millisecond {
		t.Errorf("expected P90 ~90ms, got %s", stats.P90RTT)
	}
	if stats.P99RTT < 98*time.Millisecond || stats.P99RTT > 100*time.Millisecond {
		t.Errorf("expected P99 ~99ms, got %s", stats.P99RTT)
	}
}

func TestCollectorIgnoresNonPositiveRTTInHistogram(t *testing.T) {
	c := metrics.NewCollector()
	c.RecordReply(0)
	stats := c.Stats()
	if stats.Received != 1 {
		t.Errorf("Received = %d, want 1", stats.Received)
	}
	if stats.MeanRTT != 0 || stats.P50RTT != 0 {
		t.Errorf("expected empty distribution, got mean=%s p50=%s", stats.MeanRTT, stats.P50RTT)
	}
}

func TestLiveStatsJSONSchema(t *testing.T) {
	c := metrics.NewCollector()
	c.RecordSent()
	c.RecordReply(15 * time.Millisecond)

	data, err := json.Marshal(c.Stats())
	if err != nil {
		t.Fatalf("failed to marshal stats: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	requiredFields := []string{"sent", "received", "duplicates", "unknown", "malformed", "outstanding", "min_rtt_ms", "max_rtt_ms", "mean_rtt_ms", "p50_rtt_ms", "p90_rtt_ms", "p99_rtt_ms", "elapsed_ms", "send_rate"}
	for _, field := range requiredFields {
		if _, ok := parsed[field]; !ok {
			t.Errorf("missing field %q in JSON output", field)
		}
	}
}

func TestConcurrentRecording(t *testing.T) {
	c := metrics.NewCollector()

	var wg sync.WaitGroup
	workers := 10
	recordsPerWorker := 100

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < recordsPerWorker; j++ {
				c.RecordSent()
				c.RecordReply(time.Millisecond)
			}
		}()
	}
	wg.Wait()

	stats := c.Stats()
	expected := int64(workers * recordsPerWorker)
	if stats.Sent != expected || stats.Received != expected {
		t.Errorf("sent=%d received=%d, want %d", stats.Sent, stats.Received, expected)
	}
}
