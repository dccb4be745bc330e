package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Collector records live benchmark events in a thread-safe manner. It feeds the
// progress line and the dashboard while a run is in flight; the final report is
// computed exactly from the accounting snapshot by Summarize.
type Collector struct {
	mu          sync.Mutex
	hist        *hdrhistogram.Histogram
	sent        int64
	received    int64
	duplicates  int64
	unknown     int64
	malformed   int64
	minRTT      time.Duration
	maxRTT      time.Duration
	sumRTT      time.Duration
	start       time.Time
	outstanding func() int64
}

// LiveStats is a point-in-time view of a running benchmark.
type LiveStats struct {
	Sent        int64         `json:"sent"`
	Received    int64         `json:"received"`
	Duplicates  int64         `json:"duplicates"`
	Unknown     int64         `json:"unknown"`
	Malformed   int64         `json:"malformed"`
	Outstanding int64         `json:"outstanding"`
	MinRTT      time.Duration `json:"-"`
	MaxRTT      time.Duration `json:"-"`
	MeanRTT     time.Duration `json:"-"`
	P50RTT      time.Duration `json:"-"`
	P90RTT      time.Duration `json:"-"`
	P99RTT      time.Duration `json:"-"`
	Elapsed     time.Duration `json:"-"`
	SendRate    float64       `json:"send_rate"`

	// JSON-friendly millisecond fields.
	MinRTTMs  float64 `json:"min_rtt_ms"`
	MaxRTTMs  float64 `json:"max_rtt_ms"`
	MeanRTTMs float64 `json:"mean_rtt_ms"`
	P50RTTMs  float64 `json:"p50_rtt_ms"`
	P90RTTMs  float64 `json:"p90_rtt_ms"`
	P99RTTMs  float64 `json:"p99_rtt_ms"`
	ElapsedMs float64 `json:"elapsed_ms"`
}

func NewCollector() *Collector {
	// Track round trips from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Collector{
		hist:  h,
		start: time.Now(),
	}
}

// Start marks the beginning of the run for rate calculations.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = time.Now()
}

// TrackOutstanding installs a gauge reporting in-flight requests.
func (c *Collector) TrackOutstanding(fn func() int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outstanding = fn
}

// RecordSent counts a transmitted request.
func (c *Collector) RecordSent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent++
}

// RecordReply records the round trip of a matched reply.
func (c *Collector) RecordReply(rtt time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.received++
	if rtt <= 0 {
		return
	}
	us := rtt.Microseconds()
	if us < c.hist.LowestTrackableValue() {
		us = c.hist.LowestTrackableValue()
	}
	if us > c.hist.HighestTrackableValue() {
		us = c.hist.HighestTrackableValue()
	}
	_ = c.hist.RecordValue(us)
	c.sumRTT += rtt

	if c.minRTT == 0 || rtt < c.minRTT {
		c.minRTT = rtt
	}
	if rtt > c.maxRTT {
		c.maxRTT = rtt
	}
}

// RecordDuplicate counts a reply for an already completed request.
func (c *Collector) RecordDuplicate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.duplicates++
}

// RecordUnknown counts a reply whose id was never sent.
func (c *Collector) RecordUnknown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unknown++
}

// RecordMalformed counts a datagram that is not a valid payload.
func (c *Collector) RecordMalformed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.malformed++
}

// Stats returns the current live statistics.
func (c *Collector) Stats() LiveStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := time.Since(c.start)
	stats := LiveStats{
		Sent:       c.sent,
		Received:   c.received,
		Duplicates: c.duplicates,
		Unknown:    c.unknown,
		Malformed:  c.malformed,
		MinRTT:     c.minRTT,
		MaxRTT:     c.maxRTT,
		Elapsed:    elapsed,
	}
	if c.outstanding != nil {
		stats.Outstanding = c.outstanding()
	}

	if count := c.hist.TotalCount(); count > 0 {
		stats.MeanRTT = time.Duration(int64(c.sumRTT) / count)
		stats.P50RTT = time.Duration(c.hist.ValueAtQuantile(50)) * time.Microsecond
		stats.P90RTT = time.Duration(c.hist.ValueAtQuantile(90)) * time.Microsecond
		stats.P99RTT = time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond
	}

	stats.MinRTTMs = toMillis(stats.MinRTT)
	stats.MaxRTTMs = toMillis(stats.MaxRTT)
	stats.MeanRTTMs = toMillis(stats.MeanRTT)
	stats.P50RTTMs = toMillis(stats.P50RTT)
	stats.P90RTTMs = toMillis(stats.P90RTT)
	stats.P99RTTMs = toMillis(stats.P99RTT)
	stats.ElapsedMs = toMillis(elapsed)

	if elapsed > 0 && c.sent > 0 {
		stats.SendRate = float64(c.sent) / elapsed.Seconds()
	}
	return stats
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
