package metrics

import (
	"math"
	"sort"
	"time"
)

// Summary holds the aggregate round-trip statistics of a finished run.
//
// Received counts every matched reply. Non-positive round trips indicate a
// clock defect: they are counted in NonPositive and excluded from the
// distribution fields. NoData is set when no valid round trip exists, in
// which case every distribution field is zero.
type Summary struct {
	Total       int           `json:"total" yaml:"total"`
	Received    int           `json:"received" yaml:"received"`
	Lost        int           `json:"lost" yaml:"lost"`
	LossRate    float64       `json:"loss_rate" yaml:"loss_rate"`
	NonPositive int           `json:"non_positive_rtts" yaml:"non_positive_rtts"`
	NoData      bool          `json:"no_data" yaml:"no_data"`
	Mean        time.Duration `json:"-" yaml:"-"`
	Median      time.Duration `json:"-" yaml:"-"`
	P10         time.Duration `json:"-" yaml:"-"`
	P90         time.Duration `json:"-" yaml:"-"`
	P99         time.Duration `json:"-" yaml:"-"`
	Min         time.Duration `json:"-" yaml:"-"`
	Max         time.Duration `json:"-" yaml:"-"`
	StdDev      time.Duration `json:"-" yaml:"-"`
	// Variance is the population variance in ns².
	Variance float64 `json:"variance_ns2" yaml:"variance_ns2"`

	// Report-friendly millisecond fields.
	MeanMs   float64 `json:"mean_ms" yaml:"mean_ms"`
	MedianMs float64 `json:"median_ms" yaml:"median_ms"`
	P10Ms    float64 `json:"p10_ms" yaml:"p10_ms"`
	P90Ms    float64 `json:"p90_ms" yaml:"p90_ms"`
	P99Ms    float64 `json:"p99_ms" yaml:"p99_ms"`
	MinMs    float64 `json:"min_ms" yaml:"min_ms"`
	MaxMs    float64 `json:"max_ms" yaml:"max_ms"`
	StdDevMs float64 `json:"std_dev_ms" yaml:"std_dev_ms"`
}

// Summarize computes exact statistics over the round trips of received
// requests out of total sent. rtts is not modified.
//
// The median is the upper-middle element sorted[n/2]. Percentile p uses the
// nearest-rank index floor(n*p) clamped into [0, n-1].
func Summarize(total int, rtts []time.Duration) Summary {
	s := Summary{Total: total, Received: len(rtts)}
	s.Lost = total - s.Received
	if s.Lost < 0 {
		s.Lost = 0
	}
	if total > 0 {
		s.LossRate = float64(s.Lost) / float64(total)
	}

	sorted := make([]time.Duration, 0, len(rtts))
	for _, rtt := range rtts {
		if rtt <= 0 {
			s.NonPositive++
			continue
		}
		sorted = append(sorted, rtt)
	}
	n := len(sorted)
	if n == 0 {
		s.NoData = true
		return s
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum float64
	for _, rtt := range sorted {
		sum += float64(rtt)
	}
	mean := sum / float64(n)

	var sq float64
	for _, rtt := range sorted {
		d := float64(rtt) - mean
		sq += d * d
	}
	s.Variance = sq / float64(n)

	s.Mean = time.Duration(math.Round(mean))
	s.StdDev = time.Duration(math.Round(math.Sqrt(s.Variance)))
	s.Min = sorted[0]
	s.Max = sorted[n-1]
	s.Median = sorted[clampIndex(n/2, n)]
	s.P10 = sorted[percentileIndex(n, 0.1)]
	s.P90 = sorted[percentileIndex(n, 0.9)]
	s.P99 = sorted[percentileIndex(n, 0.99)]

	s.MeanMs = toMillis(s.Mean)
	s.MedianMs = toMillis(s.Median)
	s.P10Ms = toMillis(s.P10)
	s.P90Ms = toMillis(s.P90)
	s.P99Ms = toMillis(s.P99)
	s.MinMs = toMillis(s.Min)
	s.MaxMs = toMillis(s.Max)
	s.StdDevMs = toMillis(s.StdDev)
	return s
}

func percentileIndex(n int, p float64) int {
	return clampIndex(int(math.Floor(float64(n)*p)), n)
}

func clampIndex(idx, n int) int {
	if idx < 0 {
		return 0
	}
	if idx > n-1 {
		return n - 1
	}
	return idx
}
