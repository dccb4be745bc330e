package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/torosent/udprtt/internal/metrics"
)

// Report is the full machine-readable result of a run.
type Report struct {
	RunID           string          `json:"run_id" yaml:"run_id"`
	Target          string          `json:"target" yaml:"target"`
	MaxConcurrent   int             `json:"max_concurrent" yaml:"max_concurrent"`
	Sent            int             `json:"sent" yaml:"sent"`
	PeakOutstanding int64           `json:"peak_outstanding" yaml:"peak_outstanding"`
	Duplicates      int64           `json:"duplicates" yaml:"duplicates"`
	Unknown         int64           `json:"unknown" yaml:"unknown"`
	Malformed       int64           `json:"malformed" yaml:"malformed"`
	Duration        time.Duration   `json:"-" yaml:"-"`
	DurationMs      float64         `json:"duration_ms" yaml:"duration_ms"`
	Summary         metrics.Summary `json:"summary" yaml:"summary"`
}

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, r Report) {
	s := r.Summary
	fmt.Fprintln(w, "\n--- UDP RTT Results ---")
	if r.RunID != "" {
		fmt.Fprintf(w, "Run:               %s\n", r.RunID)
	}
	fmt.Fprintf(w, "Target:            %s\n", r.Target)
	fmt.Fprintf(w, "Max Concurrent:    %d\n", r.MaxConcurrent)
	fmt.Fprintf(w, "Total Requests:    %d\n", s.Total)
	fmt.Fprintf(w, "Sent:              %d\n", r.Sent)
	fmt.Fprintf(w, "Received:          %d\n", s.Received)
	fmt.Fprintf(w, "Lost:              %d (%.2f%%)\n", s.Lost, s.LossRate*100)
	fmt.Fprintf(w, "Duration:          %s\n", r.Duration)
	fmt.Fprintf(w, "Peak In-flight:    %d\n", r.PeakOutstanding)
	if r.Duplicates > 0 || r.Unknown > 0 || r.Malformed > 0 {
		fmt.Fprintln(w, "\nDropped Replies:")
		fmt.Fprintf(w, "  Duplicate:       %d\n", r.Duplicates)
		fmt.Fprintf(w, "  Unknown:         %d\n", r.Unknown)
		fmt.Fprintf(w, "  Malformed:       %d\n", r.Malformed)
	}

	fmt.Fprintln(w, "\nRound Trip:")
	if s.NoData {
		fmt.Fprintln(w, "  No data")
	} else {
		fmt.Fprintf(w, "  Min:             %s\n", s.Min)
		fmt.Fprintf(w, "  Max:             %s\n", s.Max)
		fmt.Fprintf(w, "  Mean:            %s\n", s.Mean)
		fmt.Fprintf(w, "  Median:          %s\n", s.Median)
		fmt.Fprintf(w, "  P10:             %s\n", s.P10)
		fmt.Fprintf(w, "  P90:             %s\n", s.P90)
		fmt.Fprintf(w, "  P99:             %s\n", s.P99)
		fmt.Fprintf(w, "  Std Dev:         %s\n", s.StdDev)
	}
	if s.NonPositive > 0 {
		fmt.Fprintf(w, "\nWARNING: %d non-positive round trips excluded\n", s.NonPositive)
	}
}

// PrintSummaryLine writes the one-line console summary of a run.
func PrintSummaryLine(w io.Writer, s metrics.Summary) {
	if s.NoData {
		fmt.Fprintf(w, "received: %d, no round-trip data\n", s.Received)
		return
	}
	fmt.Fprintf(w, "received: %d, mean: %s, median: %s, q10: %s, q90: %s, max: %s, min: %s, var: %.0fns², std: %s\n",
		s.Received, s.Mean, s.Median, s.P10, s.P90, s.Max, s.Min, s.Variance, s.StdDev)
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, r Report) error {
	r.DurationMs = float64(r.Duration) / float64(time.Millisecond)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// PrintYAMLReport outputs a YAML-formatted report.
func PrintYAMLReport(w io.Writer, r Report) error {
	r.DurationMs = float64(r.Duration) / float64(time.Millisecond)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
