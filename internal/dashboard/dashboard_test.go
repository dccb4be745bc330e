package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/torosent/udprtt/internal/metrics"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		n, of int64
		want  int
	}{
		{0, 10, 0},
		{5, 10, 50},
		{10, 10, 100},
		{20, 10, 100},
		{3, 0, 0},
		{-1, 10, 0},
	}
	for _, tt := range tests {
		if got := percent(tt.n, tt.of); got != tt.want {
			t.Errorf("percent(%d, %d) = %d, want %d", tt.n, tt.of, got, tt.want)
		}
	}
}

func TestUpdateFillsWidgets(t *testing.T) {
	d := newDashboard(metrics.NewCollector(), RunConfig{
		Target:        "127.0.0.1:9191",
		MaxConcurrent: 10,
		Total:         100,
	}, nil)

	d.update(metrics.LiveStats{
		Sent:        50,
		Received:    45,
		Outstanding: 5,
		MeanRTT:     2 * time.Millisecond,
		MeanRTTMs:   2,
		P99RTTMs:    4.5,
		Elapsed:     3 * time.Second,
		SendRate:    16.7,
	})

	if d.inflight.Percent != 50 {
		t.Errorf("in-flight percent = %d, want 50", d.inflight.Percent)
	}
	if d.inflight.Label != "5 / 10" {
		t.Errorf("in-flight label = %q", d.inflight.Label)
	}
	if d.progress.Percent != 50 {
		t.Errorf("progress percent = %d, want 50", d.progress.Percent)
	}
	if len(d.rttHistory) != 1 || d.rttHistory[0] != 2 {
		t.Errorf("rttHistory = %v, want [2]", d.rttHistory)
	}
	if !strings.Contains(d.rttPara.Text, "P99:  4.500ms") {
		t.Errorf("rtt stats = %q", d.rttPara.Text)
	}
	if !strings.Contains(d.summaryPara.Text, "127.0.0.1:9191") || !strings.Contains(d.summaryPara.Text, "Elapsed: 3s") {
		t.Errorf("summary = %q", d.summaryPara.Text)
	}
}

func TestUpdateBoundsHistory(t *testing.T) {
	d := newDashboard(metrics.NewCollector(), RunConfig{MaxConcurrent: 1, Total: 1}, nil)
	for i := 0; i < historySize+20; i++ {
		d.update(metrics.LiveStats{MeanRTT: time.Millisecond, MeanRTTMs: float64(i)})
	}
	if len(d.rttHistory) != historySize {
		t.Fatalf("history length = %d, want %d", len(d.rttHistory), historySize)
	}
	if d.rttHistory[historySize-1] != float64(historySize+19) {
		t.Errorf("latest sample = %v", d.rttHistory[historySize-1])
	}
}

func TestFormatCounterRows(t *testing.T) {
	rows := formatCounterRows(metrics.LiveStats{Sent: 10, Received: 6, Outstanding: 2})
	joined := strings.Join(rows, "\n")
	if !strings.Contains(joined, "Lost so far:](fg:white) [2]") {
		t.Errorf("expected lost count, got %q", joined)
	}
	if strings.Contains(joined, "Dropped") {
		t.Errorf("dropped row should be hidden, got %q", joined)
	}

	rows = formatCounterRows(metrics.LiveStats{Sent: 1, Received: 1, Duplicates: 3})
	joined = strings.Join(rows, "\n")
	if !strings.Contains(joined, "duplicate 3") {
		t.Errorf("expected duplicate count, got %q", joined)
	}
	if strings.Contains(joined, "Lost") {
		t.Errorf("lost row should be hidden, got %q", joined)
	}
}

func TestFormatRunParams(t *testing.T) {
	tests := []struct {
		name     string
		config   RunConfig
		contains []string
		excludes []string
	}{
		{
			name:     "unpaced",
			config:   RunConfig{MaxConcurrent: 1000, Total: 1000000},
			contains: []string{"Max concurrent: 1000", "Total: 1000000", "Rate: unlimited"},
			excludes: []string{"Config:"},
		},
		{
			name:     "poisson pacing",
			config:   RunConfig{MaxConcurrent: 4, Rate: 200, Arrival: "poisson"},
			contains: []string{"Rate: 200/s poisson"},
		},
		{
			name:     "uniform arrival not shown",
			config:   RunConfig{Rate: 50, Arrival: "uniform"},
			excludes: []string{"uniform"},
		},
		{
			name:     "grace output and config",
			config:   RunConfig{GracePeriod: 3 * time.Second, Output: "out.csv", ConfigFile: "bench.yaml"},
			contains: []string{"Grace: 3s", "Output: out.csv", "Config: bench.yaml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Dashboard{runConfig: tt.config}
			result := d.formatRunParams()
			for _, s := range tt.contains {
				if !strings.Contains(result, s) {
					t.Errorf("expected result to contain %q, got %q", s, result)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(result, s) {
					t.Errorf("expected result NOT to contain %q, got %q", s, result)
				}
			}
		})
	}
}
