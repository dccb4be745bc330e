// Package dashboard renders a live terminal view of a running benchmark.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/torosent/udprtt/internal/metrics"
)

const historySize = 100

// RunConfig holds run parameters for display.
type RunConfig struct {
	Target        string        // Echo target address
	MaxConcurrent int           // Admission limit
	Total         int64         // Requests to send
	Rate          int           // Requests per second (0 = unlimited)
	Arrival       string        // Arrival model when paced
	GracePeriod   time.Duration // Wait after the last send
	Output        string        // Detail report path
	ConfigFile    string        // Path to config file if used
}

// Dashboard renders a live terminal UI for benchmark metrics.
type Dashboard struct {
	collector    *metrics.Collector
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	// Widgets
	grid         *ui.Grid
	rttSparkline *widgets.SparklineGroup
	rttPara      *widgets.Paragraph
	inflight     *widgets.Gauge
	progress     *widgets.Gauge
	counterList  *widgets.List
	summaryPara  *widgets.Paragraph
	rttHistory   []float64
	startTime    time.Time
	runConfig    RunConfig
}

// New initializes the terminal and builds the dashboard. shutdownFunc is
// called when the user presses q or Ctrl-C.
func New(collector *metrics.Collector, cfg RunConfig, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	d := newDashboard(collector, cfg, shutdownFunc)
	d.setupGrid()
	return d, nil
}

func newDashboard(collector *metrics.Collector, cfg RunConfig, shutdownFunc func()) *Dashboard {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dashboard{
		collector:    collector,
		ctx:          ctx,
		cancel:       cancel,
		shutdownFunc: shutdownFunc,
		rttHistory:   make([]float64, 0, historySize),
		startTime:    time.Now(),
		runConfig:    cfg,
	}
	d.initWidgets()
	return d
}

// initWidgets initializes all dashboard widgets.
func (d *Dashboard) initWidgets() {
	sparkline := widgets.NewSparkline()
	sparkline.Title = "Mean RTT (ms)"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}

	d.rttSparkline = widgets.NewSparklineGroup(sparkline)
	d.rttSparkline.Title = "Round Trip"
	d.rttSparkline.BorderStyle.Fg = ui.ColorCyan

	d.rttPara = widgets.NewParagraph()
	d.rttPara.Title = "RTT Stats"
	d.rttPara.Text = "Waiting for replies..."
	d.rttPara.BorderStyle.Fg = ui.ColorCyan

	d.inflight = widgets.NewGauge()
	d.inflight.Title = "In-flight"
	d.inflight.BarColor = ui.ColorBlue
	d.inflight.BorderStyle.Fg = ui.ColorCyan
	d.inflight.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.progress = widgets.NewGauge()
	d.progress.Title = "Sent"
	d.progress.BarColor = ui.ColorGreen
	d.progress.BorderStyle.Fg = ui.ColorCyan
	d.progress.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.counterList = widgets.NewList()
	d.counterList.Title = "Counters"
	d.counterList.Rows = []string{"Awaiting data"}
	d.counterList.TextStyle = ui.NewStyle(ui.ColorYellow)
	d.counterList.BorderStyle.Fg = ui.ColorCyan

	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Run"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan
}

// setupGrid configures the layout grid.
func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	d.grid.Set(
		ui.NewRow(0.16,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.16,
			ui.NewCol(0.5, d.inflight),
			ui.NewCol(0.5, d.progress),
		),
		ui.NewRow(0.38,
			ui.NewCol(0.65, d.rttSparkline),
			ui.NewCol(0.35, d.rttPara),
		),
		ui.NewRow(0.30,
			ui.NewCol(1.0, d.counterList),
		),
	)
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and restores the terminal.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	ui.Close()
	// Give terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

// run is the main dashboard update loop.
func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.render()

	for {
		select {
		case <-d.ctx.Done():
			return
		case e := <-uiEvents:
			select {
			case <-d.ctx.Done():
				return
			default:
			}

			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
				// Keep rendering until Stop cancels the context.
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update(d.collector.Stats())
			d.render()
		}
	}
}

// update refreshes all widget data from a stats snapshot.
func (d *Dashboard) update(stats metrics.LiveStats) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if stats.MeanRTT > 0 {
		d.rttHistory = append(d.rttHistory, stats.MeanRTTMs)
		if len(d.rttHistory) > historySize {
			d.rttHistory = d.rttHistory[1:]
		}
		d.rttSparkline.Sparklines[0].Data = d.rttHistory
		d.rttSparkline.Title = fmt.Sprintf(
			"Round Trip | Current: %.3fms | Min: %.3fms | Max: %.3fms",
			stats.MeanRTTMs,
			stats.MinRTTMs,
			stats.MaxRTTMs,
		)
		d.rttPara.Text = fmt.Sprintf(
			"Min:  %.3fms\nMean: %.3fms\nP50:  %.3fms\nP90:  %.3fms\nP99:  %.3fms\nMax:  %.3fms",
			stats.MinRTTMs,
			stats.MeanRTTMs,
			stats.P50RTTMs,
			stats.P90RTTMs,
			stats.P99RTTMs,
			stats.MaxRTTMs,
		)
	}

	d.inflight.Percent = percent(stats.Outstanding, int64(d.runConfig.MaxConcurrent))
	d.inflight.Label = fmt.Sprintf("%d / %d", stats.Outstanding, d.runConfig.MaxConcurrent)

	d.progress.Percent = percent(stats.Sent, d.runConfig.Total)
	d.progress.Label = fmt.Sprintf("%d / %d (%.0f/s)", stats.Sent, d.runConfig.Total, stats.SendRate)

	d.summaryPara.Text = fmt.Sprintf(
		"Target: %s\n%s\nElapsed: %s",
		d.runConfig.Target,
		d.formatRunParams(),
		stats.Elapsed.Round(time.Second),
	)

	d.counterList.Rows = formatCounterRows(stats)
}

// render draws all widgets to the screen.
func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}

func percent(n, of int64) int {
	if of <= 0 || n <= 0 {
		return 0
	}
	p := int(n * 100 / of)
	if p > 100 {
		return 100
	}
	return p
}

func formatCounterRows(stats metrics.LiveStats) []string {
	lost := stats.Sent - stats.Received - stats.Outstanding
	if lost < 0 {
		lost = 0
	}
	rows := []string{
		fmt.Sprintf("[Sent:](fg:white)        %d", stats.Sent),
		fmt.Sprintf("[Received:](fg:white)    [%d](fg:green)", stats.Received),
		fmt.Sprintf("[Outstanding:](fg:white) %d", stats.Outstanding),
	}
	if lost > 0 {
		rows = append(rows, fmt.Sprintf("[Lost so far:](fg:white) [%d](fg:red)", lost))
	}
	if stats.Duplicates > 0 || stats.Unknown > 0 || stats.Malformed > 0 {
		rows = append(rows, fmt.Sprintf("[Dropped:](fg:white)     duplicate %d | unknown %d | malformed %d",
			stats.Duplicates, stats.Unknown, stats.Malformed))
	}
	return rows
}

// formatRunParams formats the run configuration for display.
func (d *Dashboard) formatRunParams() string {
	var parts []string

	if d.runConfig.MaxConcurrent > 0 {
		parts = append(parts, fmt.Sprintf("Max concurrent: %d", d.runConfig.MaxConcurrent))
	}
	if d.runConfig.Total > 0 {
		parts = append(parts, fmt.Sprintf("Total: %d", d.runConfig.Total))
	}
	if d.runConfig.Rate > 0 {
		rate := fmt.Sprintf("Rate: %d/s", d.runConfig.Rate)
		if d.runConfig.Arrival != "" && d.runConfig.Arrival != "uniform" {
			rate += " " + d.runConfig.Arrival
		}
		parts = append(parts, rate)
	} else {
		parts = append(parts, "Rate: unlimited")
	}
	if d.runConfig.GracePeriod > 0 {
		parts = append(parts, fmt.Sprintf("Grace: %s", d.runConfig.GracePeriod))
	}
	if d.runConfig.Output != "" {
		parts = append(parts, fmt.Sprintf("Output: %s", d.runConfig.Output))
	}
	if d.runConfig.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", d.runConfig.ConfigFile))
	}

	return strings.Join(parts, " | ")
}
