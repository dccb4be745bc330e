package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/torosent/udprtt/internal/bench"
	"github.com/torosent/udprtt/internal/config"
	"github.com/torosent/udprtt/internal/dashboard"
	"github.com/torosent/udprtt/internal/logging"
	"github.com/torosent/udprtt/internal/metrics"
	"github.com/torosent/udprtt/internal/output"
	"github.com/torosent/udprtt/internal/threshold"
	"github.com/torosent/udprtt/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

// errNonPositiveRTT reports a clock defect: a reply claimed before its request was stamped.
var errNonPositiveRTT = errors.New("non-positive round-trip times observed")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, stderr)
	if err != nil {
		return err
	}
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	target, err := net.ResolveUDPAddr("udp", cfg.Target)
	if err != nil {
		return fmt.Errorf("resolve target: %w", err)
	}
	conn, err := net.ListenPacket("udp", cfg.Bind)
	if err != nil {
		return fmt.Errorf("bind %s: %w", cfg.Bind, err)
	}
	defer conn.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer scancel()
		if err := provider.Shutdown(sctx); err != nil {
			log.WithError(err).Warn("Trace export shutdown failed")
		}
	}()
	tracer := provider.Tracer()

	collector := metrics.NewCollector()
	r := bench.New(bench.Options{
		Conn:          conn,
		Target:        target,
		MaxConcurrent: cfg.MaxConcurrent,
		Total:         uint32(cfg.Total),
		GracePeriod:   cfg.GracePeriod,
		RatePerSecond: cfg.Rate,
		ArrivalModel:  toBenchArrivalModel(cfg.Arrival),
		Recorder:      collector,
		Logger:        log.WithField("local", conn.LocalAddr().String()),
		Tracer:        tracer,
	})
	collector.TrackOutstanding(r.Outstanding)

	runCtx, runSpan := tracing.StartPhaseSpan(ctx, tracer, tracing.SpanRun,
		attribute.String("udprtt.run_id", r.ID().String()),
		attribute.String("udprtt.target", target.String()),
		attribute.Int("udprtt.max_concurrent", cfg.MaxConcurrent),
		attribute.Int64("udprtt.total", cfg.Total),
	)

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(collector, dashboard.RunConfig{
			Target:        target.String(),
			MaxConcurrent: cfg.MaxConcurrent,
			Total:         cfg.Total,
			Rate:          cfg.Rate,
			Arrival:       string(cfg.Arrival),
			GracePeriod:   cfg.GracePeriod,
			Output:        cfg.Output,
			ConfigFile:    cfg.ConfigFile,
		}, cancel)
		if err != nil {
			tracing.EndSpan(runSpan, err)
			return err
		}
		dash.Start()
	}

	var progress *output.ProgressReporter
	if cfg.Progress && !cfg.Dashboard && cfg.Format == config.FormatText {
		progress = output.NewProgressReporter(collector, progressInterval, stderr)
		progress.Start()
	}

	collector.Start()
	result, runErr := r.Run(runCtx)

	if progress != nil {
		progress.Stop()
	}
	if dash != nil {
		dash.Stop()
	}

	_, reportSpan := tracing.StartPhaseSpan(runCtx, tracer, tracing.SpanReport)
	summary := metrics.Summarize(int(result.Total), result.RTTs())
	live := collector.Stats()
	report := output.Report{
		RunID:           result.RunID.String(),
		Target:          target.String(),
		MaxConcurrent:   cfg.MaxConcurrent,
		Sent:            int(result.Sent),
		PeakOutstanding: result.PeakOutstanding,
		Duplicates:      live.Duplicates,
		Unknown:         live.Unknown,
		Malformed:       live.Malformed,
		Duration:        result.Duration,
		Summary:         summary,
	}
	if summary.NonPositive > 0 {
		log.WithField("count", summary.NonPositive).Error("Non-positive round-trip times excluded from statistics")
	}

	printErr := printReport(stdout, cfg.Format, report)
	writeErr := output.WriteDetailFile(cfg.Output, result.Start, result.Records)
	if writeErr == nil {
		log.WithFields(logrus.Fields{"path": cfg.Output, "rows": len(result.Records)}).Info("Detail report written")
	}

	results := threshold.NewEvaluator(thresholds).Evaluate(summary)
	for _, res := range results {
		fmt.Fprintln(stdout, res.Message)
	}

	err = firstError(
		runErr,
		printErr,
		wrapf(writeErr, "write detail report"),
		nonPositiveError(summary),
		thresholdError(results),
	)
	tracing.EndSpan(reportSpan, errors.Join(printErr, writeErr),
		attribute.Int("udprtt.received", summary.Received),
		attribute.Int("udprtt.lost", summary.Lost),
	)
	tracing.EndSpan(runSpan, err)
	return err
}

func printReport(w io.Writer, format config.OutputFormat, report output.Report) error {
	switch format {
	case config.FormatJSON:
		return output.PrintJSONReport(w, report)
	case config.FormatYAML:
		return output.PrintYAMLReport(w, report)
	default:
		output.PrintSummaryLine(w, report.Summary)
		output.PrintReport(w, report)
		return nil
	}
}

func toBenchArrivalModel(m config.ArrivalModel) bench.ArrivalModel {
	switch m {
	case config.ArrivalModelPoisson:
		return bench.ArrivalModelPoisson
	default:
		return bench.ArrivalModelUniform
	}
}

func nonPositiveError(s metrics.Summary) error {
	if s.NonPositive == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d", errNonPositiveRTT, s.NonPositive)
}

func thresholdError(results []threshold.Result) error {
	if threshold.AllPassed(results) {
		return nil
	}
	failed := 0
	for _, r := range results {
		if !r.Pass {
			failed++
		}
	}
	return fmt.Errorf("%d of %d thresholds failed", failed, len(results))
}

func wrapf(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
