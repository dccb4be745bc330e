package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "udprtt",
		Short:         "Measure UDP round-trip latency against an echo target",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Target flags
	flags.StringP("target", "t", DefaultTarget, "Echo target address (host:port)")
	flags.String("bind", DefaultBind, "Local address to bind the benchmark socket to")

	// Load control flags
	flags.IntP("max-concurrent", "m", DefaultMaxConcurrent, "Maximum number of requests awaiting a reply")
	flags.Int64P("total", "T", DefaultTotal, "Total number of requests to send")
	flags.Duration("grace-period", DefaultGracePeriod, "How long to wait for late replies after the last request is sent")
	flags.IntP("rate", "r", 0, "Requests per second limit (0 means unlimited)")
	flags.String("arrival-model", string(ArrivalModelUniform), "Arrival model to use when pacing requests (uniform or poisson)")

	// Output flags
	flags.StringP("output", "o", DefaultOutput, "Path of the per-request CSV report")
	flags.String("format", string(FormatText), "Summary format: text, json or yaml")
	flags.Bool("dashboard", false, "Show live terminal dashboard with metrics")
	flags.Bool("progress", true, "Show a live progress line on stderr (text format only)")
	flags.String("config", "", "Path to configuration file (JSON, YAML or TOML)")

	// Logging flags
	flags.String("log-level", DefaultLogLevel, "Log level: trace, debug, info, warn, error")
	flags.String("log-format", DefaultLogFormat, "Log format: text or json")

	// Threshold flags
	flags.StringSlice("threshold", nil, "Pass/fail thresholds (repeatable, e.g., 'rtt:p99 < 5')")

	// Tracing flags
	flags.String("tracing-endpoint", "", "OTLP collector endpoint (tracing disabled when empty)")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.String("tracing-service-name", "udprtt", "Service name reported in traces")
	flags.Float64("tracing-sample-rate", 1.0, "Fraction of runs to trace (0..1)")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\n%s\n\nFlags:\n", cmd.UseLine(), cmd.Short)
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("target") {
		val, err := fs.GetString("target")
		if err != nil {
			return err
		}
		cfg.Target = strings.TrimSpace(val)
	}
	if fs.Changed("bind") {
		val, err := fs.GetString("bind")
		if err != nil {
			return err
		}
		cfg.Bind = strings.TrimSpace(val)
	}
	if fs.Changed("max-concurrent") {
		val, err := fs.GetInt("max-concurrent")
		if err != nil {
			return err
		}
		cfg.MaxConcurrent = val
	}
	if fs.Changed("total") {
		val, err := fs.GetInt64("total")
		if err != nil {
			return err
		}
		cfg.Total = val
	}
	if fs.Changed("grace-period") {
		val, err := fs.GetDuration("grace-period")
		if err != nil {
			return err
		}
		cfg.GracePeriod = val
	}
	if fs.Changed("rate") {
		val, err := fs.GetInt("rate")
		if err != nil {
			return err
		}
		cfg.Rate = val
	}
	if fs.Changed("arrival-model") {
		val, err := fs.GetString("arrival-model")
		if err != nil {
			return err
		}
		cfg.Arrival = ArrivalModel(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("output") {
		val, err := fs.GetString("output")
		if err != nil {
			return err
		}
		cfg.Output = strings.TrimSpace(val)
	}
	if fs.Changed("format") {
		val, err := fs.GetString("format")
		if err != nil {
			return err
		}
		cfg.Format = OutputFormat(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("dashboard") {
		val, err := fs.GetBool("dashboard")
		if err != nil {
			return err
		}
		cfg.Dashboard = val
	}
	if fs.Changed("progress") {
		val, err := fs.GetBool("progress")
		if err != nil {
			return err
		}
		cfg.Progress = val
	}
	if fs.Changed("log-level") {
		val, err := fs.GetString("log-level")
		if err != nil {
			return err
		}
		cfg.LogLevel = strings.TrimSpace(val)
	}
	if fs.Changed("log-format") {
		val, err := fs.GetString("log-format")
		if err != nil {
			return err
		}
		cfg.LogFormat = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}

	if fs.Changed("tracing-endpoint") {
		val, err := fs.GetString("tracing-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-protocol") {
		val, err := fs.GetString("tracing-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("tracing-service-name") {
		val, err := fs.GetString("tracing-service-name")
		if err != nil {
			return err
		}
		cfg.Tracing.ServiceName = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	if fs.Changed("tracing-insecure") {
		val, err := fs.GetBool("tracing-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}

	return nil
}
