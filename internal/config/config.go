// Package config loads benchmark settings from flags and an optional config file.
package config

import (
	"fmt"
	"math"
	"net"
	"strings"
	"time"
)

const (
	DefaultTarget        = "127.0.0.1:9191"
	DefaultBind          = "0.0.0.0:0"
	DefaultMaxConcurrent = 1000
	DefaultTotal         = 1000000
	DefaultOutput        = "out.csv"
	DefaultGracePeriod   = 3 * time.Second
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"

	// MaxTotal is the number of distinct 32-bit request ids.
	MaxTotal = math.MaxUint32
)

type ArrivalModel string

const (
	ArrivalModelUniform ArrivalModel = "uniform"
	ArrivalModelPoisson ArrivalModel = "poisson"
)

type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
)

type Config struct {
	Target        string        `mapstructure:"target"`
	Bind          string        `mapstructure:"bind"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`
	Total         int64         `mapstructure:"total"`
	Output        string        `mapstructure:"output"`
	GracePeriod   time.Duration `mapstructure:"grace_period"`
	Rate          int           `mapstructure:"rate"`
	Arrival       ArrivalModel  `mapstructure:"arrival"`
	Format        OutputFormat  `mapstructure:"format"`
	Dashboard     bool          `mapstructure:"dashboard"`
	Progress      bool          `mapstructure:"progress"`
	Thresholds    []string      `mapstructure:"thresholds"`
	LogLevel      string        `mapstructure:"log_level"`
	LogFormat     string        `mapstructure:"log_format"`
	Tracing       TracingConfig `mapstructure:"tracing"`
	ConfigFile    string        `mapstructure:"-"`
}

// TracingConfig configures OTLP trace export. Tracing is disabled when
// Endpoint is empty.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
}

func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != ""
}

// Default returns a Config populated with the built-in defaults.
func Default() Config {
	return Config{
		Target:        DefaultTarget,
		Bind:          DefaultBind,
		MaxConcurrent: DefaultMaxConcurrent,
		Total:         DefaultTotal,
		Output:        DefaultOutput,
		GracePeriod:   DefaultGracePeriod,
		Arrival:       ArrivalModelUniform,
		Format:        FormatText,
		Progress:      true,
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
		Tracing: TracingConfig{
			Protocol:    "grpc",
			ServiceName: "udprtt",
			SampleRate:  1.0,
		},
	}
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.Target) == "" {
		issues = append(issues, "target is required")
	} else if _, err := net.ResolveUDPAddr("udp", c.Target); err != nil {
		issues = append(issues, fmt.Sprintf("target %q: %v", c.Target, err))
	}
	if strings.TrimSpace(c.Bind) == "" {
		issues = append(issues, "bind is required")
	} else if _, err := net.ResolveUDPAddr("udp", c.Bind); err != nil {
		issues = append(issues, fmt.Sprintf("bind %q: %v", c.Bind, err))
	}

	if c.MaxConcurrent < 1 {
		issues = append(issues, "max-concurrent must be >= 1")
	}
	if c.Total < 1 {
		issues = append(issues, "total must be >= 1")
	}
	if c.Total > MaxTotal {
		issues = append(issues, fmt.Sprintf("total must be <= %d", uint64(MaxTotal)))
	}
	if c.GracePeriod < 0 {
		issues = append(issues, "grace-period must be >= 0")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if strings.TrimSpace(c.Output) == "" {
		issues = append(issues, "output is required")
	}

	switch c.Arrival {
	case "", ArrivalModelUniform, ArrivalModelPoisson:
	default:
		issues = append(issues, fmt.Sprintf("arrival model %q is not supported (use uniform or poisson)", c.Arrival))
	}
	if c.Arrival == ArrivalModelPoisson && c.Rate == 0 {
		issues = append(issues, "poisson arrival requires rate > 0")
	}

	switch c.Format {
	case "", FormatText, FormatJSON, FormatYAML:
	default:
		issues = append(issues, fmt.Sprintf("format %q is not supported (use text, json or yaml)", c.Format))
	}
	if c.Dashboard && c.Format != "" && c.Format != FormatText {
		issues = append(issues, "dashboard requires text format")
	}

	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		issues = append(issues, fmt.Sprintf("log format %q is not supported (use text or json)", c.LogFormat))
	}

	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

// Warnings returns advisory messages for settings that are valid but risky.
func (c Config) Warnings() []string {
	var warnings []string
	if c.MaxConcurrent > 10000 {
		warnings = append(warnings, fmt.Sprintf("High concurrency configured (%d in-flight requests). Replies may be dropped by socket buffers.", c.MaxConcurrent))
	}
	if c.Rate > 100000 {
		warnings = append(warnings, fmt.Sprintf("High rate limit configured (%d RPS). Ensure you have authorization to test the target system.", c.Rate))
	}
	if c.GracePeriod == 0 {
		warnings = append(warnings, "Grace period is zero; replies still in flight when sending completes will be counted as lost.")
	}
	return warnings
}

func validateTracingConfig(t TracingConfig) []string {
	if !t.Enabled() {
		return nil
	}
	var issues []string
	switch strings.ToLower(t.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing protocol %q is not supported (use grpc or http)", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, "tracing sample rate must be between 0 and 1")
	}
	return issues
}
