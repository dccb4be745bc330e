package bench

import (
	"io"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/time/rate"
)

// DefaultGracePeriod is how long the sender waits for late replies after the
// last request has been transmitted.
const DefaultGracePeriod = 3 * time.Second

// ArrivalModel selects how paced requests are spaced.
type ArrivalModel string

const (
	ArrivalModelUniform ArrivalModel = "uniform"
	ArrivalModelPoisson ArrivalModel = "poisson"
)

// Recorder receives per-datagram events. Implementations must be safe for
// concurrent use because the sender and receiver report independently.
type Recorder interface {
	RecordSent()
	RecordReply(rtt time.Duration)
	RecordDuplicate()
	RecordUnknown()
	RecordMalformed()
}

// Options configure the Runner.
type Options struct {
	Conn           net.PacketConn              // bound socket used for both directions (required)
	Target         net.Addr                    // echo target address (required)
	MaxConcurrent  int                         // admission capacity (minimum 1)
	Total          uint32                      // number of requests to send
	GracePeriod    time.Duration               // wait after the send phase before shutdown (0 means none)
	RatePerSecond  int                         // requests per second pacing (0 means unpaced)
	ArrivalModel   ArrivalModel                // pacing model when RatePerSecond > 0
	RandomSeed     int64                       // seed for the poisson sampler
	PoissonSampler func() float64              // optional injection for tests
	LimiterFactory func(rps int) *rate.Limiter // optional injection for tests
	Recorder       Recorder                    // optional live metrics sink
	Logger         logrus.FieldLogger          // optional logger
	Tracer         trace.Tracer                // optional; spans the send and receive phases
}

func (o *Options) normalize() {
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 1
	}
	if o.GracePeriod < 0 {
		o.GracePeriod = 0
	}
	if o.RatePerSecond < 0 {
		o.RatePerSecond = 0
	}
	if o.ArrivalModel == "" {
		o.ArrivalModel = ArrivalModelUniform
	}
	if o.RandomSeed == 0 {
		o.RandomSeed = time.Now().UnixNano()
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			return rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
	if o.Recorder == nil {
		o.Recorder = nopRecorder{}
	}
	if o.Tracer == nil {
		o.Tracer = noop.NewTracerProvider().Tracer("")
	}
	if o.Logger == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		o.Logger = logger
	}
}

type nopRecorder struct{}

func (nopRecorder) RecordSent()                 {}
func (nopRecorder) RecordReply(_ time.Duration) {}
func (nopRecorder) RecordDuplicate()            {}
func (nopRecorder) RecordUnknown()              {}
func (nopRecorder) RecordMalformed()            {}
