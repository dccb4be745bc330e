package bench

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/torosent/udprtt/internal/tracing"
)

// ErrMissingTransport is returned by Run when Conn or Target is not set.
var ErrMissingTransport = errors.New("bench: conn and target are required")

// Result captures a finished run. Records holds exactly Total entries, one per id.
type Result struct {
	RunID           ulid.ULID
	Total           uint32
	Sent            uint32
	Records         []Record
	Start           time.Time
	Duration        time.Duration
	PeakOutstanding int64
}

// Runner coordinates the sender and receiver tasks of one benchmark run.
type Runner struct {
	opt       Options
	id        ulid.ULID
	admission *Admission
	store     *Store
	shutdown  *Shutdown
	log       logrus.FieldLogger
}

func New(opt Options) *Runner {
	opt.normalize()
	id := ulid.Make()
	return &Runner{
		opt:       opt,
		id:        id,
		admission: NewAdmission(opt.MaxConcurrent),
		store:     NewStore(int(opt.Total)),
		shutdown:  NewShutdown(),
		log:       opt.Logger.WithField("run_id", id.String()),
	}
}

// ID returns the identifier of this run.
func (r *Runner) ID() ulid.ULID {
	return r.id
}

// Outstanding returns the number of requests currently awaiting a reply.
func (r *Runner) Outstanding() int64 {
	return r.admission.Outstanding()
}

// Capacity returns the admission limit.
func (r *Runner) Capacity() int64 {
	return r.admission.Capacity()
}

// Run executes the benchmark. It returns once the shutdown signal has fired and
// both tasks have stopped. The Result is populated even when err is non-nil so
// partial runs can still be reported. A Runner must not be reused.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.opt.Conn == nil || r.opt.Target == nil {
		return Result{RunID: r.id, Total: r.opt.Total, Records: r.store.Snapshot(r.opt.Total)}, ErrMissingTransport
	}

	r.log.WithFields(logrus.Fields{
		"target":         r.opt.Target.String(),
		"total":          r.opt.Total,
		"max_concurrent": r.opt.MaxConcurrent,
		"grace_period":   r.opt.GracePeriod,
		"rate":           r.opt.RatePerSecond,
	}).Info("Starting run")

	start := time.Now()

	snd := &sender{
		conn:      r.opt.Conn,
		target:    r.opt.Target,
		seq:       NewSequencer(r.opt.Total),
		admission: r.admission,
		store:     r.store,
		arrival:   newArrivalController(r.opt),
		grace:     r.opt.GracePeriod,
		shutdown:  r.shutdown,
		recorder:  r.opt.Recorder,
		log:       r.log,
	}
	rcv := &receiver{
		store:    r.store,
		shutdown: r.shutdown,
		recorder: r.opt.Recorder,
		log:      r.log,
	}
	reader := &socketReader{conn: r.opt.Conn, recorder: r.opt.Recorder}

	replies := make(chan reply, replyQueueSize)
	readErr := make(chan error, 1)
	stop := make(chan struct{})
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		reader.read(replies, readErr, stop)
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sctx, span := tracing.StartPhaseSpan(gctx, r.opt.Tracer, tracing.SpanSend)
		err := snd.run(sctx)
		tracing.EndSpan(span, err, attribute.Int64("udprtt.sent", int64(snd.sent.Load())))
		return err
	})
	g.Go(func() error {
		_, span := tracing.StartPhaseSpan(gctx, r.opt.Tracer, tracing.SpanReceive)
		err := rcv.run(replies, readErr)
		tracing.EndSpan(span, err,
			attribute.Int64("udprtt.accepted", rcv.accepted),
			attribute.Int64("udprtt.duplicates", rcv.duplicates),
			attribute.Int64("udprtt.unknown", rcv.unknown),
		)
		return err
	})
	err := g.Wait()

	close(stop)
	_ = r.opt.Conn.SetReadDeadline(time.Now())
	<-readerDone
	_ = r.opt.Conn.SetReadDeadline(time.Time{})

	result := Result{
		RunID:           r.id,
		Total:           r.opt.Total,
		Sent:            snd.sent.Load(),
		Records:         r.store.Snapshot(r.opt.Total),
		Start:           start,
		Duration:        time.Since(start),
		PeakOutstanding: r.admission.Peak(),
	}

	entry := r.log.WithFields(logrus.Fields{
		"sent":     result.Sent,
		"received": result.Received(),
		"duration": result.Duration,
	})
	if err != nil {
		entry.WithError(err).Warn("Run aborted")
	} else {
		entry.Info("Run complete")
	}
	return result, err
}

// Received counts records with a claimed reply.
func (r Result) Received() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Received() {
			n++
		}
	}
	return n
}

// RTTs returns the round-trip time of every received request, in id order.
func (r Result) RTTs() []time.Duration {
	rtts := make([]time.Duration, 0, len(r.Records))
	for _, rec := range r.Records {
		if rtt, ok := rec.RTT(); ok {
			rtts = append(rtts, rtt)
		}
	}
	return rtts
}
