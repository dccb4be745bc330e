package bench

import (
	"context"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestPoissonArrivalNextDelayUsesSampler(t *testing.T) {
	ctrl := &poissonArrival{rate: 200, sample: func() float64 { return 1 }}
	delay := ctrl.nextDelay()
	expected := time.Second / 200
	if delay != expected {
		t.Fatalf("expected delay %s, got %s", expected, delay)
	}
}

func TestPoissonArrivalWaitCancelledContext(t *testing.T) {
	ctrl := &poissonArrival{rate: 0.000001, sample: func() float64 { return 1 }}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ctrl.Wait(ctx); err == nil {
		t.Fatalf("expected context error when cancelled")
	}
}

func TestNewArrivalControllerUnpaced(t *testing.T) {
	opts := Options{}
	opts.normalize()
	if ctrl := newArrivalController(opts); ctrl != nil {
		t.Fatalf("expected nil controller without a rate, got %T", ctrl)
	}
}

func TestNewArrivalControllerModels(t *testing.T) {
	uniform := Options{RatePerSecond: 50}
	uniform.normalize()
	if _, ok := newArrivalController(uniform).(*uniformArrival); !ok {
		t.Fatal("expected uniform controller by default")
	}

	poisson := Options{RatePerSecond: 50, ArrivalModel: ArrivalModelPoisson}
	poisson.normalize()
	if _, ok := newArrivalController(poisson).(*poissonArrival); !ok {
		t.Fatal("expected poisson controller")
	}
}

func TestOptionsNormalize(t *testing.T) {
	opts := Options{MaxConcurrent: -3, GracePeriod: -time.Second, RatePerSecond: -1}
	opts.normalize()
	if opts.MaxConcurrent != 1 {
		t.Errorf("MaxConcurrent = %d, want 1", opts.MaxConcurrent)
	}
	if opts.GracePeriod != 0 {
		t.Errorf("GracePeriod = %s, want 0", opts.GracePeriod)
	}
	if opts.RatePerSecond != 0 {
		t.Errorf("RatePerSecond = %d, want 0", opts.RatePerSecond)
	}
	if opts.ArrivalModel != ArrivalModelUniform {
		t.Errorf("ArrivalModel = %q, want %q", opts.ArrivalModel, ArrivalModelUniform)
	}
	if opts.Recorder == nil || opts.Logger == nil {
		t.Error("Recorder and Logger should default to no-op implementations")
	}
	if limiter := opts.LimiterFactory(0); limiter.Limit() != rate.Inf {
		t.Errorf("Limit(0) = %v, want Inf", limiter.Limit())
	}
}
