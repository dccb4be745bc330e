package bench

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Admission caps the number of requests that may be outstanding at once.
type Admission struct {
	sem         *semaphore.Weighted
	capacity    int64
	outstanding atomic.Int64
	peak        atomic.Int64
}

// Permit is one in-flight slot. It is owned by a single accounting entry until
// the matching reply is claimed.
type Permit struct {
	pool     *Admission
	released atomic.Bool
}

// NewAdmission creates a controller with the given capacity (minimum 1).
func NewAdmission(capacity int) *Admission {
	if capacity < 1 {
		capacity = 1
	}
	return &Admission{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: int64(capacity),
	}
}

// Acquire blocks until a slot is free or ctx is done.
func (a *Admission) Acquire(ctx context.Context) (*Permit, error) {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	n := a.outstanding.Add(1)
	for {
		peak := a.peak.Load()
		if n <= peak || a.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	return &Permit{pool: a}, nil
}

// Capacity returns the configured number of slots.
func (a *Admission) Capacity() int64 {
	return a.capacity
}

// Outstanding returns the number of acquired, unreleased permits.
func (a *Admission) Outstanding() int64 {
	return a.outstanding.Load()
}

// Peak returns the highest Outstanding value observed so far.
func (a *Admission) Peak() int64 {
	return a.peak.Load()
}

// Release returns the slot to its pool. Only the first call has an effect.
func (p *Permit) Release() {
	if p == nil || p.pool == nil {
		return
	}
	if !p.released.CompareAndSwap(false, true) {
		return
	}
	// Decrement before handing the slot back so Outstanding never exceeds capacity.
	p.pool.outstanding.Add(-1)
	p.pool.sem.Release(1)
}

// Released reports whether Release has been called.
func (p *Permit) Released() bool {
	return p != nil && p.released.Load()
}
