package bench

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStoreClaimExactlyOnce(t *testing.T) {
	a := NewAdmission(1)
	s := NewStore(1)
	permit, err := a.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	sent := time.Now()
	s.Insert(7, sent, permit)

	received := sent.Add(5 * time.Millisecond)
	rtt, result := s.Claim(7, received)
	if result != ClaimAccepted {
		t.Fatalf("Claim() = %s, want accepted", result)
	}
	if rtt != 5*time.Millisecond {
		t.Errorf("rtt = %s, want 5ms", rtt)
	}
	if a.Outstanding() != 0 {
		t.Fatalf("Outstanding() = %d, want 0 after claim", a.Outstanding())
	}

	_, result = s.Claim(7, received.Add(time.Second))
	if result != ClaimDuplicate {
		t.Fatalf("second Claim() = %s, want duplicate", result)
	}

	records := s.Snapshot(8)
	if !records[7].ReceivedAt.Equal(received) {
		t.Errorf("ReceivedAt = %v, want first claim time %v", records[7].ReceivedAt, received)
	}
	if a.Outstanding() != 0 {
		t.Errorf("Outstanding() = %d after duplicate, want 0", a.Outstanding())
	}
}

func TestStoreClaimUnknown(t *testing.T) {
	s := NewStore(0)
	if _, result := s.Claim(99, time.Now()); result != ClaimUnknown {
		t.Fatalf("Claim() = %s, want unknown", result)
	}
	if s.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", s.Len())
	}
}

func TestStoreConcurrentDuplicateClaims(t *testing.T) {
	a := NewAdmission(1)
	s := NewStore(1)
	permit, _ := a.Acquire(context.Background())
	s.Insert(0, time.Now(), permit)

	var accepted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, result := s.Claim(0, time.Now()); result == ClaimAccepted {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	if accepted.Load() != 1 {
		t.Fatalf("accepted claims = %d, want 1", accepted.Load())
	}
	if a.Outstanding() != 0 {
		t.Fatalf("Outstanding() = %d, want 0", a.Outstanding())
	}
}

func TestStoreSnapshotIsDense(t *testing.T) {
	s := NewStore(4)
	now := time.Now()
	s.Insert(1, now, nil)
	s.Insert(3, now, nil)

	records := s.Snapshot(5)
	if len(records) != 5 {
		t.Fatalf("len(Snapshot) = %d, want 5", len(records))
	}
	for i, rec := range records {
		if rec.ID != uint32(i) {
			t.Fatalf("records[%d].ID = %d", i, rec.ID)
		}
		wantSent := i == 1 || i == 3
		if rec.Sent() != wantSent {
			t.Errorf("records[%d].Sent() = %v, want %v", i, rec.Sent(), wantSent)
		}
		if rec.Received() {
			t.Errorf("records[%d].Received() = true, want false", i)
		}
		if _, ok := rec.RTT(); ok {
			t.Errorf("records[%d].RTT() reported a value for a lost request", i)
		}
	}
}
