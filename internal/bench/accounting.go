package bench

import (
	"sync"
	"time"
)

// ClaimResult describes what happened when a reply was matched against the store.
type ClaimResult int

const (
	// ClaimUnknown means no request with that id was ever recorded.
	ClaimUnknown ClaimResult = iota
	// ClaimAccepted means the reply completed its request and released the permit.
	ClaimAccepted
	// ClaimDuplicate means the request was already completed by an earlier reply.
	ClaimDuplicate
)

func (c ClaimResult) String() string {
	switch c {
	case ClaimAccepted:
		return "accepted"
	case ClaimDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// maxPreallocatedEntries bounds the initial map size for very large runs.
const maxPreallocatedEntries = 1 << 20

type entry struct {
	sentAt     time.Time
	receivedAt time.Time
	permit     *Permit
}

// Store maps request ids to their timing and permit ownership.
// A single mutex guards every read and write.
type Store struct {
	mu      sync.Mutex
	entries map[uint32]*entry
}

// Record is an immutable copy of one accounting entry. SentAt is zero for ids
// never transmitted; ReceivedAt is zero for requests without a matching reply.
type Record struct {
	ID         uint32
	SentAt     time.Time
	ReceivedAt time.Time
}

// NewStore creates an empty store sized for roughly sizeHint entries.
func NewStore(sizeHint int) *Store {
	if sizeHint < 0 {
		sizeHint = 0
	}
	if sizeHint > maxPreallocatedEntries {
		sizeHint = maxPreallocatedEntries
	}
	return &Store{entries: make(map[uint32]*entry, sizeHint)}
}

// Insert records a request that is about to be transmitted. It must be called
// before the datagram leaves so that a reply can always find its entry.
func (s *Store) Insert(id uint32, sentAt time.Time, permit *Permit) {
	s.mu.Lock()
	s.entries[id] = &entry{sentAt: sentAt, permit: permit}
	s.mu.Unlock()
}

// Claim matches a reply for id received at the given time. Only the first
// claim of a recorded id is accepted: it sets the receive time and releases
// the permit. The returned duration is the round trip for accepted claims.
func (s *Store) Claim(id uint32, at time.Time) (time.Duration, ClaimResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return 0, ClaimUnknown
	}
	if e.permit == nil {
		return 0, ClaimDuplicate
	}
	e.receivedAt = at
	e.permit.Release()
	e.permit = nil
	return at.Sub(e.sentAt), ClaimAccepted
}

// Len returns the number of recorded requests.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Snapshot returns one record per id in [0, total), ordered by id.
func (s *Store) Snapshot(total uint32) []Record {
	records := make([]Record, total)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range records {
		id := uint32(i)
		records[i].ID = id
		if e, ok := s.entries[id]; ok {
			records[i].SentAt = e.sentAt
			records[i].ReceivedAt = e.receivedAt
		}
	}
	return records
}

// Sent reports whether the request was transmitted.
func (r Record) Sent() bool {
	return !r.SentAt.IsZero()
}

// Received reports whether a matching reply was claimed.
func (r Record) Received() bool {
	return !r.ReceivedAt.IsZero()
}

// RTT returns the round-trip time for received requests.
func (r Record) RTT() (time.Duration, bool) {
	if !r.Sent() || !r.Received() {
		return 0, false
	}
	return r.ReceivedAt.Sub(r.SentAt), true
}
