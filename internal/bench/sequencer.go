package bench

// Sequencer hands out request ids 0..total-1, each exactly once and in order.
// It is owned by the sender and is not safe for concurrent use.
type Sequencer struct {
	next  uint64
	total uint64
}

// NewSequencer returns a sequencer producing total ids.
func NewSequencer(total uint32) *Sequencer {
	return &Sequencer{total: uint64(total)}
}

// Next returns the next id, or false once all ids have been issued.
func (s *Sequencer) Next() (uint32, bool) {
	if s.next >= s.total {
		return 0, false
	}
	id := uint32(s.next)
	s.next++
	return id, true
}

// Issued reports how many ids have been handed out.
func (s *Sequencer) Issued() uint32 {
	return uint32(s.next)
}
