package bridge

// Sequencer assigns sequence numbers to outgoing messages and validates
// incoming ones. The two directions count independently. The shared medium
// has no ordering guarantee of its own; this is the sole duplicate and
// reordering protection.
//
// Owned by the tick thread. The I/O worker never touches it; it only relays
// raw envelopes through the bounded queues for the tick thread to validate.
type Sequencer struct {
	lastOut uint64
	lastIn  uint64
}

func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// NextOutgoing returns the next outgoing sequence number. The first call
// returns 1.
func (s *Sequencer) NextOutgoing() uint64 {
	s.lastOut++
	return s.lastOut
}

// AcceptIncoming reports whether seq advances the incoming direction. A
// sequence at or below the last accepted one is a duplicate or stale message;
// it is rejected and state is left unchanged.
func (s *Sequencer) AcceptIncoming(seq uint64) bool {
	if seq <= s.lastIn {
		return false
	}
	s.lastIn = seq
	return true
}

// LastAccepted returns the highest incoming sequence accepted so far.
func (s *Sequencer) LastAccepted() uint64 {
	return s.lastIn
}
