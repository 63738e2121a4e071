package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequencer_NextOutgoingStartsAtOne(t *testing.T) {
	s := NewSequencer()

	assert.Equal(t, uint64(1), s.NextOutgoing())
	assert.Equal(t, uint64(2), s.NextOutgoing())
	assert.Equal(t, uint64(3), s.NextOutgoing())
}

func TestSequencer_NextOutgoingUnique(t *testing.T) {
	s := NewSequencer()

	seen := make(map[uint64]bool)
	for i := 0; i < 1000; i++ {
		seq := s.NextOutgoing()
		assert.False(t, seen[seq], "seq %d issued twice", seq)
		seen[seq] = true
	}
}

func TestSequencer_AcceptIncomingInOrder(t *testing.T) {
	s := NewSequencer()

	assert.True(t, s.AcceptIncoming(1))
	assert.True(t, s.AcceptIncoming(2))
	assert.True(t, s.AcceptIncoming(5), "gaps are fine, only monotonicity matters")
	assert.Equal(t, uint64(5), s.LastAccepted())
}

func TestSequencer_RejectsDuplicate(t *testing.T) {
	s := NewSequencer()

	assert.True(t, s.AcceptIncoming(5))
	assert.False(t, s.AcceptIncoming(5), "same sequence must never be accepted twice")
	assert.Equal(t, uint64(5), s.LastAccepted())
}

func TestSequencer_RejectsStale(t *testing.T) {
	s := NewSequencer()

	assert.True(t, s.AcceptIncoming(7))
	assert.False(t, s.AcceptIncoming(3))
	assert.False(t, s.AcceptIncoming(6))
	assert.Equal(t, uint64(7), s.LastAccepted(), "rejection leaves state unchanged")
}

func TestSequencer_EitherArrivalOrderAcceptsEachAtMostOnce(t *testing.T) {
	// Ascending arrival: both accepted.
	s := NewSequencer()
	assert.True(t, s.AcceptIncoming(1))
	assert.True(t, s.AcceptIncoming(2))

	// Descending arrival: the later sequence wins, the stale one is discarded
	// and neither is ever accepted twice.
	s = NewSequencer()
	assert.True(t, s.AcceptIncoming(2))
	assert.False(t, s.AcceptIncoming(1))
	assert.False(t, s.AcceptIncoming(2))
}

func TestSequencer_ZeroNeverAccepted(t *testing.T) {
	s := NewSequencer()
	assert.False(t, s.AcceptIncoming(0))
}
