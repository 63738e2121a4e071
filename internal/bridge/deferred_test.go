package bridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sim-bridge/internal/config"
	"sim-bridge/internal/host"
)

func TestDeferredScheduler_FiresAfterSettleDelay(t *testing.T) {
	start := time.Now()
	sched := host.NewTickScheduler(start)
	delays := config.SettleDelays{
		Default: 300 * time.Millisecond,
		Actions: map[string]time.Duration{"play_hand": 800 * time.Millisecond},
	}

	var fired []*DeferredTask
	var firedAt time.Time
	d := NewDeferredScheduler(discardLogger(), sched, delays, func(task *DeferredTask, now time.Time) bool {
		fired = append(fired, task)
		firedAt = now
		return true
	})

	task := d.Schedule("play_hand", 5, true, start)
	assert.Equal(t, "scheduled", task.State())
	assert.Equal(t, 800*time.Millisecond, task.Delay)

	sched.Advance(start.Add(500 * time.Millisecond))
	assert.Empty(t, fired, "must not fire before the settle delay elapsed")

	sched.Advance(start.Add(900 * time.Millisecond))
	assert.Len(t, fired, 1)
	assert.Equal(t, uint64(5), fired[0].PendingSeq)
	assert.True(t, fired[0].Correlated)
	assert.Equal(t, start.Add(900*time.Millisecond), firedAt, "callback sees the host time it fired at")
	assert.Equal(t, "delivered", task.State())
}

func TestDeferredScheduler_UnknownActionUsesDefaultDelay(t *testing.T) {
	start := time.Now()
	sched := host.NewTickScheduler(start)
	delays := config.DefaultSettleDelays()

	d := NewDeferredScheduler(discardLogger(), sched, delays, func(*DeferredTask, time.Time) bool { return true })
	task := d.Schedule("mystery_action", 0, false, start)
	assert.Equal(t, delays.Default, task.Delay)
}

func TestDeferredScheduler_UndeliveredStaysFired(t *testing.T) {
	start := time.Now()
	sched := host.NewTickScheduler(start)

	d := NewDeferredScheduler(discardLogger(), sched, config.DefaultSettleDelays(), func(*DeferredTask, time.Time) bool {
		return false // transport dropped it
	})
	task := d.Schedule("discard", 2, true, start)

	sched.Advance(start.Add(time.Second))
	assert.Equal(t, "fired", task.State())
}

func TestDeferredScheduler_AbandonedTaskNeverFires(t *testing.T) {
	start := time.Now()
	sched := host.NewTickScheduler(start)

	called := false
	d := NewDeferredScheduler(discardLogger(), sched, config.DefaultSettleDelays(), func(*DeferredTask, time.Time) bool {
		called = true
		return true
	})
	task := d.Schedule("play_hand", 9, true, start)

	// The host never advances past the delay (state transition discarded the
	// timer). The task is abandoned with no recovery.
	sched.Advance(start.Add(100 * time.Millisecond))
	assert.False(t, called)
	assert.Equal(t, "scheduled", task.State())
}
