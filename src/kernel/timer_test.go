package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHardTimerFiresAndRepeats(t *testing.T) {
	k, _ := newTestKernel(t, testConfig())
	spawn(t, k, "idle", 7)

	fired := 0
	var tm Timer
	k.TimerInit(&tm, HardTimer, 2, 2, func(any) { fired++ }, nil)
	k.TimerStart(&tm)

	k.Tick()
	assert.Equal(t, 0, fired)
	k.Tick()
	assert.Equal(t, 1, fired)

	info := k.TimerGetInfo(&tm)
	assert.Equal(t, TimerStarted, info.State)
	assert.EqualValues(t, 1, info.FireCount)

	k.Tick()
	k.Tick()
	assert.Equal(t, 2, fired, "duration_ticks > 0 rearms the timer")
}

func TestHardTimerOneShotStopsAfterFiring(t *testing.T) {
	k, _ := newTestKernel(t, testConfig())
	spawn(t, k, "idle", 7)

	var tm Timer
	k.TimerInit(&tm, HardTimer, 1, 0, func(any) {}, nil)
	k.TimerStart(&tm)

	k.Tick()
	info := k.TimerGetInfo(&tm)
	assert.Equal(t, TimerStopped, info.State)
}

func TestTimerStartFallsBackToDurationWhenNoStartDelay(t *testing.T) {
	k, _ := newTestKernel(t, testConfig())
	var tm Timer
	k.TimerInit(&tm, HardTimer, 0, 5, func(any) {}, nil)
	k.TimerStart(&tm)
	assert.EqualValues(t, 5, tm.delayTicks)
}

func TestTimerStopUnlinksHardTimer(t *testing.T) {
	k, _ := newTestKernel(t, testConfig())
	spawn(t, k, "idle", 7)

	fired := 0
	var tm Timer
	k.TimerInit(&tm, HardTimer, 1, 1, func(any) { fired++ }, nil)
	k.TimerStart(&tm)
	k.TimerStop(&tm)

	k.Tick()
	k.Tick()
	assert.Equal(t, 0, fired)
	assert.Equal(t, TimerStopped, k.TimerGetInfo(&tm).State)
}

func TestTimerDestroyMarksDestroyed(t *testing.T) {
	k, _ := newTestKernel(t, testConfig())
	var tm Timer
	k.TimerInit(&tm, HardTimer, 1, 1, func(any) {}, nil)
	k.TimerStart(&tm)
	k.TimerDestroy(&tm)
	assert.Equal(t, TimerDestroyed, k.TimerGetInfo(&tm).State)
}

func TestSoftTimerLinksUnderTimerLock(t *testing.T) {
	k, _ := newTestKernel(t, testConfig())
	var tm Timer
	k.TimerInit(&tm, SoftTimer, 1, 1, func(any) {}, nil)
	k.TimerStart(&tm)

	require.Same(t, &tm, k.softTimers.First())
	assert.EqualValues(t, 1, k.timerLock.count, "the lock is released back to 1 after Start")
}
