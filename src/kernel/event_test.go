package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventWaitUnreadiesAndQueues(t *testing.T) {
	k, _ := newTestKernel(t, testConfig())
	a := spawn(t, k, "a", 4)
	spawn(t, k, "idle", 7)

	var e Event
	e.EventInit(EventSemaphore)

	var slot any
	k.EventWait(&e, a, &slot, 0, Forever)

	assert.True(t, a.linkNode.Linked(), "moved from the ready list onto the event's wait list")
	assert.NotZero(t, a.state&StateWaitEvent)
	assert.Equal(t, 1, e.EventWaitCount())
	assert.False(t, k.bitmap.On(4), "a's ready list is now empty")
}

func TestEventWakeDeliversMessageAndReadies(t *testing.T) {
	k, _ := newTestKernel(t, testConfig())
	a := spawn(t, k, "a", 4)

	var e Event
	e.EventInit(EventSemaphore)
	var slot any
	k.EventWait(&e, a, &slot, 0, Forever)

	woken := k.EventWake(&e, "hello", OK)
	require.Same(t, a, woken)
	assert.Equal(t, "hello", slot)
	assert.Equal(t, OK, a.waitEventResult)
	assert.Zero(t, a.state&StateWaitEvent)
	assert.True(t, a.linkNode.Linked())
}

func TestEventWakeOnEmptyReturnsNil(t *testing.T) {
	k, _ := newTestKernel(t, testConfig())
	var e Event
	e.EventInit(EventSemaphore)
	assert.Nil(t, k.EventWake(&e, nil, OK))
}

func TestEventWakeAllBroadcastsToEveryWaiter(t *testing.T) {
	k, _ := newTestKernel(t, testConfig())
	a := spawn(t, k, "a", 4)
	b := spawn(t, k, "b", 4)

	var e Event
	e.EventInit(EventFlagGroup)
	var slotA, slotB any
	k.EventWait(&e, a, &slotA, 0, Forever)
	k.EventWait(&e, b, &slotB, 0, Forever)

	n := k.EventWakeAll(&e, "bye", Del)
	assert.Equal(t, 2, n)
	assert.Equal(t, Del, a.waitEventResult)
	assert.Equal(t, Del, b.waitEventResult)
	assert.Equal(t, 0, e.EventWaitCount())
}

func TestEventWaitWithTimeoutExpiresViaTick(t *testing.T) {
	k, _ := newTestKernel(t, testConfig())
	a := spawn(t, k, "a", 4)
	spawn(t, k, "idle", 7)

	var e Event
	e.EventInit(EventSemaphore)
	var slot any
	k.EventWait(&e, a, &slot, 0, 3)

	assert.NotZero(t, a.state&StateDelayed)
	for i := 0; i < 2; i++ {
		k.Tick()
	}
	assert.NotZero(t, a.state&StateWaitEvent, "not yet expired")

	k.Tick()
	assert.Zero(t, a.state&StateWaitEvent)
	assert.Zero(t, a.state&StateDelayed)
	assert.Equal(t, Timeout, a.waitEventResult)
	assert.Equal(t, 0, e.EventWaitCount())
}

func TestEventRemoveTaskDetachesUntimedWaiter(t *testing.T) {
	k, _ := newTestKernel(t, testConfig())
	a := spawn(t, k, "a", 4)

	var e Event
	e.EventInit(EventMutex)
	var slot any
	k.EventWait(&e, a, &slot, 0, Forever)

	k.EventRemoveTask(a, "forced", Del)
	assert.Equal(t, "forced", slot)
	assert.Equal(t, Del, a.waitEventResult)
	assert.Zero(t, a.state&StateWaitEvent)
	assert.Nil(t, a.waitEvent)
	assert.True(t, a.linkNode.Linked())
}
