package kernel

// EventType tags what kind of higher-level object owns an Event, purely for
// diagnostics (semaphore/mailbox/mutex/flag-group/unknown). The higher-level
// objects themselves are out of scope; meridian's own tests build
// semaphore-shaped waits directly on top of Event to exercise timed-wait and
// broadcast scenarios.
type EventType uint8

const (
	EventUnknown EventType = iota
	EventSemaphore
	EventMailbox
	EventMutex
	EventFlagGroup
)

// Forever means wait with no time bound: a zero timeout to EventWait, made
// explicit as its own named constant rather than overloading 0.
const Forever uint32 = 0

// Event is the generic wait queue every blocking synchronization object is
// built on. Its wait-list length always equals the number of tasks whose
// waitEvent points at it (enforced by construction: the only ways to join
// or leave the list are the four operations below).
type Event struct {
	Type     EventType
	waitList List[TCB]
}

// EventInit prepares an empty event of the given type.
func (e *Event) EventInit(t EventType) {
	e.Type = t
	e.waitList.Init()
}

// EventWaitCount returns the current queue length.
func (e *Event) EventWaitCount() int { return e.waitList.Count() }

// EventWait unlinks task from the ready set, marks it waiting
// (WAIT_EVENT | newStateBit, where newStateBit lets a higher-level object
// layer in its own semantic bit), enqueues it at the tail of e's wait list,
// and if ticks != Forever also enqueues it on the delayed list. Must be
// called with the kernel's critical section already held; the caller is
// responsible for invoking Schedule on exit, so this method never calls it
// itself.
func (k *Kernel) EventWait(e *Event, t *TCB, msgSlot *any, newStateBit StateBits, ticks uint32) {
	if k.schedLock > 0 {
		fault("EventWait", "wait attempted with the scheduler locked")
	}
	k.SchedUnready(t)
	t.state |= StateWaitEvent | newStateBit
	t.eventMsgSlot = msgSlot
	t.waitEvent = e
	e.waitList.InsertLast(&t.linkNode, t)
	if ticks != Forever {
		t.delayTicks = ticks
		t.state |= StateDelayed
		k.delayedList.InsertLast(&t.delayNode, t)
	}
}

// EventWake releases a single waiter: pops the head (longest) waiter,
// writes msg into its stored slot and result into its wait result, clears
// WAIT_EVENT and, if present, DELAYED (unlinking from the delayed list),
// and makes the task ready. Returns nil if the wait list is empty.
func (k *Kernel) EventWake(e *Event, msg any, result Result) *TCB {
	t := e.waitList.RemoveFirst()
	if t == nil {
		return nil
	}
	k.wakeWaiter(t, msg, result)
	return t
}

// EventWakeAll releases every waiter, used by flag groups and by
// destruction (result=Del). Returns the number of tasks woken.
func (k *Kernel) EventWakeAll(e *Event, msg any, result Result) int {
	n := 0
	for {
		t := e.waitList.RemoveFirst()
		if t == nil {
			return n
		}
		k.wakeWaiter(t, msg, result)
		n++
	}
}

func (k *Kernel) wakeWaiter(t *TCB, msg any, result Result) {
	if t.eventMsgSlot != nil {
		*t.eventMsgSlot = msg
	}
	t.waitEventResult = result
	t.state &^= StateWaitEvent
	t.waitEvent = nil
	if t.state&StateDelayed != 0 {
		k.delayedList.Remove(&t.delayNode)
		t.state &^= StateDelayed
	}
	k.SchedReady(t)
}

// EventRemoveTask implements explicit cancellation: unlink task from its
// event's wait list, clear WAIT_EVENT and DELAYED together, mark ready, and
// clear the event back-reference. A timed waiter is linked on both the
// event's wait list and the delayed list, so cancelling it here must also
// unlink delayNode; leaving DELAYED set would let a later tick call
// SchedReady on a task that this call has already re-readied, which panics
// on the already-linked insert.
func (k *Kernel) EventRemoveTask(t *TCB, msg any, result Result) {
	if t.waitEvent == nil {
		return
	}
	t.waitEvent.waitList.Remove(&t.linkNode)
	if t.eventMsgSlot != nil {
		*t.eventMsgSlot = msg
	}
	t.waitEventResult = result
	t.state &^= StateWaitEvent
	t.waitEvent = nil
	if t.state&StateDelayed != 0 {
		k.delayedList.Remove(&t.delayNode)
		t.state &^= StateDelayed
	}
	k.SchedReady(t)
}
