package kernel

// StateBits is the task state bit-set: a task is purely READY when state
// == 0; any of the three bits may be set independently, except that
// WAIT_EVENT and DELAYED combine to mean a timed wait.
type StateBits uint8

const (
	StateDelayed   StateBits = 1 << iota // on delayed_list, delay_ticks counting down
	StateSuspend                         // suspend_count > 0
	StateWaitEvent                       // linked into some Event's wait list
)

// Ready reports state == 0.
func (s StateBits) Ready() bool { return s == 0 }

// CleanupFunc is the cooperative-deletion hook invoked with the
// caller-supplied clean_param when a task is force- or self-deleted.
type CleanupFunc func(param any)

// TCB is the task control block. Two Node[TCB] fields
// carry the two list memberships a task can have at once: linkNode is
// mutually exclusively either the task's slot in ready_table[Prio] or its
// slot in some Event's wait list, and delayNode is independent of the other
// (a task can be linked into the delay list while also linked into an
// event's wait list, for a timed wait).
type TCB struct {
	// Name is a diagnostic label used by GetInfo and by the dump/console
	// tooling; it plays no role in scheduling decisions.
	Name string

	// StackCursor is the opaque saved stack pointer, written only by the
	// port layer and by TaskInit's initial frame synthesis.
	StackCursor uintptr

	stackBase []byte // caller-owned; never freed by the kernel

	Prio uint8 // immutable after creation

	state        StateBits
	slice        uint32
	delayTicks   uint32
	suspendCount uint8

	waitEvent       *Event
	eventMsgSlot    *any
	waitEventResult Result

	linkNode  Node[TCB]
	delayNode Node[TCB]

	clean           CleanupFunc
	cleanParam      any
	deleteRequested bool

	// RunTicks counts the ticks this task has spent as cur_task, exposed
	// through GetInfo for scheduling diagnostics.
	RunTicks uint64
}

// TaskInit prepares a task control block and places it on the ready list at
// prio. It is safe to call before Kernel.Run and safe to call from a
// running task inside a critical section: TaskInit takes its own critical
// section internally, and Port.EnterCritical is reentrant, so callers never
// deadlock against themselves.
func (k *Kernel) TaskInit(t *TCB, name string, entry func(arg any), arg any, prio uint8, stack []byte) {
	if t == nil {
		fault("TaskInit", "nil task")
	}
	if prio >= k.cfg.PrioCount {
		fault("TaskInit", "priority out of range")
	}
	for i := range stack {
		stack[i] = 0
	}

	*t = TCB{
		Name:      name,
		stackBase: stack,
		Prio:      prio,
		slice:     k.cfg.SliceMax,
	}
	t.StackCursor = k.port.InitTaskStack(stack, entry, arg)

	mask := k.port.EnterCritical()
	k.readyTable[prio].InsertFirst(&t.linkNode, t)
	k.bitmap.Set(prio)
	k.port.ExitCritical(mask)
}

// SetCleanCallback installs the cooperative-deletion hook run on force- or
// self-deletion.
func (t *TCB) SetCleanCallback(fn CleanupFunc, param any) {
	t.clean = fn
	t.cleanParam = param
}

// RequestDelete sets the cooperative-deletion flag a task polls at its own
// safe points.
func (t *TCB) RequestDelete() { t.deleteRequested = true }

// IsDeleteRequested reads the cooperative-deletion flag.
func (t *TCB) IsDeleteRequested() bool { return t.deleteRequested }

// TaskInfo is the read-only snapshot GetInfo returns.
type TaskInfo struct {
	Name       string
	Prio       uint8
	State      StateBits
	Slice      uint32
	DelayTicks uint32
	RunTicks   uint64
	StackFree  int
	StackSize  int
}

// GetInfo snapshots a task's state along with a stack-free estimate: it
// walks the stack from base upward while bytes remain zero, relying on the
// zero-fill TaskInit performs at creation.
func (k *Kernel) GetInfo(t *TCB) TaskInfo {
	mask := k.port.EnterCritical()
	info := TaskInfo{
		Name:       t.Name,
		Prio:       t.Prio,
		State:      t.state,
		Slice:      t.slice,
		DelayTicks: t.delayTicks,
		RunTicks:   t.RunTicks,
		StackSize:  len(t.stackBase),
	}
	k.port.ExitCritical(mask)

	free := 0
	for _, b := range t.stackBase {
		if b != 0 {
			break
		}
		free++
	}
	info.StackFree = free
	return info
}

// Suspend increments suspend_count if task is not currently DELAYED; on the
// 0->1 edge it sets SUSPEND, unreadies the task, and reschedules if task
// was cur_task. Suspend is a no-op while DELAYED: the task first returns
// from its delay, at which point a subsequent Suspend actually takes
// effect, so a task never carries both a delay lifetime and a suspend
// lifetime for the same removal from the ready list.
func (k *Kernel) Suspend(t *TCB) {
	mask := k.port.EnterCritical()
	if t.state&StateDelayed != 0 {
		k.port.ExitCritical(mask)
		return
	}
	t.suspendCount++
	if t.suspendCount == 1 {
		t.state |= StateSuspend
		k.SchedUnready(t)
		if t == k.curTask {
			k.schedule()
		}
	}
	k.port.ExitCritical(mask)
}

// WakeUp decrements suspend_count if SUSPEND is set; on the 1->0 edge it
// clears SUSPEND, makes the task ready, and reschedules.
func (k *Kernel) WakeUp(t *TCB) {
	mask := k.port.EnterCritical()
	if t.state&StateSuspend != 0 {
		t.suspendCount--
		if t.suspendCount == 0 {
			t.state &^= StateSuspend
			k.SchedReady(t)
			k.schedule()
		}
	}
	k.port.ExitCritical(mask)
}

// ForceDelete unlinks task from the delay list and ready list (removal from
// an event's wait list is the caller's responsibility: call EventRemoveTask
// first if task may be waiting), invokes its cleanup hook if set, and
// reschedules if task was cur_task (in which case the switch this triggers
// never returns here).
func (k *Kernel) ForceDelete(t *TCB) {
	mask := k.port.EnterCritical()
	if t.state&StateDelayed != 0 {
		k.delayedList.Remove(&t.delayNode)
		t.state &^= StateDelayed
	}
	k.SchedUnready(t)
	if t.clean != nil {
		t.clean(t.cleanParam)
	}
	wasCur := t == k.curTask
	k.port.ExitCritical(mask)
	if wasCur {
		k.Schedule()
	}
}

// DeleteSelf is the cooperative counterpart to ForceDelete: a task removes
// itself from the ready list, runs its own cleanup hook, and reschedules.
// Always operates on Kernel.CurTask(), like Delay.
func (k *Kernel) DeleteSelf() {
	mask := k.port.EnterCritical()
	t := k.curTask
	k.SchedUnready(t)
	if t.clean != nil {
		t.clean(t.cleanParam)
	}
	k.schedule()
	k.port.ExitCritical(mask)
}

// Delay moves the current task through the voluntary-suspension
// READY -> READY|DELAYED transition. There is no "delay another task"
// operation, so Delay always operates on Kernel.CurTask().
func (k *Kernel) Delay(ticks uint32) {
	if ticks == 0 {
		return
	}
	mask := k.port.EnterCritical()
	t := k.curTask
	k.readyTable[t.Prio].Remove(&t.linkNode)
	if k.readyTable[t.Prio].Empty() {
		k.bitmap.Clear(t.Prio)
	}
	t.state |= StateDelayed
	t.delayTicks = ticks
	k.delayedList.InsertLast(&t.delayNode, t)
	k.schedule()
	k.port.ExitCritical(mask)
}
