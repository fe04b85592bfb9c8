package kernel

// Kernel groups the scheduler state (ready_table, priority_bitmap,
// delayed_list, cur_task/next_task, sched_lock_counter, tick_count, ...) as
// fields of one value rather than as package-level variables: meridian's
// port and demo/test harnesses need several independent kernels in one
// process, one per test case, or a hosted simulation alongside the real
// thing, so every caller owns its own Kernel value.
type Kernel struct {
	cfg  Config
	port Port

	readyTable  [MaxPrioCount]List[TCB]
	bitmap      Bitmap
	delayedList List[TCB]

	curTask  *TCB
	nextTask *TCB
	idleTask *TCB

	schedLock uint16 // saturates at 255

	tickCount uint64

	idleCount           uint64
	idleMaxCount        uint64
	cpuUsagePercent     uint32
	enableCPUUsageState bool

	hardTimers List[Timer]
	softTimers List[Timer]
	timerTick  binSemaphore // signalled once per tick, released to the soft-timer task
	timerLock  binSemaphore // serializes soft-list mutation
	timerTask  *TCB

	// deferredAttempts counts calls to schedule() that found the scheduler
	// locked and bailed out without picking a task. It has no effect on
	// scheduling; kernsim's dump view reports it.
	deferredAttempts uint64
}

// CurTask returns the task presently selected to run. Never nil once Run
// has been called.
func (k *Kernel) CurTask() *TCB { return k.curTask }

// NextTask returns the task a pending RequestSwitch will make current. Only
// meaningful for a port's RequestSwitch implementation to read: cur_task and
// next_task are request_switch's only inputs.
func (k *Kernel) NextTask() *TCB { return k.nextTask }

// SetCurTask lets a port record that a switch has completed. Only a port's
// RequestSwitch (or RunFirst, via NewKernel/Run) should call this.
func (k *Kernel) SetCurTask(t *TCB) { k.curTask = t }

// TickCount returns tick_count: the ticks handled since the current
// CPU-usage window began. sampleCPUUsage resets it to 0 on the first tick and
// again at every TicksPerSec boundary.
func (k *Kernel) TickCount() uint64 { return k.tickCount }

// SchedReady links task at the head of ready_table[task.Prio] and sets its
// bitmap bit: head insertion so a just-woken/created task runs before
// existing same-priority peers, since the tick handler is the sole source
// of round-robin rotation.
func (k *Kernel) SchedReady(t *TCB) {
	k.readyTable[t.Prio].InsertFirst(&t.linkNode, t)
	k.bitmap.Set(t.Prio)
}

// SchedUnready unlinks task from its ready list and clears the bitmap bit
// if that list is now empty. A no-op if task is not on a ready list.
func (k *Kernel) SchedUnready(t *TCB) {
	if !t.linkNode.Linked() {
		return
	}
	k.readyTable[t.Prio].Remove(&t.linkNode)
	if k.readyTable[t.Prio].Empty() {
		k.bitmap.Clear(t.Prio)
	}
}

// SchedRemove is an alias for SchedUnready, kept as a separate name because
// it reads more naturally at deletion/timeout call sites than at the
// voluntary-unready call sites SchedUnready serves.
func (k *Kernel) SchedRemove(t *TCB) { k.SchedUnready(t) }

// HighestReady returns the head task of the highest-priority non-empty
// ready list.
func (k *Kernel) HighestReady() *TCB {
	p := k.bitmap.FirstSet()
	t := k.readyTable[p].First()
	if t == nil {
		fault("HighestReady", "bitmap bit set for an empty ready list")
	}
	return t
}

// schedule is the internal, already-locked half of Schedule/SchedEnable:
// callers must already be inside a critical section, and must keep holding
// it across the switch request this may issue.
func (k *Kernel) schedule() {
	if k.schedLock > 0 {
		k.deferredAttempts++
		return
	}
	t := k.HighestReady()
	if t != k.curTask {
		k.nextTask = t
		k.port.RequestSwitch()
	}
}

// Schedule is the public entry point: if the scheduler is locked, it is
// inert; otherwise it selects the highest-priority ready task and, if that
// differs from CurTask, requests a switch.
func (k *Kernel) Schedule() {
	mask := k.port.EnterCritical()
	k.schedule()
	k.port.ExitCritical(mask)
}

// SchedDisable saturating-increments the scheduler lock counter (max 255).
// While nonzero, Schedule is inert; readiness bookkeeping continues
// normally.
func (k *Kernel) SchedDisable() {
	mask := k.port.EnterCritical()
	if k.schedLock < 255 {
		k.schedLock++
	}
	k.port.ExitCritical(mask)
}

// SchedEnable decrements the scheduler lock counter; on the transition to
// zero it invokes Schedule, honoring any wakeups that occurred while
// locked.
func (k *Kernel) SchedEnable() {
	mask := k.port.EnterCritical()
	if k.schedLock > 0 {
		k.schedLock--
	}
	if k.schedLock == 0 {
		k.schedule()
	}
	k.port.ExitCritical(mask)
}

// SchedStats reports scheduler diagnostics that have no effect on
// scheduling behavior but are useful for inspection.
type SchedStats struct {
	// DeferredAttempts counts calls to schedule() that found the scheduler
	// locked and bailed out without picking a task.
	DeferredAttempts uint64
}

// SchedStats snapshots the current scheduler diagnostics.
func (k *Kernel) SchedStats() SchedStats {
	mask := k.port.EnterCritical()
	stats := SchedStats{DeferredAttempts: k.deferredAttempts}
	k.port.ExitCritical(mask)
	return stats
}
