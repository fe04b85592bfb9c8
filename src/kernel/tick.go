package kernel

// Tick is invoked from the port's system-tick interrupt. It takes the
// critical section itself for the delayed-list walk, slice accounting, tick
// count, CPU-usage sample and hard-timer scan, releases it, and only then
// signals the soft-timer task and reschedules.
func (k *Kernel) Tick() {
	mask := k.port.EnterCritical()

	k.wakeDelayed()

	t := k.curTask
	// A task whose slice was already exhausted (t.slice == 0) while it was
	// alone at its priority is not decremented again and does not
	// retroactively rotate when a same-priority peer arrives later; its slice
	// stays at 0.
	if t != nil && t.slice > 0 {
		t.slice--
		if t.slice == 0 {
			rt := &k.readyTable[t.Prio]
			if rt.Count() > 1 {
				rt.MoveToTail(&t.linkNode)
				t.slice = k.cfg.SliceMax
			}
		}
	}
	if t != nil {
		t.RunTicks++
	}

	k.tickCount++
	k.sampleCPUUsage()

	k.scanTimerList(&k.hardTimers)

	k.port.ExitCritical(mask)

	k.semSignal(&k.timerTick)
	k.Schedule()
}

// wakeDelayed walks delayed_list once, decrementing delay_ticks and waking
// any task that reaches zero. Must be called with the critical section
// already held. Captures the next node before any unlinking, so removing
// the current node mid-walk is safe: Node.Owner stays valid until the node
// is reused.
func (k *Kernel) wakeDelayed() {
	n := k.delayedList.sentinel.next
	for n != &k.delayedList.sentinel {
		next := n.next
		t := n.owner

		t.delayTicks--
		if t.delayTicks == 0 {
			k.delayedList.Remove(n)
			t.state &^= StateDelayed
			if t.waitEvent != nil {
				k.EventRemoveTask(t, nil, Timeout)
			} else {
				k.SchedReady(t)
			}
		}
		n = next
	}
}
