package kernel

import "meridian/src/lib/diag"

// TimerConfig tags which list a Timer belongs to: hard timers are scanned
// inside the tick ISR, soft timers by the dedicated soft-timer task.
type TimerConfig uint8

const (
	HardTimer TimerConfig = iota
	SoftTimer
)

// TimerState is a timer's lifecycle state.
type TimerState uint8

const (
	TimerCreated TimerState = iota
	TimerStarted
	TimerRunning
	TimerStopped
	TimerDestroyed
)

// TimerFunc is a timer callback. Hard-timer callbacks run in tick-ISR
// context and must be short and non-blocking; soft-timer callbacks run in
// the soft-timer task and may invoke any non-blocking kernel API.
type TimerFunc func(arg any)

// Timer is a timer record: three delay fields (the configured start delay
// and period, and the live countdown), a callback, and a link node shared with
// whichever of the hard or soft list currently owns it.
type Timer struct {
	startDelayTicks uint32
	durationTicks   uint32
	delayTicks      uint32
	fn              TimerFunc
	arg             any
	config          TimerConfig
	state           TimerState
	linkNode        Node[Timer]
	fireCount       uint64
}

// binSemaphore is a minimal counting semaphore layered directly on Event.
// The timer subsystem needs exactly two of these: a binary lock (initial 1,
// max 1) serializing soft-list mutation, and an unbounded counting
// semaphore signalled once per tick to release the soft-timer task for one
// pass. Higher-level semaphore objects are out of scope; this type is not
// exported because it exists only to give the timer subsystem its two
// required primitives.
type binSemaphore struct {
	event Event
	count int32
	max   int32 // 0 means unbounded
}

func (s *binSemaphore) init(initial, max int32) {
	s.event.EventInit(EventSemaphore)
	s.count = initial
	s.max = max
}

func (k *Kernel) semWait(s *binSemaphore) {
	mask := k.port.EnterCritical()
	if s.count > 0 {
		s.count--
		k.port.ExitCritical(mask)
		return
	}
	t := k.curTask
	var slot any
	k.EventWait(&s.event, t, &slot, 0, Forever)
	k.port.ExitCritical(mask)
	k.Schedule()
}

func (k *Kernel) semSignal(s *binSemaphore) {
	mask := k.port.EnterCritical()
	woken := k.EventWake(&s.event, nil, OK)
	if woken == nil && (s.max == 0 || s.count < s.max) {
		s.count++
	}
	k.port.ExitCritical(mask)
	if woken != nil {
		k.Schedule()
	}
}

// TimerModuleInit implements the timer half of bootstrap: empties
// both lists and arms the two semaphores. Must run before any TimerInit.
func (k *Kernel) TimerModuleInit() {
	k.hardTimers.Init()
	k.softTimers.Init()
	k.timerTick.init(0, 0)
	k.timerLock.init(1, 1)
}

// TimerInit prepares a Created timer, not yet linked into either list.
func (k *Kernel) TimerInit(tm *Timer, cfg TimerConfig, startDelay, duration uint32, fn TimerFunc, arg any) {
	if fn == nil {
		fault("TimerInit", "nil timer callback")
	}
	*tm = Timer{
		startDelayTicks: startDelay,
		durationTicks:   duration,
		fn:              fn,
		arg:             arg,
		config:          cfg,
		state:           TimerCreated,
	}
}

// listFor returns the list a timer's config selects.
func (k *Kernel) listFor(tm *Timer) *List[Timer] {
	if tm.config == HardTimer {
		return &k.hardTimers
	}
	return &k.softTimers
}

// TimerStart sets delay_ticks from start_delay_ticks (falling back to
// duration_ticks when the start delay is zero), links the timer into its
// list under the list's own protection (interrupt masking for hard,
// timerLock for soft), and marks it Started. A no-op outside
// {Created, Stopped}.
func (k *Kernel) TimerStart(tm *Timer) {
	if tm.state != TimerCreated && tm.state != TimerStopped {
		return
	}
	if tm.startDelayTicks != 0 {
		tm.delayTicks = tm.startDelayTicks
	} else {
		tm.delayTicks = tm.durationTicks
	}
	tm.state = TimerStarted

	if tm.config == HardTimer {
		mask := k.port.EnterCritical()
		k.hardTimers.InsertLast(&tm.linkNode, tm)
		k.port.ExitCritical(mask)
		return
	}
	k.semWait(&k.timerLock)
	k.softTimers.InsertLast(&tm.linkNode, tm)
	k.semSignal(&k.timerLock)
}

// TimerStop unlinks the timer under the appropriate protection and marks it
// Stopped. A no-op outside {Started, Running}.
func (k *Kernel) TimerStop(tm *Timer) {
	if tm.state != TimerStarted && tm.state != TimerRunning {
		return
	}
	if tm.config == HardTimer {
		mask := k.port.EnterCritical()
		k.hardTimers.Remove(&tm.linkNode)
		k.port.ExitCritical(mask)
	} else {
		k.semWait(&k.timerLock)
		k.softTimers.Remove(&tm.linkNode)
		k.semSignal(&k.timerLock)
	}
	tm.state = TimerStopped
}

// TimerDestroy stops the timer, then marks it Destroyed.
func (k *Kernel) TimerDestroy(tm *Timer) {
	k.TimerStop(tm)
	tm.state = TimerDestroyed
}

// TimerInfo is the read-only snapshot TimerGetInfo returns.
type TimerInfo struct {
	State      TimerState
	Config     TimerConfig
	DelayTicks uint32
	FireCount  uint64
}

// TimerGetInfo snapshots a timer's readable state.
func (k *Kernel) TimerGetInfo(tm *Timer) TimerInfo {
	return TimerInfo{State: tm.state, Config: tm.config, DelayTicks: tm.delayTicks, FireCount: tm.fireCount}
}

// scanTimerList walks and fires the timers on either list. The caller holds
// whatever protection the list requires (the tick
// handler's critical section for the hard list, timerLock for the soft
// list). The walk tolerates a callback stopping or destroying its own timer
// by capturing next before invoking fn, the same tolerance the tick
// handler's delayed-list walk requires.
func (k *Kernel) scanTimerList(list *List[Timer]) {
	n := list.sentinel.next
	for n != &list.sentinel {
		next := n.next
		tm := n.owner

		fire := tm.delayTicks == 0
		if !fire {
			tm.delayTicks--
			fire = tm.delayTicks == 0
		}
		if fire {
			tm.state = TimerRunning
			tm.fn(tm.arg)
			tm.fireCount++
			tag := "hard"
			if tm.config == SoftTimer {
				tag = "soft"
			}
			diag.Statsf(tag+"-timer", "fired, total %d", tm.fireCount)
			if tm.state != TimerRunning {
				// The callback stopped or destroyed its own timer, which
				// already unlinked it; keep the state it set.
				n = next
				continue
			}
			tm.state = TimerStarted
			if tm.durationTicks > 0 {
				tm.delayTicks = tm.durationTicks
			} else {
				list.Remove(n)
				tm.state = TimerStopped
			}
		}
		n = next
	}
}

// softTimerLoop is the soft-timer task's body, created by bootstrap at
// TimerTaskPrio: block on the per-tick counting semaphore, then scan the
// soft list under timerLock. Runs forever; installed as the entry function
// of the task Kernel.Run creates for it.
func softTimerLoop(k *Kernel, arg any) {
	for {
		k.semWait(&k.timerTick)
		k.semWait(&k.timerLock)
		k.scanTimerList(&k.softTimers)
		k.semSignal(&k.timerLock)
	}
}
