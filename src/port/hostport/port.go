// Package hostport implements kernel.Port on top of goroutines and
// channels, standing in for the concrete context-switch trampoline and
// interrupt controller a real platform port would provide (a platform
// porting layer the core invokes but never implements itself). It exists so
// the core can actually run: driving the scheduler's goroutine-backed
// integration tests (src/kernel/integration_test.go; the other kernel tests
// use a single-goroutine fake port) and the src/cmd/kernsim demo shell, neither
// of which the core's own scope covers.
//
// Each task becomes one goroutine parked on a per-task resume channel;
// exactly one is ever unparked at a time, giving the same single-CPU
// interleaving the core assumes. The critical section is a single shared
// mutex, matching real hardware where interrupt masking is CPU-global state
// rather than a per-task saved value.
//
// A real CPU can suspend whatever instruction the running task is on and
// jump straight to another one; a goroutine cannot be paused from outside
// without its own cooperation. So RequestSwitch does not perform the
// handoff itself, it only records that one is due. The handoff happens
// lazily, the next time the outgoing task's own goroutine leaves the
// critical section (ExitCritical), which every task reaches often enough
// to make this timely: workers via their next blocking kernel call, and the
// idle task via the tight kernel.idlePulse loop it never exits. The one
// caller that is never itself a task, a tick fired from outside any task
// goroutine, is routed through Port.Tick, which flags itself so its own
// critical-section exits skip the handoff and leave it for whichever task
// is actually running to pick up on its own next exit.
package hostport

import (
	"sync"
	"sync/atomic"
	"time"

	"meridian/src/kernel"
)

type taskRunner struct {
	resume chan struct{}
}

// Port is a hosted, goroutine-backed kernel.Port. The zero value is not
// usable; construct with New.
type Port struct {
	critical sync.Mutex
	depth    int

	k *kernel.Kernel

	tableMu    sync.Mutex
	table      map[uintptr]*taskRunner
	nextCursor uintptr

	switchPending atomic.Bool
	driverActive  atomic.Bool

	tickPeriod time.Duration
	tickStop   chan struct{}
}

// New constructs an unbound Port. Call Bind once the Kernel that will use it
// exists (the two are mutually referential: NewKernel needs a Port, and
// RequestSwitch/RunFirst need the Kernel's CurTask/NextTask).
func New() *Port {
	return &Port{table: make(map[uintptr]*taskRunner)}
}

// Bind associates this port with the kernel it drives. Must be called
// exactly once, before Kernel.Run.
func (p *Port) Bind(k *kernel.Kernel) { p.k = k }

// EnterCritical implements kernel.Port: a reentrant lock acquire, the hosted
// stand-in for masking task-level interrupts.
func (p *Port) EnterCritical() uintptr {
	prev := p.depth
	if p.depth == 0 {
		p.critical.Lock()
	}
	p.depth++
	return uintptr(prev)
}

// ExitCritical implements kernel.Port, restoring the depth captured by the
// matching EnterCritical. On the transition back to depth 0 it also applies
// any switch RequestSwitch recorded, unless this exit belongs to a Port.Tick
// call rather than to a task's own goroutine (see the package doc).
func (p *Port) ExitCritical(prevMask uintptr) {
	p.depth--
	if p.depth != 0 {
		return
	}
	p.critical.Unlock()
	if !p.driverActive.Load() {
		p.applyPendingSwitch()
	}
}

// InitTaskStack implements kernel.Port. There is no real register frame to
// synthesize on a host, so the "stack cursor" this returns is instead an
// opaque handle into the port's own task table: a goroutine parked on a
// resume channel, ready to run entry(arg) the first time it is signaled.
// When entry returns (a task that falls off the end of its function instead
// of looping forever, common in tests and the kernsim demo), the goroutine
// deletes itself via Kernel.DeleteSelf, matching what a real task returning
// from its entry point would need to trigger.
func (p *Port) InitTaskStack(stack []byte, entry func(arg any), arg any) uintptr {
	p.tableMu.Lock()
	p.nextCursor++
	cursor := p.nextCursor
	r := &taskRunner{resume: make(chan struct{}, 1)}
	p.table[cursor] = r
	p.tableMu.Unlock()

	go func() {
		<-r.resume
		entry(arg)
		p.k.DeleteSelf()
	}()
	return cursor
}

func (p *Port) runnerFor(cursor uintptr) *taskRunner {
	p.tableMu.Lock()
	defer p.tableMu.Unlock()
	r := p.table[cursor]
	if r == nil {
		panic("hostport: unknown task cursor")
	}
	return r
}

// RequestSwitch implements kernel.Port. It only records that NextTask
// differs from CurTask; it never blocks and never itself touches curTask,
// because the goroutine calling RequestSwitch (via Kernel.schedule, under
// the critical section) is not necessarily the outgoing task's own (a tick
// fired from outside any task is the standing example). See
// applyPendingSwitch for where the handoff actually happens.
func (p *Port) RequestSwitch() {
	p.switchPending.Store(true)
}

// applyPendingSwitch performs the deferred handoff RequestSwitch recorded,
// if any: hand the baton to Kernel.NextTask and park the calling goroutine
// (Kernel.CurTask, the outgoing task) on its own resume channel until some
// later switch hands the baton back. Correct only when called by the
// outgoing task's own goroutine, which ExitCritical guarantees by skipping
// this whenever driverActive is set.
func (p *Port) applyPendingSwitch() {
	for p.switchPending.Load() {
		p.critical.Lock()
		if !p.switchPending.Load() {
			p.critical.Unlock()
			return
		}
		p.switchPending.Store(false)
		cur := p.k.CurTask()
		next := p.k.NextTask()
		if next == nil || next == cur {
			p.critical.Unlock()
			return
		}
		curRunner := p.runnerFor(cur.StackCursor)
		nextRunner := p.runnerFor(next.StackCursor)
		p.k.SetCurTask(next)
		p.critical.Unlock()

		nextRunner.resume <- struct{}{}
		<-curRunner.resume
		// Resumed: a further switch may already be pending (handed straight
		// back off before this goroutine got here), so loop and recheck
		// before returning control to the caller's own code.
	}
}

// RunFirst implements kernel.Port's boot handoff. Unlike a real run_first,
// this does not block forever: it signals the first task's goroutine and
// returns, so the goroutine that called Kernel.Run (a test, or kernsim's
// main) stays free to drive ticks. Documented deviation, justified because
// run_first's non-return is a property of a real CPU jumping away, which a
// hosted simulation has no need to reproduce, and reproducing it would make
// this port useless for tests and the interactive demo shell.
func (p *Port) RunFirst(t *kernel.TCB) {
	p.k.SetCurTask(t)
	r := p.runnerFor(t.StackCursor)
	r.resume <- struct{}{}
}

// SetTickPeriod implements kernel.Port: records the configured period for a
// later StartTicking call. Recording only, rather than starting a ticker
// immediately, since most callers (the test suite) drive Tick manually for
// determinism and never want a background ticker running at all.
func (p *Port) SetTickPeriod(periodMS uint32) {
	p.tickPeriod = time.Duration(periodMS) * time.Millisecond
}

// Tick drives one kernel tick from outside any task goroutine: the
// background ticker StartTicking spawns, or a caller stepping the
// simulation by hand (kernsim's headless/console modes, or a test). Callers
// that are not a task must use this instead of calling Kernel.Tick
// directly, so any switch the tick triggers is deferred to whichever task
// is actually running rather than attempted on this goroutine, which could
// never complete it.
func (p *Port) Tick() {
	p.driverActive.Store(true)
	p.k.Tick()
	p.driverActive.Store(false)
}

// StartTicking spawns a goroutine that calls Tick once per configured
// period, for real-time-driven consumers like kernsim. Safe to call only
// after SetTickPeriod (via kernel.NewKernel's TickInit) has set a period.
func (p *Port) StartTicking() {
	p.tickStop = make(chan struct{})
	go func() {
		t := time.NewTicker(p.tickPeriod)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				p.Tick()
			case <-p.tickStop:
				return
			}
		}
	}()
}

// StopTicking halts a goroutine started by StartTicking. A no-op if none is
// running.
func (p *Port) StopTicking() {
	if p.tickStop != nil {
		close(p.tickStop)
		p.tickStop = nil
	}
}
