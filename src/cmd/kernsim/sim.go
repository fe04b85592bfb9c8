package main

import (
	"sync/atomic"

	"meridian/src/kernel"
	"meridian/src/port/hostport"
)

// Priority band the demo tasks occupy. worker-c and worker-d share prioLow,
// so the dump shows two peers at one priority level; both Delay after every
// short burst, so they take turns by blocking rather than by running out
// their slices.
const (
	prioWatchdog = 0
	prioA        = 1
	prioB        = 2
	prioLow      = 4
)

// Simulation wires a demo kernel.Kernel to a hostport.Port and populates it
// with a handful of illustrative tasks and timers the console/dump commands
// can drive and inspect. Nothing under src/kernel imports this package; it
// exists purely to give kernsim something to boot.
type Simulation struct {
	Kernel *kernel.Kernel
	Port   *hostport.Port

	tasks     []*kernel.TCB
	watchdog  *kernel.TCB
	guardedC  *kernel.TCB
	hardTimer kernel.Timer
	softTimer kernel.Timer

	hardFires atomic.Uint64
	softFires atomic.Uint64
}

// NewSimulation builds and boots a demo kernel under cfg: a watchdog task
// that periodically suspends and resumes a low-priority worker (exercising
// Suspend/WakeUp), two medium-priority workers that each yield after a
// short burst (exercising priority scheduling), two equal-priority
// low-priority workers sharing one ready list, and one hard and
// one soft timer (exercising the two-tier timer model).
//
// Every task body loops "do a little work, then Delay" rather than busy
// spinning. hostport.Port can still force a rotation away from a task that
// never calls Delay (the deferred-switch handoff in Port.ExitCritical
// applies on that task's own next kernel call, whatever it is), but a task
// that never makes another kernel call at all would never notice it should
// step aside, so demo workers always keep making them.
func NewSimulation(cfg kernel.Config) *Simulation {
	port := hostport.New()
	k := kernel.NewKernel(cfg, port)
	port.Bind(k)

	sim := &Simulation{Kernel: k, Port: port}

	sim.spawn("worker-a", prioA, 4096, workerBody(3, 4))
	sim.spawn("worker-b", prioB, 4096, workerBody(2, 6))
	sim.guardedC = sim.spawn("worker-c", prioLow, 4096, workerBody(1, 1))
	sim.spawn("worker-d", prioLow, 4096, workerBody(1, 1))
	sim.watchdog = sim.spawn("watchdog", prioWatchdog, 4096, sim.watchdogBody)

	k.Run()

	k.TimerInit(&sim.hardTimer, kernel.HardTimer, 20, 20, hardTimerFire, sim)
	k.TimerStart(&sim.hardTimer)
	k.TimerInit(&sim.softTimer, kernel.SoftTimer, 35, 35, softTimerFire, sim)
	k.TimerStart(&sim.softTimer)

	return sim
}

func (s *Simulation) spawn(name string, prio uint8, stackSize int, body func(*kernel.Kernel)) *kernel.TCB {
	t := &kernel.TCB{}
	stack := make([]byte, stackSize)
	s.Kernel.TaskInit(t, name, func(any) { body(s.Kernel) }, nil, prio, stack)
	s.tasks = append(s.tasks, t)
	return t
}

// workerBody returns a task entry that performs work loops "iterations" of
// work then Delays for delayTicks, forever. Kept trivial (a counter) since
// the point is scheduling behavior, not the work itself.
func workerBody(iterations int, delayTicks uint32) func(*kernel.Kernel) {
	return func(k *kernel.Kernel) {
		var n uint64
		for {
			for i := 0; i < iterations; i++ {
				n++
			}
			k.Delay(delayTicks)
		}
	}
}

// watchdogBody demonstrates the Suspend/WakeUp pair: every 15 ticks it
// toggles worker-c between suspended and runnable.
func (s *Simulation) watchdogBody(k *kernel.Kernel) {
	suspended := false
	for {
		k.Delay(15)
		if suspended {
			k.WakeUp(s.guardedC)
		} else {
			k.Suspend(s.guardedC)
		}
		suspended = !suspended
	}
}

// hardTimerFire runs in tick-ISR context (the driver goroutine's call to
// Port.Tick), so it does the least possible: bump a counter.
func hardTimerFire(arg any) {
	arg.(*Simulation).hardFires.Add(1)
}

// softTimerFire runs in the soft-timer task and is free to do more, but the
// demo keeps it symmetric with hardTimerFire.
func softTimerFire(arg any) {
	arg.(*Simulation).softFires.Add(1)
}

// HardFires and SoftFires report how many times each demo timer has fired.
func (s *Simulation) HardFires() uint64 { return s.hardFires.Load() }
func (s *Simulation) SoftFires() uint64 { return s.softFires.Load() }

// Step advances the simulation by one tick. Uses Port.Tick rather than
// Kernel.Tick directly: this call happens on the console/headless driver's
// own goroutine, never a task's, so any switch it triggers must be deferred
// to whichever task is actually running (see hostport.Port.Tick).
func (s *Simulation) Step() { s.Port.Tick() }

// TaskInfos snapshots every task kernsim created, in creation order.
func (s *Simulation) TaskInfos() []kernel.TaskInfo {
	infos := make([]kernel.TaskInfo, 0, len(s.tasks))
	for _, t := range s.tasks {
		infos = append(infos, s.Kernel.GetInfo(t))
	}
	return infos
}
