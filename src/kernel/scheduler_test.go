package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePort is a single-goroutine kernel.Port test double: EnterCritical and
// ExitCritical only track nesting depth (there is never more than one
// goroutine touching the kernel in these tests, so no real lock is needed),
// and RequestSwitch/RunFirst apply the pending switch synchronously instead
// of trading control between task goroutines the way hostport.Port does.
// This lets these tests drive the kernel's own bookkeeping directly, with
// the test goroutine itself standing in for "whichever task is current",
// without paying for real concurrency; the concurrent, goroutine-backed
// case is covered separately by integration_test.go against hostport.Port.
type fakePort struct {
	k        *Kernel
	depth    int
	switches int
}

func (p *fakePort) Bind(k *Kernel)  { p.k = k }
func (p *fakePort) EnterCritical() uintptr {
	prev := p.depth
	p.depth++
	return uintptr(prev)
}
func (p *fakePort) ExitCritical(uintptr) { p.depth-- }
func (p *fakePort) RequestSwitch() {
	p.switches++
	if n := p.k.NextTask(); n != nil {
		p.k.SetCurTask(n)
	}
}
func (p *fakePort) RunFirst(t *TCB) { p.k.SetCurTask(t) }
func (p *fakePort) SetTickPeriod(uint32) {}
func (p *fakePort) InitTaskStack(stack []byte, entry func(arg any), arg any) uintptr {
	return 0
}

// newTestKernel builds a Kernel over a fakePort with cfg's scheduling
// parameters but skips Kernel.Run (no idle/timer task, no port.RunFirst):
// most of these tests want direct control over which task is "current"
// rather than the idle task winning by default.
func newTestKernel(t *testing.T, cfg Config) (*Kernel, *fakePort) {
	t.Helper()
	p := &fakePort{}
	k := NewKernel(cfg, p)
	p.Bind(k)
	return k, p
}

func testConfig() Config {
	return Config{
		PrioCount:          8,
		SliceMax:           2,
		TicksPerSec:        100,
		SystickMS:          10,
		IdleTaskStackSize:  256,
		TimerTaskStackSize: 256,
		TimerTaskPrio:      1,
	}
}

func spawn(t *testing.T, k *Kernel, name string, prio uint8) *TCB {
	t.Helper()
	tcb := &TCB{}
	k.TaskInit(tcb, name, func(any) {}, nil, prio, make([]byte, 256))
	return tcb
}

func TestTaskInitMakesTaskReady(t *testing.T) {
	k, _ := newTestKernel(t, testConfig())
	a := spawn(t, k, "a", 3)
	require.Same(t, a, k.HighestReady())
	assert.True(t, k.bitmap.On(3))
}

func TestSchedulePicksHigherPriority(t *testing.T) {
	k, p := newTestKernel(t, testConfig())
	low := spawn(t, k, "low", 5)
	k.SetCurTask(low)

	high := spawn(t, k, "high", 1)
	k.Schedule()

	assert.Same(t, high, k.CurTask())
	assert.Equal(t, 1, p.switches)
}

func TestScheduleNoopWhenAlreadyHighest(t *testing.T) {
	k, p := newTestKernel(t, testConfig())
	only := spawn(t, k, "only", 4)
	k.SetCurTask(only)

	k.Schedule()
	assert.Equal(t, 0, p.switches)
}

func TestSchedDisableSuppressesSchedule(t *testing.T) {
	k, p := newTestKernel(t, testConfig())
	low := spawn(t, k, "low", 5)
	k.SetCurTask(low)
	k.SchedDisable()

	spawn(t, k, "high", 1)
	k.Schedule()
	assert.Equal(t, 0, p.switches, "schedule must be inert while locked")

	k.SchedEnable()
	assert.Equal(t, 1, p.switches, "the deferred switch fires on the 1->0 edge")
	assert.Equal(t, "high", k.CurTask().Name)
}

func TestSchedStatsCountsDeferredAttempts(t *testing.T) {
	k, _ := newTestKernel(t, testConfig())
	low := spawn(t, k, "low", 5)
	k.SetCurTask(low)
	k.SchedDisable()

	spawn(t, k, "high", 1)
	k.Schedule()
	k.Schedule()
	assert.EqualValues(t, 2, k.SchedStats().DeferredAttempts)

	k.SchedEnable()
	assert.EqualValues(t, 2, k.SchedStats().DeferredAttempts, "the enabling edge picks the task directly, not via schedule()'s locked branch")
}

func TestTickRoundRobinRotatesOnSliceExhaustion(t *testing.T) {
	cfg := testConfig()
	cfg.SliceMax = 2
	k, _ := newTestKernel(t, cfg)
	// TaskInit links each new task at the head of its ready list, so b is
	// created first to leave a, the current task, at the head.
	b := spawn(t, k, "b", 4)
	a := spawn(t, k, "a", 4)
	k.SetCurTask(a)

	k.Tick()
	assert.Same(t, a, k.CurTask(), "slice not yet exhausted")

	k.Tick()
	assert.Same(t, b, k.CurTask(), "slice exhausted with a peer waiting: rotate")
	assert.EqualValues(t, cfg.SliceMax, a.slice, "the rotated task's slice is refilled")
}

func TestTickRoundRobinNoopWithSinglePeer(t *testing.T) {
	cfg := testConfig()
	cfg.SliceMax = 1
	k, _ := newTestKernel(t, cfg)
	a := spawn(t, k, "a", 4)
	k.SetCurTask(a)

	k.Tick()
	assert.Same(t, a, k.CurTask())
	assert.EqualValues(t, 0, a.slice, "a lone task's exhausted slice is not refilled")
}

func TestDelayRemovesFromReadyAndWakesAfterNTicks(t *testing.T) {
	k, _ := newTestKernel(t, testConfig())
	a := spawn(t, k, "a", 4)
	idle := spawn(t, k, "idle", 7)
	k.SetCurTask(a)

	k.Delay(3)
	assert.Same(t, idle, k.CurTask(), "delaying the only ready peer falls back to idle")
	assert.NotZero(t, a.state&StateDelayed)
	assert.False(t, a.linkNode.Linked())

	k.Tick()
	k.Tick()
	assert.NotZero(t, a.state&StateDelayed, "not yet expired")

	k.Tick()
	assert.Zero(t, a.state&StateDelayed)
	assert.True(t, a.linkNode.Linked(), "delay expiry re-readies the task")
}

func TestSuspendIsNoopWhileDelayed(t *testing.T) {
	k, _ := newTestKernel(t, testConfig())
	a := spawn(t, k, "a", 4)
	spawn(t, k, "idle", 7)
	k.SetCurTask(a)
	k.Delay(5)

	k.Suspend(a)
	assert.Zero(t, a.state&StateSuspend, "suspend has no effect on an already-delayed task")
}

func TestSuspendWakeUpNesting(t *testing.T) {
	k, _ := newTestKernel(t, testConfig())
	a := spawn(t, k, "a", 4)

	k.Suspend(a)
	k.Suspend(a)
	assert.NotZero(t, a.state&StateSuspend)
	assert.False(t, a.linkNode.Linked())

	k.WakeUp(a)
	assert.NotZero(t, a.state&StateSuspend, "still suspended: one more wakeup owed")
	assert.False(t, a.linkNode.Linked())

	k.WakeUp(a)
	assert.Zero(t, a.state&StateSuspend)
	assert.True(t, a.linkNode.Linked())
}

func TestSuspendCurTaskReschedules(t *testing.T) {
	k, p := newTestKernel(t, testConfig())
	a := spawn(t, k, "a", 4)
	idle := spawn(t, k, "idle", 7)
	k.SetCurTask(a)

	k.Suspend(a)
	assert.Same(t, idle, k.CurTask())
	assert.Equal(t, 1, p.switches)
}

func TestForceDeleteRunsCleanupAndUnlinks(t *testing.T) {
	k, _ := newTestKernel(t, testConfig())
	a := spawn(t, k, "a", 4)
	cleaned := false
	a.SetCleanCallback(func(any) { cleaned = true }, nil)

	k.ForceDelete(a)
	assert.True(t, cleaned)
	assert.False(t, a.linkNode.Linked())
}

func TestForceDeleteUnlinksFromDelayedList(t *testing.T) {
	k, _ := newTestKernel(t, testConfig())
	a := spawn(t, k, "a", 4)
	spawn(t, k, "idle", 7)
	k.SetCurTask(a)
	k.Delay(100)

	k.ForceDelete(a)
	assert.Zero(t, a.state&StateDelayed)
	assert.False(t, a.delayNode.Linked())
}

func TestDeleteSelfRunsCleanupAndReschedules(t *testing.T) {
	k, p := newTestKernel(t, testConfig())
	a := spawn(t, k, "a", 4)
	idle := spawn(t, k, "idle", 7)
	k.SetCurTask(a)
	cleaned := false
	a.SetCleanCallback(func(any) { cleaned = true }, nil)

	k.DeleteSelf()
	assert.True(t, cleaned)
	assert.Same(t, idle, k.CurTask())
	assert.Equal(t, 1, p.switches)
}

func TestGetInfoReportsStackFree(t *testing.T) {
	k, _ := newTestKernel(t, testConfig())
	a := spawn(t, k, "a", 4)
	info := k.GetInfo(a)
	assert.Equal(t, "a", info.Name)
	assert.Equal(t, uint8(4), info.Prio)
	assert.Equal(t, 256, info.StackFree, "a freshly zero-filled stack is entirely free")
}

func TestDeleteRequestFlag(t *testing.T) {
	a := &TCB{}
	assert.False(t, a.IsDeleteRequested())
	a.RequestDelete()
	assert.True(t, a.IsDeleteRequested())
}
