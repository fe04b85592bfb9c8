package kernel

// Config bundles the scheduler's compile-time tunables. A Kernel is
// parameterized by a Config value instead of package-level constants so
// that host tests can build several independent kernels (one per priority
// layout under test) in the same process.
type Config struct {
	// PrioCount is the number of usable priorities, 0 (highest) through
	// PrioCount-1 (idle). Must be <= MaxPrioCount.
	PrioCount uint8

	// SliceMax is the round-robin quantum, in ticks.
	SliceMax uint32

	// TicksPerSec is the system tick frequency used by the CPU-usage
	// calibration window.
	TicksPerSec uint32

	// SystickMS is the tick period in milliseconds, passed to
	// Port.SetTickPeriod at boot. Ordinarily 1000/TicksPerSec.
	SystickMS uint32

	// IdleTaskStackSize and TimerTaskStackSize size the caller-provided
	// stack buffers handed to TaskInit for the two kernel-created tasks.
	IdleTaskStackSize int
	TimerTaskStackSize int

	// TimerTaskPrio is the soft-timer task's priority. Must be strictly
	// less (numerically lower, i.e. higher priority) than PrioCount-1, so
	// timer callbacks are never starved by application tasks below idle.
	TimerTaskPrio uint8
}

// MaxPrioCount is the hard ceiling on Config.PrioCount: the ready bitmap is
// a single machine word.
const MaxPrioCount = 32

// The default config's tunables are declared as untyped constants, not just
// struct-literal fields, so the compile-time assertions below can size an
// array by them: an array bound must be a constant expression, and a
// package-level var like a Config value never qualifies.
const (
	defaultPrioCount          = 8
	defaultSliceMax           = 10
	defaultTicksPerSec        = 100
	defaultSystickMS          = 10
	defaultIdleTaskStackSize  = 4096
	defaultTimerTaskStackSize = 4096
	defaultTimerTaskPrio      = 1
)

// DefaultConfig is a ready-to-use configuration sized for demos and simple
// tests: an 8-level priority space, a slice of 10 ticks, and a 100Hz tick
// rate.
var DefaultConfig = Config{
	PrioCount:          defaultPrioCount,
	SliceMax:           defaultSliceMax,
	TicksPerSec:        defaultTicksPerSec,
	SystickMS:          defaultSystickMS,
	IdleTaskStackSize:  defaultIdleTaskStackSize,
	TimerTaskStackSize: defaultTimerTaskStackSize,
	TimerTaskPrio:      defaultTimerTaskPrio,
}

// Validate checks a Config's invariants at runtime, since it is built from
// caller-supplied values. The corresponding compile-time invariants for
// DefaultConfig's own values (that the default PrioCount is <= MaxPrioCount,
// and that the default TimerTaskPrio respects the ordering) are enforced below by the negative-array-length idiom, the
// same static-assertion trick used throughout the Go standard library and
// generated code (e.g. protobuf's enum range checks).
func (c Config) Validate() error {
	switch {
	case c.PrioCount == 0 || c.PrioCount > MaxPrioCount:
		return &KernelError{Op: "Config.Validate", Msg: "PrioCount must be in [1,32]"}
	case c.SliceMax == 0:
		return &KernelError{Op: "Config.Validate", Msg: "SliceMax must be > 0"}
	case c.TicksPerSec == 0:
		return &KernelError{Op: "Config.Validate", Msg: "TicksPerSec must be > 0"}
	case c.TimerTaskPrio >= c.PrioCount-1:
		return &KernelError{Op: "Config.Validate", Msg: "TimerTaskPrio must be < PrioCount-1"}
	}
	return nil
}

// idlePrio is the reserved lowest priority: PrioCount-1 always belongs to
// the idle task.
func (c Config) idlePrio() uint8 { return c.PrioCount - 1 }

// compile-time assertion: defaultPrioCount <= MaxPrioCount.
// A negative array length is not a valid constant expression, so this line
// fails to compile if the invariant is violated.
var _ = [MaxPrioCount - defaultPrioCount]struct{}{}

// compile-time assertion: defaultTimerTaskPrio < defaultPrioCount-1.
var _ = [defaultPrioCount - 1 - defaultTimerTaskPrio]struct{}{}
