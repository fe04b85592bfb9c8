package kernel

import (
	"fmt"

	"meridian/src/lib/diag"
)

// Result is the small closed result-code set used for blocking event
// operations: the core primitives never "throw" across a wait, they write
// one of these into the waiter.
type Result uint8

const (
	// OK: the wait was satisfied normally (an event_wake reached this
	// waiter).
	OK Result = iota
	// Timeout: the tick handler's delay-list scan reached delay_ticks==0
	// before an event_wake did.
	Timeout
	// Del: the owning event object was destroyed while this task waited
	// (event_wake_all with result=Del).
	Del
)

func (r Result) String() string {
	switch r {
	case OK:
		return "ok"
	case Timeout:
		return "timeout"
	case Del:
		return "deleted"
	default:
		return "unknown result"
	}
}

// KernelError reports a contract violation: programming errors such as a
// nil task, port or timer callback, an out-of-range priority, an invalid
// Config, or a wait attempted with the scheduler locked are the caller's
// responsibility, not recoverable conditions. Meridian surfaces these as a
// typed panic value (via the kernel.fault helper) rather than a silent
// no-op, tagging every kernel-raised error with the operation that raised
// it. Priority collisions with the idle or soft-timer task are not detected.
type KernelError struct {
	Op  string
	Msg string
}

func (e *KernelError) Error() string {
	return fmt.Sprintf("kernel: %s: %s", e.Op, e.Msg)
}

// fault panics with a *KernelError. Kept as a named helper, rather than an
// inline panic at each call site, so contract-violation panics are
// grep-able and always carry the same shape.
func fault(op, msg string) {
	diag.Errorf("%s: %s", op, msg)
	panic(&KernelError{Op: op, Msg: msg})
}
