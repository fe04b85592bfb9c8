package kernel

// Port is the platform porting layer: the concrete context-switch
// trampoline, register-frame layout, and tick source live behind this
// interface. It exists so the same scheduler core can run against
// src/port/hostport (tests, the kernsim demo) or a real src/port/mcu
// implementation without the core knowing which.
type Port interface {
	// EnterCritical masks task-level interrupts and returns an opaque
	// token encoding the previous mask, so nested calls restore correctly.
	EnterCritical() uintptr

	// ExitCritical restores the interrupt mask captured by the matching
	// EnterCritical call.
	ExitCritical(prev uintptr)

	// RequestSwitch asks the port to perform a deferred context switch
	// between the kernel's cur/next task once interrupts next unmask. The
	// port reads Kernel.CurTask/NextTask; RequestSwitch itself does not
	// take them as arguments because schedule() mutates the shared
	// next_task field before requesting the switch.
	RequestSwitch()

	// RunFirst transfers control to t as if resuming from a context save.
	// Called exactly once, from Kernel.Run; never returns.
	RunFirst(t *TCB)

	// SetTickPeriod programs the tick source to fire every periodMS
	// milliseconds.
	SetTickPeriod(periodMS uint32)

	// InitTaskStack builds the synthetic exception-return frame a fresh
	// task needs: program counter set to entry, the first argument
	// register set to param, and the processor status word configured so
	// the first resume enters the correct mode. Exact register layout is a
	// port-layer contract; the core only ever treats the result as an
	// opaque cursor.
	InitTaskStack(stack []byte, entry func(arg any), arg any) uintptr
}
