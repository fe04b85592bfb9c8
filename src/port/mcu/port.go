//go:build tinygo

// Package mcu is an illustrative ARMv7-M kernel.Port: the concrete
// context-switch trampoline and CPU register-frame layout that a platform
// porting layer must supply. It is not built in this environment
// (build-tagged to tinygo, whose device/arm and machine packages are
// supplied by the TinyGo compiler itself rather than fetchable modules). It
// exists to show the shape a real target port takes.
package mcu

import (
	"device/arm"
	"machine"
	"unsafe"

	"meridian/src/kernel"
)

// quanta is the systick reload constant; the exact value is a hardware
// calibration detail (CPU clock / desired tick rate), not a kernel concern.
const quanta = 500000

// Port drives meridian on bare metal. The zero value is usable; Bind wires
// it to the Kernel it services, exactly like hostport.Port, because the two
// are mutually referential (NewKernel needs a Port; RequestSwitch needs the
// Kernel's CurTask/NextTask).
type Port struct {
	k *kernel.Kernel
}

func (p *Port) Bind(k *kernel.Kernel) { p.k = k }

// EnterCritical masks interrupts and returns the previous enable state, the
// same save/restore shape every call site needs to nest correctly.
func (p *Port) EnterCritical() uintptr {
	return uintptr(arm.DisableInterrupts())
}

// ExitCritical restores the interrupt state captured by EnterCritical.
func (p *Port) ExitCritical(prevMask uintptr) {
	arm.EnableInterrupts(uint32(prevMask))
}

// RequestSwitch performs the context switch at once: it records next as the
// current task and calls cpuSwitchTo, a //go:external assembly trampoline,
// since Go cannot express arbitrary register-frame manipulation. It does not
// pend the switch (e.g. through Cortex-M's PendSV) until interrupts next
// unmask; the switch runs inside the caller's critical section.
func (p *Port) RequestSwitch() {
	cur := p.k.CurTask()
	next := p.k.NextTask()
	if next == nil || next == cur {
		return
	}
	p.k.SetCurTask(next)
	cpuSwitchTo(unsafe.Pointer(cur), unsafe.Pointer(next))
}

// cpuSwitchTo is the register-save/restore trampoline: save the outgoing
// task's callee-saved registers and stack pointer into its TCB, restore the
// incoming task's, and return into it. Not expressible in Go; provided by a
// target-specific assembly file.
//
//go:external
func cpuSwitchTo(prev, next unsafe.Pointer)

// RunFirst transfers control to task as if resuming from a context save.
// One-shot, never returns.
func (p *Port) RunFirst(t *kernel.TCB) {
	p.k.SetCurTask(t)
	runFirst(unsafe.Pointer(t))
	panic("meridian/mcu: runFirst returned")
}

//go:external
func runFirst(t unsafe.Pointer)

// SetTickPeriod programs the system tick timer (QA7 local timer reload plus
// interrupt enable), generalized from a fixed quanta to the requested
// period.
func (p *Port) SetTickPeriod(periodMS uint32) {
	reload := quanta * periodMS / 10
	machine.QA7.LocalTimerControl.SetInterruptEnable()
	machine.QA7.LocalTimerControl.SetReloadValue(reload)
	machine.QA7.LocalTimerControl.SetTimerEnable()
}

// InitTaskStack builds the synthetic exception-return frame at the top of
// stack: program counter = a trampoline that calls entry(arg), first
// argument register = a pointer carrying arg, and the saved processor
// status word set for thread mode with the correct instruction set. The
// exact layout mirrors whatever cpuSwitchTo/runFirst expect to restore;
// left as a stub here since the register frame format is itself hardware
// and toolchain-specific.
func (p *Port) InitTaskStack(stack []byte, entry func(arg any), arg any) uintptr {
	return buildInitialFrame(stack, entry, arg)
}

func buildInitialFrame(stack []byte, entry func(arg any), arg any) uintptr {
	panic("meridian/mcu: buildInitialFrame is a target-specific stub")
}
