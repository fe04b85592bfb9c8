package kernel

import "meridian/src/lib/diag"

// sampleCPUUsage is the tick-driven half of CPU-usage calibration. Called
// once per tick from Tick, with the critical section already held.
//
// The first tick latches enable_cpu_usage_state and resets tick_count to 0,
// giving the idle task's calibration spin a clean window to measure
// against. Every subsequent arrival at a full TicksPerSec-tick boundary
// either captures the calibration baseline (idle_max_count, the first
// time) or recomputes cpu_usage_percent from the ratio of idle ticks
// observed against that baseline, and rearms the tick_count window for the
// next second: after the first tick the counter only ever counts ticks
// since the last window boundary.
func (k *Kernel) sampleCPUUsage() {
	if !k.enableCPUUsageState {
		k.enableCPUUsageState = true
		k.tickCount = 0
		return
	}
	if k.tickCount != uint64(k.cfg.TicksPerSec) {
		return
	}
	if k.idleMaxCount == 0 {
		k.idleMaxCount = k.idleCount
	} else {
		idleFrac := float64(k.idleCount) / float64(k.idleMaxCount)
		k.cpuUsagePercent = uint32((1 - idleFrac) * 100)
		diag.Statsf("cpu", "utilization %d%%", k.cpuUsagePercent)
	}
	k.idleCount = 0
	k.tickCount = 0
}

// CPUUsagePercent returns the most recently computed utilization figure.
// Reads 0 until the first full window after the calibration window has
// elapsed.
func (k *Kernel) CPUUsagePercent() uint32 { return k.cpuUsagePercent }

// idleCalibrating reports whether idle_max_count has not yet been captured,
// under the critical section idle_count/idle_max_count require.
func (k *Kernel) idleCalibrating() bool {
	mask := k.port.EnterCritical()
	c := k.idleMaxCount == 0
	k.port.ExitCritical(mask)
	return c
}

func (k *Kernel) usageEnabled() bool {
	mask := k.port.EnterCritical()
	e := k.enableCPUUsageState
	k.port.ExitCritical(mask)
	return e
}

// idlePulse is one iteration of the idle loop: increment idle_count under
// the port's critical section, so increments are atomic with respect to the
// tick handler.
func (k *Kernel) idlePulse() {
	mask := k.port.EnterCritical()
	k.idleCount++
	k.port.ExitCritical(mask)
}

// idleLoop is the idle task's body: it runs the calibration handshake, then
// spins forever. Kernel.Run installs this as the entry function of the
// lowest-priority task it creates.
func idleLoop(k *Kernel, arg any) {
	k.SchedDisable()
	for !k.usageEnabled() {
		k.idlePulse()
	}
	for k.idleCalibrating() {
		k.idlePulse()
	}
	k.SchedEnable()
	for {
		k.idlePulse()
	}
}
