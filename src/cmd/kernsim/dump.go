package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"meridian/src/kernel"
)

// stateLabel renders a task's state bits the way GetInfo returns them:
// READY is the absence of any bit, so it is checked first.
func stateLabel(s kernel.StateBits) string {
	if s.Ready() {
		return "READY"
	}
	var label string
	if s&kernel.StateDelayed != 0 {
		label += "DELAYED|"
	}
	if s&kernel.StateSuspend != 0 {
		label += "SUSPEND|"
	}
	if s&kernel.StateWaitEvent != 0 {
		label += "WAIT|"
	}
	return label[:len(label)-1]
}

var (
	stateColor = map[string]*color.Color{
		"READY": color.New(color.FgGreen, color.Bold),
	}
	delayedColor = color.New(color.FgYellow)
	suspendColor = color.New(color.FgRed)
	waitColor    = color.New(color.FgCyan)
	headingColor = color.New(color.FgWhite, color.Bold, color.Underline)
	curTaskColor = color.New(color.FgMagenta, color.Bold)
)

func colorForState(label string) *color.Color {
	switch {
	case label == "READY":
		return stateColor["READY"]
	case label == "SUSPEND":
		return suspendColor
	default:
		switch {
		case containsField(label, "DELAYED"):
			return delayedColor
		case containsField(label, "WAIT"):
			return waitColor
		default:
			return color.New()
		}
	}
}

func containsField(label, field string) bool {
	for _, part := range splitPipe(label) {
		if part == field {
			return true
		}
	}
	return false
}

func splitPipe(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '|' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

// dumpTasks writes a colorized task table: naming, coloring, and
// column-aligning kernel-internal state for a human reading a terminal.
func dumpTasks(w io.Writer, sim *Simulation) {
	headingColor.Fprintln(w, "TASK          PRIO  STATE            SLICE  DELAY  RUNTICKS  STACKFREE")
	cur := sim.Kernel.CurTask()
	for i, info := range sim.TaskInfos() {
		t := sim.tasks[i]
		label := stateLabel(info.State)
		marker := "  "
		nameColor := color.New()
		if t == cur {
			marker = "->"
			nameColor = curTaskColor
		}
		nameColor.Fprintf(w, "%s %-10s", marker, info.Name)
		fmt.Fprintf(w, " %4d  ", info.Prio)
		colorForState(label).Fprintf(w, "%-15s", label)
		fmt.Fprintf(w, "  %5d  %5d  %8d  %9d\n",
			info.Slice, info.DelayTicks, info.RunTicks, info.StackFree)
	}
}

// dumpSummary writes the scalar kernel counters kernsim tracks: tick count,
// CPU usage percentage (once calibrated), and demo timer fire counts.
func dumpSummary(w io.Writer, sim *Simulation) {
	headingColor.Fprintln(w, "SUMMARY")
	fmt.Fprintf(w, "  ticks:       %d\n", sim.Kernel.TickCount())
	fmt.Fprintf(w, "  cpu usage:   %d%%\n", sim.Kernel.CPUUsagePercent())
	fmt.Fprintf(w, "  hard fires:  %d\n", sim.HardFires())
	fmt.Fprintf(w, "  soft fires:  %d\n", sim.SoftFires())
	fmt.Fprintf(w, "  deferred:    %d\n", sim.Kernel.SchedStats().DeferredAttempts)
}
