package main

import (
	"fmt"
	"os"

	tty "github.com/mattn/go-tty"
)

// runConsole drives sim interactively: raw single-keypress input against
// the controlling terminal, since kernsim has no target board to talk to.
//
// Keys: space/n advances one tick, r toggles the background ticker via
// Port.StartTicking/StopTicking, d redraws the dump, q or ctrl-C quits.
func runConsole(sim *Simulation) error {
	t, err := tty.Open()
	if err != nil {
		return fmt.Errorf("kernsim: opening terminal: %w", err)
	}
	defer t.Close()

	fmt.Fprintln(os.Stdout, "kernsim interactive console: [space/n] step  [r] run/stop  [d] dump  [q] quit")
	running := false
	for {
		dumpTasks(os.Stdout, sim)
		dumpSummary(os.Stdout, sim)

		r, err := t.ReadRune()
		if err != nil {
			return fmt.Errorf("kernsim: reading key: %w", err)
		}
		switch r {
		case 'q', 3: // ctrl-C
			if running {
				sim.Port.StopTicking()
			}
			return nil
		case 'r':
			running = !running
			if running {
				sim.Port.StartTicking()
			} else {
				sim.Port.StopTicking()
			}
		case 'd':
			// falls through to the redraw at the top of the loop
		case ' ', 'n':
			if !running {
				sim.Step()
			}
		}
	}
}
