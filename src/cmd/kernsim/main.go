// Command kernsim is a hosted demonstration shell for the meridian kernel:
// it boots a small fleet of tasks and timers on top of the goroutine-backed
// hostport.Port and lets a user step or run the simulation and inspect its
// state.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
