package main

import (
	"os"

	"github.com/spf13/cobra"

	"meridian/src/lib/diag"
)

var (
	configPath string
	verbose    bool
	ticksFlag  uint64
)

var rootCmd = &cobra.Command{
	Use:   "kernsim",
	Short: "Interactive demonstration shell for the meridian kernel",
	Long: "kernsim boots a small fleet of tasks and timers on a hosted meridian\n" +
		"kernel and either drives it interactively, one keypress per tick, or\n" +
		"runs it headless for a fixed number of ticks and prints one final dump.",
	RunE: runRoot,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a TOML config overriding the built-in defaults")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "emit debug-level diagnostics to stderr")
	rootCmd.Flags().Uint64VarP(&ticksFlag, "ticks", "t", 0, "run headless for this many ticks instead of opening the interactive console")
}

func runRoot(cmd *cobra.Command, args []string) error {
	if verbose {
		diag.SetLevel(diag.Error | diag.Warn | diag.Info | diag.Debug | diag.Stats)
	} else {
		diag.SetLevel(diag.Error | diag.Warn | diag.Stats)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	sim := NewSimulation(cfg)

	if ticksFlag > 0 {
		return runHeadless(sim, ticksFlag)
	}
	return runConsole(sim)
}

// runHeadless steps sim n times with no terminal interaction, then prints a
// single final dump. Meant for scripting and for environments (CI, a
// non-interactive shell) that cannot open a controlling terminal.
func runHeadless(sim *Simulation, n uint64) error {
	for i := uint64(0); i < n; i++ {
		sim.Step()
	}
	dumpTasks(os.Stdout, sim)
	dumpSummary(os.Stdout, sim)
	return nil
}
