package main

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"meridian/src/kernel"
)

// fileConfig is the on-disk override shape for kernsim's demo kernel,
// loaded with github.com/BurntSushi/toml the same way vovakirdan-surge's
// module/project manifests are (toml.DecodeFile into a plain struct). Only
// fields present in the file override kernel.DefaultConfig; the zero value
// of every field here means "leave the default".
type fileConfig struct {
	PrioCount          uint8
	SliceMax           uint32
	TicksPerSec        uint32
	SystickMS          uint32
	IdleTaskStackSize  int
	TimerTaskStackSize int
	TimerTaskPrio      uint8
}

// loadConfig reads path, if non-empty, and merges any set fields over
// kernel.DefaultConfig, validating the result before returning it.
func loadConfig(path string) (kernel.Config, error) {
	cfg := kernel.DefaultConfig
	if path == "" {
		return cfg, nil
	}

	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return kernel.Config{}, fmt.Errorf("kernsim: reading config %s: %w", path, err)
	}

	if fc.PrioCount != 0 {
		cfg.PrioCount = fc.PrioCount
	}
	if fc.SliceMax != 0 {
		cfg.SliceMax = fc.SliceMax
	}
	if fc.TicksPerSec != 0 {
		cfg.TicksPerSec = fc.TicksPerSec
	}
	if fc.SystickMS != 0 {
		cfg.SystickMS = fc.SystickMS
	}
	if fc.IdleTaskStackSize != 0 {
		cfg.IdleTaskStackSize = fc.IdleTaskStackSize
	}
	if fc.TimerTaskStackSize != 0 {
		cfg.TimerTaskStackSize = fc.TimerTaskStackSize
	}
	if fc.TimerTaskPrio != 0 {
		cfg.TimerTaskPrio = fc.TimerTaskPrio
	}

	if err := cfg.Validate(); err != nil {
		return kernel.Config{}, fmt.Errorf("kernsim: %s: %w", path, err)
	}
	return cfg, nil
}
