// Package config provides the configuration system for tessera.
//
// Settings are merged from three sources, later ones overriding earlier:
//
//	┌─────────────────────────────┐
//	│  3. Environment (TESSERA_)  │  ← Highest priority
//	├─────────────────────────────┤
//	│  2. Config file (TOML)      │
//	├─────────────────────────────┤
//	│  1. Built-in defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Command line flags are applied on top with Set.
//
// # Sub-packages
//
//   - loader: TOML file and environment variable loading
//   - watcher: fsnotify based live reload of the config file
//
// # Settings
//
//	scheduler.minRemaining  duration  1ms   yield threshold of the work loop
//	scheduler.frameBudget   duration  8ms   length of one idle slice
//	scheduler.tickInterval  duration  16ms  interval between idle slices
//	logging.level           string    info  debug, info, warn or error
//	logging.file            string    ""    log file; empty disables logging
//
// Durations are Go duration strings ("2ms") or integers in milliseconds.
//
// # Basic Usage
//
//	cfg := config.New(config.WithPath("tessera.toml"))
//	if err := cfg.Load(ctx); err != nil {
//	    return err
//	}
//	budget := cfg.Scheduler().FrameBudget
package config
