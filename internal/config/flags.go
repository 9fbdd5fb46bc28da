package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagSpeed    = flag.Float64("speed", 0, "Default clip speed")
	flagFPS      = flag.Int("fps", 0, "Playback ticks per second")
	flagWorkers  = flag.Int("workers", -1, "Parallel node updates (0 = GOMAXPROCS)")
	flagNoRepeat = flag.Bool("no-repeat", false, "Play clips once instead of looping")
	flagWatch    = flag.Bool("watch", false, "Reload rig files when they change")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagSpeed > 0 {
		cfg.Animation.DefaultSpeed = float32(*flagSpeed)
	}
	if *flagFPS > 0 {
		cfg.Playback.FPS = *flagFPS
	}
	if *flagWorkers >= 0 {
		cfg.Playback.Workers = *flagWorkers
	}
	if *flagNoRepeat {
		cfg.Animation.Repeat = false
	}
	if *flagWatch {
		cfg.Data.Watch = true
	}
}
