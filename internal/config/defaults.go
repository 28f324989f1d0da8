package config

const (
	defaultConfigPath     = "~/.config/warden/config.toml"
	defaultPIDFilePath    = "~/.local/state/warden/warden.pid"
	defaultAcquireTimeout = "5s"
	defaultPollInterval   = "100ms"
	defaultWorkingDir     = "/"
	defaultUmask          = "022"
	defaultLogFile        = "~/.local/state/warden/warden.out"
	defaultStopGrace      = "10s"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultJournalEnabled = true
	defaultJournalPath    = "~/.local/state/warden/journal.db"

	// foreverToken selects an unbounded acquire wait.
	foreverToken = "forever"

	// pidFileEnv overrides pidfile.path.
	pidFileEnv = "WARDEN_PIDFILE"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		PIDFile: PIDFile{
			Path:           defaultPIDFilePath,
			AcquireTimeout: defaultAcquireTimeout,
			PollInterval:   defaultPollInterval,
		},
		Daemon: Daemon{
			WorkingDir: defaultWorkingDir,
			Umask:      defaultUmask,
			LogFile:    defaultLogFile,
		},
		Command: Command{
			StopGrace: defaultStopGrace,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Journal: Journal{
			Enabled: defaultJournalEnabled,
			Path:    defaultJournalPath,
		},
	}
}
