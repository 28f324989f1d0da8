// Package config loads, normalizes, and validates warden configuration.
//
// It supplies defaults, expands tilde paths, reads TOML files, and honours
// the WARDEN_PIDFILE override. Durations stay as text in the Config struct
// and are parsed by accessor methods (AcquireTimeout, PollInterval,
// StopGrace) so the file round-trips unchanged; Validate calls every
// accessor once so later calls cannot fail on a loaded config.
package config
