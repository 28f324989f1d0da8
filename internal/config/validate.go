package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"warden/internal/pidlock"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePIDFile(); err != nil {
		return err
	}
	if err := c.validateDaemon(); err != nil {
		return err
	}
	if err := c.validateCommand(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateJournal(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePIDFile() error {
	if c.LockingEnabled() && !filepath.IsAbs(c.PIDFile.Path) {
		return fmt.Errorf("pidfile.path must be absolute, got %q", c.PIDFile.Path)
	}
	if _, err := c.AcquireTimeout(); err != nil {
		return err
	}
	interval, err := c.PollInterval()
	if err != nil {
		return err
	}
	if interval <= 0 {
		return errors.New("pidfile.poll_interval must be positive")
	}
	return nil
}

func (c *Config) validateDaemon() error {
	_, err := c.Umask()
	return err
}

func (c *Config) validateCommand() error {
	if len(c.Command.Argv) > 0 && strings.TrimSpace(c.Command.Argv[0]) == "" {
		return errors.New("command.argv[0] must name a program")
	}
	for _, entry := range c.Command.Env {
		if !strings.Contains(entry, "=") {
			return fmt.Errorf("command.env entry %q must be KEY=VALUE", entry)
		}
	}
	grace, err := c.StopGrace()
	if err != nil {
		return err
	}
	if grace <= 0 {
		return errors.New("command.stop_grace must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateJournal() error {
	if c.Journal.Enabled && strings.TrimSpace(c.Journal.Path) == "" {
		return errors.New("journal.path must be set when journal.enabled is true")
	}
	return nil
}

// AcquireTimeout returns the parsed pidfile.acquire_timeout. "forever"
// yields pidlock.Forever.
func (c *Config) AcquireTimeout() (time.Duration, error) {
	if c.PIDFile.AcquireTimeout == foreverToken {
		return pidlock.Forever, nil
	}
	return parseDuration("pidfile.acquire_timeout", c.PIDFile.AcquireTimeout)
}

// PollInterval returns the parsed pidfile.poll_interval.
func (c *Config) PollInterval() (time.Duration, error) {
	return parseDuration("pidfile.poll_interval", c.PIDFile.PollInterval)
}

// StopGrace returns the parsed command.stop_grace.
func (c *Config) StopGrace() (time.Duration, error) {
	return parseDuration("command.stop_grace", c.Command.StopGrace)
}

// Umask returns the parsed daemon.umask, or -1 when unset.
func (c *Config) Umask() (int, error) {
	value := strings.TrimSpace(c.Daemon.Umask)
	if value == "" {
		return -1, nil
	}
	parsed, err := strconv.ParseUint(value, 8, 32)
	if err != nil || parsed > 0o777 {
		return 0, fmt.Errorf("daemon.umask must be octal between 000 and 777, got %q", value)
	}
	return int(parsed), nil
}

func parseDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", field, value, err)
	}
	return d, nil
}
