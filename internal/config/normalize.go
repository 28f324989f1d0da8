package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePIDFile(); err != nil {
		return err
	}
	if err := c.normalizeDaemon(); err != nil {
		return err
	}
	if err := c.normalizeCommand(); err != nil {
		return err
	}
	if err := c.normalizeJournal(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePIDFile() error {
	if value, ok := os.LookupEnv(pidFileEnv); ok {
		c.PIDFile.Path = value
	}
	c.PIDFile.Path = strings.TrimSpace(c.PIDFile.Path)
	// Relative paths stay relative so Validate can reject them.
	expanded, err := expandHome(c.PIDFile.Path)
	if err != nil {
		return fmt.Errorf("pidfile.path: %w", err)
	}
	c.PIDFile.Path = expanded

	c.PIDFile.AcquireTimeout = strings.ToLower(strings.TrimSpace(c.PIDFile.AcquireTimeout))
	if c.PIDFile.AcquireTimeout == "" {
		c.PIDFile.AcquireTimeout = defaultAcquireTimeout
	}
	c.PIDFile.PollInterval = strings.TrimSpace(c.PIDFile.PollInterval)
	if c.PIDFile.PollInterval == "" {
		c.PIDFile.PollInterval = defaultPollInterval
	}
	return nil
}

func (c *Config) normalizeDaemon() error {
	var err error
	if c.Daemon.WorkingDir, err = expandPath(strings.TrimSpace(c.Daemon.WorkingDir)); err != nil {
		return fmt.Errorf("daemon.working_dir: %w", err)
	}
	if c.Daemon.LogFile, err = expandPath(strings.TrimSpace(c.Daemon.LogFile)); err != nil {
		return fmt.Errorf("daemon.log_file: %w", err)
	}
	c.Daemon.Umask = strings.TrimSpace(c.Daemon.Umask)
	return nil
}

func (c *Config) normalizeCommand() error {
	var err error
	if c.Command.Dir, err = expandPath(strings.TrimSpace(c.Command.Dir)); err != nil {
		return fmt.Errorf("command.dir: %w", err)
	}
	c.Command.StopGrace = strings.TrimSpace(c.Command.StopGrace)
	if c.Command.StopGrace == "" {
		c.Command.StopGrace = defaultStopGrace
	}
	return nil
}

func (c *Config) normalizeJournal() error {
	c.Journal.Path = strings.TrimSpace(c.Journal.Path)
	if c.Journal.Path == "" {
		c.Journal.Path = defaultJournalPath
	}
	var err error
	if c.Journal.Path, err = expandPath(c.Journal.Path); err != nil {
		return fmt.Errorf("journal.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
