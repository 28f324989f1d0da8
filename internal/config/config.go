package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// PIDFile configures the single-instance lock.
type PIDFile struct {
	// Path must be absolute after tilde expansion. Empty disables locking.
	Path string `toml:"path"`
	// AcquireTimeout is a Go duration, "forever", or zero/negative to fail fast.
	AcquireTimeout string `toml:"acquire_timeout"`
	PollInterval   string `toml:"poll_interval"`
}

// Daemon configures process setup once the lock is held.
type Daemon struct {
	WorkingDir string `toml:"working_dir"`
	// Umask is octal text such as "022". Empty leaves the umask alone.
	Umask string `toml:"umask"`
	// LogFile receives stdout and stderr of a detached instance.
	LogFile string `toml:"log_file"`
}

// Command describes the supervised program.
type Command struct {
	Argv      []string `toml:"argv"`
	Dir       string   `toml:"dir"`
	Env       []string `toml:"env"`
	StopGrace string   `toml:"stop_grace"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Journal configures the lifecycle history database.
type Journal struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Config encapsulates all configuration values for warden.
//
// Sections:
//   - PIDFile: lock path and acquisition timing
//   - Daemon: working directory, umask, detached output
//   - Command: the supervised program
//   - Logging: log format and level
//   - Journal: SQLite lifecycle history
type Config struct {
	PIDFile PIDFile `toml:"pidfile"`
	Daemon  Daemon  `toml:"daemon"`
	Command Command `toml:"command"`
	Logging Logging `toml:"logging"`
	Journal Journal `toml:"journal"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned
// config has its paths expanded.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("warden.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the parent directories of every state file.
func (c *Config) EnsureDirectories() error {
	targets := []struct {
		field string
		path  string
	}{
		{"pidfile.path", c.PIDFile.Path},
		{"daemon.log_file", c.Daemon.LogFile},
	}
	if c.Journal.Enabled {
		targets = append(targets, struct {
			field string
			path  string
		}{"journal.path", c.Journal.Path})
	}
	for _, target := range targets {
		if strings.TrimSpace(target.path) == "" {
			continue
		}
		dir := filepath.Dir(target.path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%s: create directory %q: %w", target.field, dir, err)
		}
	}
	return nil
}

// LockingEnabled reports whether a PID file is configured.
func (c *Config) LockingEnabled() bool {
	return strings.TrimSpace(c.PIDFile.Path) != ""
}

func expandHome(pathValue string) (string, error) {
	if !strings.HasPrefix(pathValue, "~") {
		return pathValue, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if pathValue == "~" {
		return home, nil
	}
	if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
		return filepath.Join(home, pathValue[2:]), nil
	}
	return pathValue, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	expanded, err := expandHome(pathValue)
	if err != nil {
		return "", err
	}
	cleaned := filepath.Clean(expanded)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
// An existing file is left alone.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	if _, err := file.WriteString(sampleConfig); err != nil {
		_ = file.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	return file.Close()
}

// Encode renders cfg as TOML in the layout Load reads.
func Encode(cfg *Config) ([]byte, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
