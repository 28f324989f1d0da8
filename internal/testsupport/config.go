package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"warden/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose state files live in a per-test temp
// directory. The acquire timeout fails fast and the working directory is left
// alone so tests never chdir.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.PIDFile.Path = filepath.Join(base, "run", "warden.pid")
	cfgVal.PIDFile.AcquireTimeout = "0s"
	cfgVal.PIDFile.PollInterval = "10ms"
	cfgVal.Daemon.WorkingDir = ""
	cfgVal.Daemon.Umask = ""
	cfgVal.Daemon.LogFile = filepath.Join(base, "log", "warden.out")
	cfgVal.Journal.Path = filepath.Join(base, "state", "journal.db")
	cfgVal.Command.StopGrace = "1s"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithoutJournal disables the lifecycle journal.
func WithoutJournal() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Journal.Enabled = false
	}
}

// WithoutLock clears pidfile.path so no lock is taken.
func WithoutLock() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.PIDFile.Path = ""
	}
}

// WithAcquireTimeout overrides pidfile.acquire_timeout.
func WithAcquireTimeout(value string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.PIDFile.AcquireTimeout = value
	}
}

// WithCommand sets the supervised argv.
func WithCommand(argv ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Command.Argv = append([]string(nil), argv...)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(filepath.Dir(cfg.Daemon.LogFile))
}

// WriteConfig encodes cfg as TOML into the base directory and returns the path.
func WriteConfig(t testing.TB, cfg *config.Config) string {
	t.Helper()

	path := filepath.Join(BaseDir(cfg), "config.toml")
	data, err := config.Encode(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
