package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsWhenFileMissing(t *testing.T) {
	t.Parallel()

	cfg, err := Load(LoadOptions{
		ConfigPath: filepath.Join(t.TempDir(), "missing.toml"),
	})
	require.NoError(t, err)
	require.Equal(t, "data/banking.db", cfg.Database.Path)
	require.Equal(t, 5*time.Second, cfg.Database.BusyTimeout)
	require.False(t, cfg.Seed.Atomic)
	require.Equal(t, 10, cfg.Seed.PasswordCost)
	require.Equal(t, 4, cfg.Seed.BatchParallelism)
	require.True(t, cfg.UsesDefaultCardKey())
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigPrecedenceFlagOverEnv(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `
[database]
path = "/tmp/from-file.db"

[seed]
atomic = false
`)

	flagPath := "/tmp/from-flag.db"
	atomic := true
	cfg, err := Load(LoadOptions{
		ConfigPath: cfgPath,
		Env: map[string]string{
			"SECUREBANK_DB_PATH":     "/tmp/from-env.db",
			"SECUREBANK_SEED_ATOMIC": "false",
		},
		Flags: FlagOverrides{
			DatabasePath: &flagPath,
			SeedAtomic:   &atomic,
		},
	})
	require.NoError(t, err)
	require.Equal(t, "/tmp/from-flag.db", cfg.Database.Path)
	require.True(t, cfg.Seed.Atomic)
}

func TestLoadConfigPrecedenceEnvOverFile(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `
[database]
path = "/tmp/from-file.db"
`)

	cfg, err := Load(LoadOptions{
		ConfigPath: cfgPath,
		Env: map[string]string{
			"SECUREBANK_DB_PATH": "/tmp/from-env.db",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "/tmp/from-env.db", cfg.Database.Path)
}

func TestLoadConfigFromTOMLParsesAllSupportedFields(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `
[database]
path = "/var/lib/securebank/banking.db"
busy_timeout = "2s"
journal_mode = "DELETE"

[seed]
atomic = true
password_cost = 12
batch_parallelism = 2

[card]
key = "rotate-me"

[logging]
level = "debug"
file = "/tmp/securebank.log"
max_size_mb = 42
max_files = 9
`)

	cfg, err := Load(LoadOptions{ConfigPath: cfgPath})
	require.NoError(t, err)
	require.Equal(t, "/var/lib/securebank/banking.db", cfg.Database.Path)
	require.Equal(t, 2*time.Second, cfg.Database.BusyTimeout)
	require.Equal(t, "DELETE", cfg.Database.JournalMode)
	require.True(t, cfg.Seed.Atomic)
	require.Equal(t, 12, cfg.Seed.PasswordCost)
	require.Equal(t, 2, cfg.Seed.BatchParallelism)
	require.Equal(t, "rotate-me", cfg.Card.Key)
	require.False(t, cfg.UsesDefaultCardKey())
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "/tmp/securebank.log", cfg.Logging.File)
	require.Equal(t, 42, cfg.Logging.MaxSizeMB)
	require.Equal(t, 9, cfg.Logging.MaxFiles)
}

func TestLoadConfigValidationRejectsOutOfRangeValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "password cost too low", body: "[seed]\npassword_cost = 2\n"},
		{name: "password cost too high", body: "[seed]\npassword_cost = 40\n"},
		{name: "zero parallelism", body: "[seed]\nbatch_parallelism = 0\n"},
		{name: "empty database path", body: "[database]\npath = \"\"\n"},
		{name: "unknown journal mode", body: "[database]\njournal_mode = \"fast\"\n"},
		{name: "empty card key", body: "[card]\nkey = \"\"\n"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(LoadOptions{ConfigPath: writeConfigFile(t, tc.body)})
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadConfigRejectsMalformedTOML(t *testing.T) {
	t.Parallel()

	_, err := Load(LoadOptions{ConfigPath: writeConfigFile(t, "[seed\natomic = ")})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadConfigRejectsMalformedEnv(t *testing.T) {
	t.Parallel()

	_, err := Load(LoadOptions{
		ConfigPath: filepath.Join(t.TempDir(), "missing.toml"),
		Env: map[string]string{
			"SECUREBANK_SEED_PASSWORD_COST": "ten",
		},
	})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "securebank.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}
