package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultDatabasePath     = "data/banking.db"
	defaultBusyTimeout      = 5 * time.Second
	defaultJournalMode      = "WAL"
	defaultPasswordCost     = 10
	defaultBatchParallelism = 4
	defaultCardKey          = "securebank-demo-card-key"
	defaultLogLevel         = "info"
	defaultLogMaxSizeMB     = 10
	defaultLogMaxFiles      = 5
	defaultConfigFileName   = "securebank.toml"
	minPasswordCost         = 4
	maxPasswordCost         = 31
	maxBatchParallelism     = 64
	maxBusyTimeout          = 5 * time.Minute
	envPrefix               = "SECUREBANK_"
	envConfigPath           = envPrefix + "CONFIG_PATH"
	envDatabasePath         = envPrefix + "DB_PATH"
	envSeedAtomic           = envPrefix + "SEED_ATOMIC"
	envSeedPasswordCost     = envPrefix + "SEED_PASSWORD_COST"
	envSeedBatchParallelism = envPrefix + "SEED_BATCH_PARALLELISM"
	envCardKey              = envPrefix + "CARD_KEY"
	envLogLevel             = envPrefix + "LOG_LEVEL"
	envLogFile              = envPrefix + "LOG_FILE"
	envLogMaxSizeMB         = envPrefix + "LOG_MAX_SIZE_MB"
	envLogMaxFiles          = envPrefix + "LOG_MAX_FILES"
	envDatabaseBusyTimeout  = envPrefix + "DB_BUSY_TIMEOUT"
	envDatabaseJournalMode  = envPrefix + "DB_JOURNAL_MODE"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Seed     SeedConfig     `toml:"seed"`
	Card     CardConfig     `toml:"card"`
	Logging  LoggingConfig  `toml:"logging"`
}

type DatabaseConfig struct {
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
	JournalMode string        `toml:"journal_mode"`
}

// SeedConfig controls how the demo dataset is written. Atomic runs the whole
// seed in one transaction instead of logging and skipping failed rows.
type SeedConfig struct {
	Atomic           bool `toml:"atomic"`
	PasswordCost     int  `toml:"password_cost"`
	BatchParallelism int  `toml:"batch_parallelism"`
}

type CardConfig struct {
	Key string `toml:"key"`
}

type LoggingConfig struct {
	Level     string `toml:"level"`
	File      string `toml:"file"`
	MaxSizeMB int    `toml:"max_size_mb"`
	MaxFiles  int    `toml:"max_files"`
}

type LoadOptions struct {
	ConfigPath string
	Env        map[string]string
	Flags      FlagOverrides
}

type FlagOverrides struct {
	DatabasePath *string
	SeedAtomic   *bool
}

func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Path:        defaultDatabasePath,
			BusyTimeout: defaultBusyTimeout,
			JournalMode: defaultJournalMode,
		},
		Seed: SeedConfig{
			Atomic:           false,
			PasswordCost:     defaultPasswordCost,
			BatchParallelism: defaultBatchParallelism,
		},
		Card: CardConfig{
			Key: defaultCardKey,
		},
		Logging: LoggingConfig{
			Level:     defaultLogLevel,
			File:      "",
			MaxSizeMB: defaultLogMaxSizeMB,
			MaxFiles:  defaultLogMaxFiles,
		},
	}
}

// UsesDefaultCardKey reports whether card data would be sealed with the
// built-in demo key.
func (c Config) UsesDefaultCardKey() bool {
	return c.Card.Key == defaultCardKey
}

func Load(opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()

	if err := loadAndApplyFile(resolveConfigPath(opts), &cfg); err != nil {
		return Config{}, err
	}
	if err := applyEnvOverrides(&cfg, opts); err != nil {
		return Config{}, err
	}
	applyFlagOverrides(&cfg, opts.Flags)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type rawConfig struct {
	Database *rawDatabase `toml:"database"`
	Seed     *rawSeed     `toml:"seed"`
	Card     *rawCard     `toml:"card"`
	Logging  *rawLogging  `toml:"logging"`
}

type rawDatabase struct {
	Path        *string `toml:"path"`
	BusyTimeout *string `toml:"busy_timeout"`
	JournalMode *string `toml:"journal_mode"`
}

type rawSeed struct {
	Atomic           *bool `toml:"atomic"`
	PasswordCost     *int  `toml:"password_cost"`
	BatchParallelism *int  `toml:"batch_parallelism"`
}

type rawCard struct {
	Key *string `toml:"key"`
}

type rawLogging struct {
	Level     *string `toml:"level"`
	File      *string `toml:"file"`
	MaxSizeMB *int    `toml:"max_size_mb"`
	MaxFiles  *int    `toml:"max_files"`
}

func loadAndApplyFile(path string, cfg *Config) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %q: %w", path, err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: parse TOML file %q: %v", ErrInvalidConfig, path, err)
	}
	return applyRawConfig(cfg, raw)
}

func applyRawConfig(cfg *Config, raw rawConfig) error {
	if raw.Database != nil {
		setString(raw.Database.Path, &cfg.Database.Path)
		setString(raw.Database.JournalMode, &cfg.Database.JournalMode)
		if err := setDuration("database.busy_timeout", raw.Database.BusyTimeout, &cfg.Database.BusyTimeout); err != nil {
			return err
		}
	}

	if raw.Seed != nil {
		setBool(raw.Seed.Atomic, &cfg.Seed.Atomic)
		setInt(raw.Seed.PasswordCost, &cfg.Seed.PasswordCost)
		setInt(raw.Seed.BatchParallelism, &cfg.Seed.BatchParallelism)
	}

	if raw.Card != nil {
		setString(raw.Card.Key, &cfg.Card.Key)
	}

	if raw.Logging != nil {
		setString(raw.Logging.Level, &cfg.Logging.Level)
		setString(raw.Logging.File, &cfg.Logging.File)
		setInt(raw.Logging.MaxSizeMB, &cfg.Logging.MaxSizeMB)
		setInt(raw.Logging.MaxFiles, &cfg.Logging.MaxFiles)
	}
	return nil
}

func applyEnvOverrides(cfg *Config, opts LoadOptions) error {
	if value, ok := lookupEnv(opts, envDatabasePath); ok {
		cfg.Database.Path = value
	}
	if value, ok := lookupEnv(opts, envDatabaseJournalMode); ok {
		cfg.Database.JournalMode = value
	}
	if value, ok := lookupEnv(opts, envDatabaseBusyTimeout); ok {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, envDatabaseBusyTimeout, err)
		}
		cfg.Database.BusyTimeout = d
	}

	if value, ok := lookupEnv(opts, envSeedAtomic); ok {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, envSeedAtomic, err)
		}
		cfg.Seed.Atomic = parsed
	}
	if err := envInt(opts, envSeedPasswordCost, &cfg.Seed.PasswordCost); err != nil {
		return err
	}
	if err := envInt(opts, envSeedBatchParallelism, &cfg.Seed.BatchParallelism); err != nil {
		return err
	}

	if value, ok := lookupEnv(opts, envCardKey); ok {
		cfg.Card.Key = value
	}

	if value, ok := lookupEnv(opts, envLogLevel); ok {
		cfg.Logging.Level = value
	}
	if value, ok := lookupEnv(opts, envLogFile); ok {
		cfg.Logging.File = value
	}
	if err := envInt(opts, envLogMaxSizeMB, &cfg.Logging.MaxSizeMB); err != nil {
		return err
	}
	if err := envInt(opts, envLogMaxFiles, &cfg.Logging.MaxFiles); err != nil {
		return err
	}
	return nil
}

func applyFlagOverrides(cfg *Config, flags FlagOverrides) {
	if flags.DatabasePath != nil {
		cfg.Database.Path = *flags.DatabasePath
	}
	if flags.SeedAtomic != nil {
		cfg.Seed.Atomic = *flags.SeedAtomic
	}
}

func validate(cfg Config) error {
	switch {
	case strings.TrimSpace(cfg.Database.Path) == "":
		return fmt.Errorf("%w: database.path must not be empty", ErrInvalidConfig)
	case cfg.Database.BusyTimeout < 0 || cfg.Database.BusyTimeout > maxBusyTimeout:
		return fmt.Errorf("%w: database.busy_timeout must be >= 0 and <= %s", ErrInvalidConfig, maxBusyTimeout)
	case !validJournalMode(cfg.Database.JournalMode):
		return fmt.Errorf("%w: database.journal_mode %q is not a sqlite journal mode", ErrInvalidConfig, cfg.Database.JournalMode)
	case cfg.Seed.PasswordCost < minPasswordCost || cfg.Seed.PasswordCost > maxPasswordCost:
		return fmt.Errorf("%w: seed.password_cost must be between %d and %d", ErrInvalidConfig, minPasswordCost, maxPasswordCost)
	case cfg.Seed.BatchParallelism < 1 || cfg.Seed.BatchParallelism > maxBatchParallelism:
		return fmt.Errorf("%w: seed.batch_parallelism must be between 1 and %d", ErrInvalidConfig, maxBatchParallelism)
	case cfg.Card.Key == "":
		return fmt.Errorf("%w: card.key must not be empty", ErrInvalidConfig)
	case cfg.Logging.MaxSizeMB < 0 || cfg.Logging.MaxFiles < 0:
		return fmt.Errorf("%w: logging rotation limits must be >= 0", ErrInvalidConfig)
	default:
		return nil
	}
}

func validJournalMode(mode string) bool {
	switch strings.ToUpper(mode) {
	case "DELETE", "TRUNCATE", "PERSIST", "MEMORY", "WAL", "OFF":
		return true
	default:
		return false
	}
}

func setDuration(field string, raw *string, target *time.Duration) error {
	if raw == nil {
		return nil
	}
	d, err := time.ParseDuration(*raw)
	if err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, field, err)
	}
	*target = d
	return nil
}

func setString(raw *string, target *string) {
	if raw != nil {
		*target = *raw
	}
}

func setBool(raw *bool, target *bool) {
	if raw != nil {
		*target = *raw
	}
}

func setInt(raw *int, target *int) {
	if raw != nil {
		*target = *raw
	}
}

func envInt(opts LoadOptions, key string, target *int) error {
	value, ok := lookupEnv(opts, key)
	if !ok {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, key, err)
	}
	*target = parsed
	return nil
}

func resolveConfigPath(opts LoadOptions) string {
	if opts.ConfigPath != "" {
		return opts.ConfigPath
	}
	if value, ok := lookupEnv(opts, envConfigPath); ok {
		return value
	}
	return defaultConfigFileName
}

func lookupEnv(opts LoadOptions, key string) (string, bool) {
	if opts.Env != nil {
		if value, ok := opts.Env[key]; ok {
			return value, true
		}
	}
	return os.LookupEnv(key)
}
