// Package config provides Viper-based configuration loading for rollbridge.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/rollbridge/internal/dice"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// RollerConfig holds settings for rolls handed to the external roller.
type RollerConfig struct {
	// Timeout bounds how long a session waits for the roller's values.
	Timeout time.Duration `mapstructure:"timeout"`
	// CritRange is the lowest kept d20 face that makes a to-hit roll critical.
	CritRange int `mapstructure:"crit_range"`
	// CritPolicy names the damage doubling strategy applied after a crit.
	CritPolicy string `mapstructure:"crit_policy"`
}

// Policy returns the configured crit policy.
//
// Precondition: CritPolicy has passed validation.
func (r RollerConfig) Policy() dice.CritPolicy {
	p, err := dice.ParsePolicy(r.CritPolicy)
	if err != nil {
		panic(fmt.Sprintf("roller.crit_policy: %v", err))
	}
	return p
}

// HistoryConfig controls roll history recording.
type HistoryConfig struct {
	// Enabled records every completed roll to PostgreSQL.
	Enabled bool `mapstructure:"enabled"`
}

// CacheConfig controls the Redis cache of recent rolls.
type CacheConfig struct {
	// Enabled keeps recent rolls per entity in Redis.
	Enabled bool `mapstructure:"enabled"`
	// Addr is the Redis host:port.
	Addr string `mapstructure:"addr"`
	// DB selects the Redis logical database.
	DB int `mapstructure:"db"`
	// TTL expires an entity's list after this long without a new roll.
	TTL time.Duration `mapstructure:"ttl"`
	// MaxRolls caps the rolls kept per entity.
	MaxRolls int `mapstructure:"max_rolls"`
}

// StatsConfig locates the stat blocks used for modifier shorthand.
type StatsConfig struct {
	// Path is a stat block YAML file or a directory of them; empty disables shorthand.
	Path string `mapstructure:"path"`
	// Entity selects a block by name; empty selects the first block loaded.
	Entity string `mapstructure:"entity"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Roller   RollerConfig   `mapstructure:"roller"`
	History  HistoryConfig  `mapstructure:"history"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Stats    StatsConfig    `mapstructure:"stats"`
	Database DatabaseConfig `mapstructure:"database"`
}

// Validate checks all configuration invariants. Database and cache settings
// are only checked when the feature using them is enabled.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateRoller(c.Roller); err != nil {
		errs = append(errs, err.Error())
	}
	if c.History.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.Cache.Enabled {
		if err := validateCache(c.Cache); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateRoller(r RollerConfig) error {
	var errs []string
	if r.Timeout <= 0 {
		errs = append(errs, fmt.Sprintf("roller.timeout must be > 0, got %s", r.Timeout))
	}
	if r.CritRange < 2 || r.CritRange > 20 {
		errs = append(errs, fmt.Sprintf("roller.crit_range must be 2-20, got %d", r.CritRange))
	}
	if _, err := dice.ParsePolicy(r.CritPolicy); err != nil {
		errs = append(errs, fmt.Sprintf("roller.crit_policy must be one of [%s], got %q",
			strings.Join(dice.PolicyNames, ", "), r.CritPolicy))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCache(c CacheConfig) error {
	var errs []string
	if c.Addr == "" {
		errs = append(errs, "cache.addr must not be empty")
	}
	if c.DB < 0 {
		errs = append(errs, fmt.Sprintf("cache.db must be >= 0, got %d", c.DB))
	}
	if c.TTL <= 0 {
		errs = append(errs, fmt.Sprintf("cache.ttl must be > 0, got %s", c.TTL))
	}
	if c.MaxRolls < 1 {
		errs = append(errs, fmt.Sprintf("cache.max_rolls must be >= 1, got %d", c.MaxRolls))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadDefaults builds a Config from defaults and environment variables alone.
//
// Postcondition: Returns a valid Config or a non-nil error.
func LoadDefaults() (Config, error) {
	return LoadFromViper(newViper())
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// newViper returns a Viper instance with ROLLBRIDGE_ environment overrides and defaults.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("ROLLBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("roller.timeout", "10s")
	v.SetDefault("roller.crit_range", 20)
	v.SetDefault("roller.crit_policy", dice.PolicyDoubleDice)

	v.SetDefault("history.enabled", false)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.max_rolls", 50)

	v.SetDefault("stats.path", "")
	v.SetDefault("stats.entity", "")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "rollbridge")
	v.SetDefault("database.password", "rollbridge")
	v.SetDefault("database.name", "rollbridge")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
}
