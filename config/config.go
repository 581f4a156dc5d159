// Package config loads runtime settings from file and environment.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/meenmo/curvelib/calendar"
	"github.com/meenmo/curvelib/utils"
)

// Config holds every tunable of the command-line tool.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Solver SolverConfig `mapstructure:"solver"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Curve  CurveConfig  `mapstructure:"curve"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SolverConfig struct {
	Tolerance     float64 `mapstructure:"tolerance"`
	MaxIterations int     `mapstructure:"max_iterations"`
}

type CacheConfig struct {
	Capacity int `mapstructure:"capacity"`
}

type CurveConfig struct {
	SpotLagDays   int    `mapstructure:"spot_lag_days"`
	DayCount      string `mapstructure:"day_count"`
	Calendar      string `mapstructure:"calendar"`
	EventHorizonD int    `mapstructure:"event_horizon_days"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("solver.tolerance", 1e-8)
	v.SetDefault("solver.max_iterations", 50)
	v.SetDefault("cache.capacity", 128)
	v.SetDefault("curve.spot_lag_days", 2)
	v.SetDefault("curve.day_count", "ACT/360")
	v.SetDefault("curve.calendar", "FED")
	v.SetDefault("curve.event_horizon_days", 540)
}

// Load reads the config file at path (optional) and applies CURVELIB_*
// environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CURVELIB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config.Load: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Solver.Tolerance <= 0 {
		return fmt.Errorf("solver.tolerance must be positive, got %g", c.Solver.Tolerance)
	}
	if c.Solver.MaxIterations <= 0 {
		return fmt.Errorf("solver.max_iterations must be positive, got %d", c.Solver.MaxIterations)
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be positive, got %d", c.Cache.Capacity)
	}
	if c.Curve.SpotLagDays < 0 {
		return fmt.Errorf("curve.spot_lag_days must not be negative, got %d", c.Curve.SpotLagDays)
	}
	if !utils.Convention(c.Curve.DayCount).Valid() {
		return fmt.Errorf("unknown curve.day_count %q", c.Curve.DayCount)
	}
	switch calendar.CalendarID(c.Curve.Calendar) {
	case calendar.FED, calendar.TARGET, calendar.WeekendOnly:
	default:
		return fmt.Errorf("unknown curve.calendar %q", c.Curve.Calendar)
	}
	return nil
}
