package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

type Config struct {
	DatabasePath           string
	Port                   string
	LogLevel               slog.Level
	Timezone               string
	Location               *time.Location
	MaxExpansionIterations int
	DigestSchedule         string
	CORSOrigins            []string
}

// Load reads the configuration from the environment and, when CONFIG_FILE is
// set, from that file. Environment variables win over the file.
func Load() (Config, error) {
	v := viper.New()
	v.SetDefault("database_path", "./data/planner.db")
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("max_expansion_iterations", 1000)
	v.SetDefault("digest_schedule", "0 7 * * *")
	v.SetDefault("cors_origins", "*")
	v.AutomaticEnv()

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	config := Config{
		DatabasePath:           v.GetString("database_path"),
		Port:                   v.GetString("port"),
		Timezone:               v.GetString("timezone"),
		MaxExpansionIterations: v.GetInt("max_expansion_iterations"),
		DigestSchedule:         v.GetString("digest_schedule"),
		CORSOrigins:            splitList(v.GetString("cors_origins")),
	}

	if err := config.LogLevel.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return Config{}, fmt.Errorf("parsing LOG_LEVEL: %w", err)
	}

	location, err := time.LoadLocation(config.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("loading TIMEZONE %q: %w", config.Timezone, err)
	}
	config.Location = location

	if config.MaxExpansionIterations < 1 {
		return Config{}, errors.New("MAX_EXPANSION_ITERATIONS must be at least 1")
	}

	if config.DigestSchedule != "" {
		if _, err := cron.ParseStandard(config.DigestSchedule); err != nil {
			return Config{}, fmt.Errorf("parsing DIGEST_SCHEDULE %q: %w", config.DigestSchedule, err)
		}
	}

	return config, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
