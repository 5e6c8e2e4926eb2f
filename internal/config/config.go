package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Events     EventsConfig     `yaml:"events"`
	Assignment AssignmentConfig `yaml:"assignment"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type EventsConfig struct {
	URL string `yaml:"url"`
}

type AssignmentConfig struct {
	DefaultStrategy         string `yaml:"default_strategy"`
	LookbackDays            int    `yaml:"lookback_days"`
	GeoPrefilterEnabled     bool   `yaml:"geo_prefilter_enabled"`
	MaxAssignmentsPerDriver int    `yaml:"max_assignments_per_driver"`
}

type ScoringConfig struct {
	Weights ScoringWeights `yaml:"weights"`
}

type ScoringWeights struct {
	Location    float64 `yaml:"location"`
	Proximity   float64 `yaml:"proximity"`
	Performance float64 `yaml:"performance"`
	Workload    float64 `yaml:"workload"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8610,
			MetricsPort: 8611,
		},
		Events: EventsConfig{
			URL: "nats://localhost:4222",
		},
		Assignment: AssignmentConfig{
			DefaultStrategy:         "weighted-scoring",
			LookbackDays:            7,
			GeoPrefilterEnabled:     true,
			MaxAssignmentsPerDriver: 3,
		},
		Scoring: ScoringConfig{
			Weights: ScoringWeights{
				Location:    0.40,
				Proximity:   0.30,
				Performance: 0.15,
				Workload:    0.15,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TIFFIN_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("TIFFIN_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("TIFFIN_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("TIFFIN_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("TIFFIN_EVENTS_URL"); v != "" {
		cfg.Events.URL = v
	}
	if v := os.Getenv("TIFFIN_DEFAULT_STRATEGY"); v != "" {
		cfg.Assignment.DefaultStrategy = v
	}
	if v := os.Getenv("TIFFIN_LOOKBACK_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Assignment.LookbackDays = n
		}
	}
	if v := os.Getenv("TIFFIN_GEO_PREFILTER_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Assignment.GeoPrefilterEnabled = b
		}
	}
	if v := os.Getenv("TIFFIN_MAX_ASSIGNMENTS_PER_DRIVER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Assignment.MaxAssignmentsPerDriver = n
		}
	}
	if v := os.Getenv("TIFFIN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
