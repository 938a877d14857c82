package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		ShutdownGrace  string   `yaml:"shutdown_grace"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		BankFile         string `yaml:"bank_file"`
		TTL              string `yaml:"ttl"`
		QuestionSeconds  int    `yaml:"question_seconds"`
		TickInterval     string `yaml:"tick_interval"`
		PointsPerCorrect int    `yaml:"points_per_correct"`
	} `yaml:"quiz"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Events struct {
		RedisPrefix       string `yaml:"redis_prefix"`
		NatsURL           string `yaml:"nats_url"`
		NatsSubjectPrefix string `yaml:"nats_subject_prefix"`
	} `yaml:"events"`
}

// Default returns the configuration used when no file overrides a field.
func Default() Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Server.ShutdownGrace = "5s"
	cfg.Redis.TTL = "6h"
	cfg.Quiz.TTL = "10m"
	cfg.Quiz.QuestionSeconds = 20
	cfg.Quiz.TickInterval = "1s"
	cfg.Quiz.PointsPerCorrect = 10
	cfg.Log.Level = "info"
	cfg.Events.NatsSubjectPrefix = "quiz"
	return cfg
}

// Load reads YAML config from path on top of Default. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the game cannot run with.
func (c Config) Validate() error {
	if c.Quiz.QuestionSeconds <= 0 {
		return fmt.Errorf("quiz.question_seconds must be positive, got %d", c.Quiz.QuestionSeconds)
	}
	if c.Quiz.PointsPerCorrect <= 0 {
		return fmt.Errorf("quiz.points_per_correct must be positive, got %d", c.Quiz.PointsPerCorrect)
	}
	if d := Duration(c.Quiz.TickInterval, 0); d <= 0 {
		return fmt.Errorf("quiz.tick_interval %q is not a positive duration", c.Quiz.TickInterval)
	}
	return nil
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
