// Package config provides configuration loading and validation for the
// ingestion service. Settings come from a YAML file; credentials come from
// the environment only, never the file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the ingestion service.
type Config struct {
	Directories DirectoriesConfig `yaml:"directories"`
	PostgresDSN string            `yaml:"postgres_dsn"`
	Queue       QueueConfig       `yaml:"queue"`
	SMTP        SMTPConfig        `yaml:"smtp"`
	Email       EmailConfig       `yaml:"email"`
	RedisAddr   string            `yaml:"redis_addr"`

	PollInterval Duration `yaml:"poll_interval"`
}

// Duration wraps time.Duration so YAML can carry values like "5s".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// DirectoriesConfig holds the file locations the pipeline works with.
type DirectoriesConfig struct {
	Incoming  string `yaml:"incoming"`
	Processed string `yaml:"processed"`
	Errors    string `yaml:"errors"`
	Logging   string `yaml:"logging"`
}

// QueueConfig holds the ticketing queue broker settings. Credentials are
// env-only: RABBITMQ_USERNAME and RABBITMQ_PASSWORD.
type QueueConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Exchange string `yaml:"exchange"`
	Queue    string `yaml:"queue"`
	Username string `yaml:"-"`
	Password string `yaml:"-"`
}

// SMTPConfig holds mail server settings. Credentials are env-only:
// SMTP_USER and SMTP_PASSWORD.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	From     string `yaml:"from"`
	User     string `yaml:"-"`
	Password string `yaml:"-"`
}

// EmailConfig controls which exception notifications are emailed.
type EmailConfig struct {
	Exceptions bool   `yaml:"exceptions"`
	Warnings   bool   `yaml:"warnings"`
	Address    string `yaml:"address"`
}

// Load reads configuration from the given YAML file, applies defaults and
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Directories: DirectoriesConfig{
			Incoming:  "data/incoming",
			Processed: "data/processed",
			Errors:    "data/errors",
			Logging:   "data/logs",
		},
		Queue: QueueConfig{
			Port:     5672,
			Exchange: "ticketingExchange",
			Queue:    "ticketingQ",
		},
		SMTP: SMTPConfig{
			Host: "localhost",
			Port: "1025",
			From: "exceptions@rdm.local",
		},
		PollInterval: Duration(2 * time.Second),
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		cfg.PostgresDSN = dsn
	}
	cfg.Queue.Username = os.Getenv("RABBITMQ_USERNAME")
	cfg.Queue.Password = os.Getenv("RABBITMQ_PASSWORD")
	cfg.SMTP.User = os.Getenv("SMTP_USER")
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set and have
// valid values. Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	if c.Directories.Incoming == "" {
		return fmt.Errorf("incoming directory cannot be empty")
	}
	if c.Directories.Processed == "" {
		return fmt.Errorf("processed directory cannot be empty")
	}
	if c.Directories.Errors == "" {
		return fmt.Errorf("errors directory cannot be empty")
	}
	if c.Directories.Logging == "" {
		return fmt.Errorf("logging directory cannot be empty")
	}
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres-dsn cannot be empty")
	}
	if c.Queue.Host == "" {
		return fmt.Errorf("queue host cannot be empty")
	}
	if c.Queue.Port <= 0 {
		return fmt.Errorf("queue port must be positive")
	}
	if c.Queue.Exchange == "" {
		return fmt.Errorf("queue exchange cannot be empty")
	}
	if c.Queue.Queue == "" {
		return fmt.Errorf("queue name cannot be empty")
	}
	if c.Email.Exceptions && c.Email.Address == "" {
		return fmt.Errorf("email address cannot be empty when exception emailing is enabled")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	return nil
}
