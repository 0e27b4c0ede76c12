package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendRaft   = "raft"
)

// Config holds the server settings.
type Config struct {
	NodeID       string        `yaml:"node_id" validate:"required"`
	Backend      string        `yaml:"backend" validate:"oneof=memory raft"`
	HTTPAddr     string        `yaml:"http_addr" validate:"omitempty,hostname_port"`
	GRPCAddr     string        `yaml:"grpc_addr" validate:"omitempty,hostname_port"`
	RESPAddr     string        `yaml:"resp_addr" validate:"omitempty,hostname_port"`
	LogLevel     string        `yaml:"log_level" validate:"oneof=trace debug info warn error"`
	LogFormat    string        `yaml:"log_format" validate:"oneof=text json"`
	ApplyTimeout time.Duration `yaml:"apply_timeout" validate:"gte=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		NodeID:       uuid.NewString(),
		Backend:      BackendMemory,
		HTTPAddr:     ":8080",
		GRPCAddr:     ":9090",
		LogLevel:     "info",
		LogFormat:    "text",
		ApplyTimeout: 3 * time.Second,
	}
}

// LoadConfig builds the configuration from defaults, the YAML file at path
// (if path is non-empty), a .env file in the working directory (if present)
// and environment variables, in increasing order of precedence.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	cfg.Backend = strings.ToLower(cfg.Backend)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", describe(err))
	}
	if cfg.HTTPAddr == "" && cfg.GRPCAddr == "" && cfg.RESPAddr == "" {
		return nil, errors.New("invalid config: at least one of http_addr, grpc_addr or resp_addr must be set")
	}

	return &cfg, nil
}

// loadDotEnv loads path into the environment if it exists. Variables that are
// already set win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides allows environment variables to override config values
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("NODE_ID"); v != "" {
		cfg.NodeID = v
	}
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("GRPC_ADDR"); v != "" {
		cfg.GRPCAddr = v
	}
	if v := os.Getenv("RESP_ADDR"); v != "" {
		cfg.RESPAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("APPLY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid APPLY_TIMEOUT value: %w", err)
		}
		cfg.ApplyTimeout = d
	}
	return nil
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %q (%s)", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
