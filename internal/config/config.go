package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type (
	// Root joins all configuration blocks.
	Root struct {
		Source     Source     `yaml:"source"`
		Ledger     Ledger     `yaml:"ledger"`
		Notify     Notify     `yaml:"notify"`
		Settlement Settlement `yaml:"settlement"`
	}

	// Source configures the upstream telegraph endpoint.
	Source struct {
		APIURL         string `yaml:"api_url" validate:"omitempty,url"`
		BatchSize      int    `yaml:"batch_size" validate:"omitempty,min=1,max=200"`
		TimeoutSeconds int    `yaml:"timeout_seconds" validate:"omitempty,min=1"`
	}

	// Ledger configures where the per-day files live and their name prefix.
	Ledger struct {
		Dir    string `yaml:"dir" validate:"required"`
		Prefix string `yaml:"prefix"`
	}

	// Notify configures the mail submission endpoint. Credentials come
	// from the environment, not from this file.
	Notify struct {
		SMTPHost string `yaml:"smtp_host"`
		SMTPPort int    `yaml:"smtp_port" validate:"omitempty,min=1,max=65535"`
		To       string `yaml:"to" validate:"omitempty,email"`
	}

	// Settlement configures the optional once-guard. The guard changes
	// the original fire-on-every-window-hit behavior, so it is off unless
	// explicitly enabled.
	Settlement struct {
		OnceGuard  bool   `yaml:"once_guard"`
		MarkerPath string `yaml:"marker_path"`
	}
)

// LoadRoot reads and validates the main configuration file.
func LoadRoot(path string) (Root, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Root{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Root
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Root{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Root{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
