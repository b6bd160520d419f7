package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvConfig carries secrets and run flags taken from the environment
// (prefix NEWSBOY_). SMTP credentials are optional: without them the
// settlement step archives but skips delivery, it does not fail.
type EnvConfig struct {
	SMTPUser     string `koanf:"smtp_user"`
	SMTPPassword string `koanf:"smtp_password"`
	ForceSettle  bool   `koanf:"force_settle"`
}

// LoadEnv reads NEWSBOY_-prefixed environment variables.
func LoadEnv() (*EnvConfig, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider("NEWSBOY_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "NEWSBOY_"))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env variables: %w", err)
	}

	var cfg EnvConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal env config: %w", err)
	}
	return &cfg, nil
}
