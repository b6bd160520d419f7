package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "newsboy.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadRoot(t *testing.T) {
	t.Run("full config", func(t *testing.T) {
		path := writeConfig(t, `
source:
  api_url: https://www.cls.cn/nodeapi/telegraphList
  batch_size: 50
  timeout_seconds: 15
ledger:
  dir: ledgers
  prefix: CLS
notify:
  smtp_host: smtp.gmail.com
  smtp_port: 465
settlement:
  once_guard: true
  marker_path: state/last_notified.json
`)
		cfg, err := LoadRoot(path)
		if err != nil {
			t.Fatalf("LoadRoot() error = %v", err)
		}
		if cfg.Source.BatchSize != 50 {
			t.Errorf("BatchSize = %d, want 50", cfg.Source.BatchSize)
		}
		if cfg.Ledger.Dir != "ledgers" || cfg.Ledger.Prefix != "CLS" {
			t.Errorf("Ledger = %+v", cfg.Ledger)
		}
		if !cfg.Settlement.OnceGuard {
			t.Error("OnceGuard should be true")
		}
	})

	t.Run("minimal config uses zero values for optional blocks", func(t *testing.T) {
		cfg, err := LoadRoot(writeConfig(t, "ledger:\n  dir: .\n"))
		if err != nil {
			t.Fatalf("LoadRoot() error = %v", err)
		}
		if cfg.Source.APIURL != "" || cfg.Notify.SMTPPort != 0 {
			t.Errorf("unexpected values: %+v", cfg)
		}
	})

	t.Run("missing ledger dir fails validation", func(t *testing.T) {
		if _, err := LoadRoot(writeConfig(t, "source:\n  batch_size: 10\n")); err == nil {
			t.Error("LoadRoot() should reject a config without ledger.dir")
		}
	})

	t.Run("bad batch size fails validation", func(t *testing.T) {
		if _, err := LoadRoot(writeConfig(t, "ledger:\n  dir: .\nsource:\n  batch_size: 5000\n")); err == nil {
			t.Error("LoadRoot() should reject batch_size over the cap")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadRoot(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("LoadRoot() should fail on a missing file")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		if _, err := LoadRoot(writeConfig(t, "ledger: [broken")); err == nil {
			t.Error("LoadRoot() should fail on malformed yaml")
		}
	})
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("NEWSBOY_SMTP_USER", "user@example.com")
	t.Setenv("NEWSBOY_SMTP_PASSWORD", "secret")
	t.Setenv("NEWSBOY_FORCE_SETTLE", "true")

	cfg, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if cfg.SMTPUser != "user@example.com" || cfg.SMTPPassword != "secret" {
		t.Errorf("credentials not read: %+v", cfg)
	}
	if !cfg.ForceSettle {
		t.Error("ForceSettle should be true")
	}
}

func TestLoadEnv_Empty(t *testing.T) {
	t.Setenv("NEWSBOY_SMTP_USER", "")
	t.Setenv("NEWSBOY_SMTP_PASSWORD", "")
	t.Setenv("NEWSBOY_FORCE_SETTLE", "")

	cfg, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if cfg.SMTPUser != "" || cfg.ForceSettle {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}
