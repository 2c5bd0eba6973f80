package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
	if cfg.GroqModel != "llama-3.3-70b-versatile" || cfg.GroqTimeout != 30*time.Second {
		t.Fatalf("groq defaults = %q / %v", cfg.GroqModel, cfg.GroqTimeout)
	}
	if cfg.ScreeningAmount != 50000 {
		t.Fatalf("screening amount = %d", cfg.ScreeningAmount)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("KG_ADDR", ":9090")
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("KG_SCREENING_AMOUNT", "25000")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.GroqAPIKey != "gsk_test" || cfg.ScreeningAmount != 25000 {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("KG_SCREENING_AMOUNT", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for zero amount")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
