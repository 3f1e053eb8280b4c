package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Portfolio != "default" || cfg.FallbackUSDTRY != 36.5 || cfg.RateTTL != 300*time.Second || cfg.CPITTL != 24*time.Hour {
		t.Errorf("Load() = %+v, want the defaults", cfg)
	}
	o := cfg.Oracle()
	if o.FallbackRate != 36.5 || o.ExpectedInflation != 3 || o.Attempts != 3 {
		t.Errorf("Oracle() = %+v, want the defaults", o)
	}
}

func TestLoad_Environment(t *testing.T) {
	dotenv := filepath.Join(t.TempDir(), ".env")
	content := "RF_PORTFOLIO=family\nRF_RATE_TTL=1m\nRF_FALLBACK_USDTRY=40\n"
	if err := os.WriteFile(dotenv, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RF_FALLBACK_USDTRY", "41.5")
	// godotenv sets variables for the process, restore them after the test.
	t.Setenv("RF_PORTFOLIO", "")
	os.Unsetenv("RF_PORTFOLIO")
	t.Setenv("RF_RATE_TTL", "")
	os.Unsetenv("RF_RATE_TTL")

	cfg, err := Load(dotenv)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Portfolio != "family" {
		t.Errorf("Load().Portfolio = %q, want family", cfg.Portfolio)
	}
	if cfg.RateTTL != time.Minute {
		t.Errorf("Load().RateTTL = %v, want 1m", cfg.RateTTL)
	}
	if cfg.FallbackUSDTRY != 41.5 {
		t.Errorf("Load().FallbackUSDTRY = %v, want 41.5 from the environment", cfg.FallbackUSDTRY)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("RF_FALLBACK_USDTRY", "-1")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Errorf("Load() = nil error, want an invalid fallback rate")
	}
	t.Setenv("RF_FALLBACK_USDTRY", "abc")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Errorf("Load() = nil error, want a parse error")
	}
}
