// Package config reads the realfolio settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/etnz/realfolio/oracle"
	"github.com/joho/godotenv"
)

// Config holds the settings shared by the CLI and the HTTP server.
type Config struct {
	LedgerDir         string        `env:"RF_LEDGER_DIR" envDefault:"."`
	Portfolio         string        `env:"RF_PORTFOLIO" envDefault:"default"`
	ExpectedInflation float64       `env:"RF_EXPECTED_INFLATION" envDefault:"3"`
	FallbackUSDTRY    float64       `env:"RF_FALLBACK_USDTRY" envDefault:"36.5"`
	RateTTL           time.Duration `env:"RF_RATE_TTL" envDefault:"300s"`
	CPITTL            time.Duration `env:"RF_CPI_TTL" envDefault:"24h"`
	HTTPAddr          string        `env:"RF_HTTP_ADDR" envDefault:":8080"`
	CORSOrigin        string        `env:"RF_CORS_ORIGIN" envDefault:"*"`
	GeminiAPIKey      string        `env:"GEMINI_API_KEY"`
}

// Load reads the .env files, when present, then the environment. Variables
// already set in the environment win over the files.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("cannot load %s: %w", f, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	var errs []error
	if c.FallbackUSDTRY <= 0 {
		errs = append(errs, fmt.Errorf("RF_FALLBACK_USDTRY must be positive, got %v", c.FallbackUSDTRY))
	}
	if c.RateTTL <= 0 || c.CPITTL <= 0 {
		errs = append(errs, errors.New("RF_RATE_TTL and RF_CPI_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// Oracle returns the oracle configuration.
func (c Config) Oracle() oracle.Config {
	o := oracle.DefaultConfig()
	o.FallbackRate = c.FallbackUSDTRY
	o.ExpectedInflation = c.ExpectedInflation
	o.RateTTL = c.RateTTL
	o.CPITTL = c.CPITTL
	return o
}
