// Package config reads process settings from the environment and flags.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds server settings.
type Config struct {
	Addr   string `env:"SCOREPAD_ADDR"    envDefault:"127.0.0.1:8080"`
	DBPath string `env:"SCOREPAD_DB_PATH" envDefault:"scorepad.db"`
	WebDir string `env:"SCOREPAD_WEB_DIR"` // empty serves the embedded assets
}

// Parse loads the environment, then lets flags override it.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to the SQLite database")
	fs.StringVar(&cfg.WebDir, "web", cfg.WebDir, "serve static files from this directory instead of the embedded ones")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
