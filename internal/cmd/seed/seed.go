// Package seed parses seed command flags and loads fixtures into the store.
package seed

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	entrypoint "github.com/louisbranch/contractdesk/internal/platform/cmd"
	"github.com/louisbranch/contractdesk/internal/platform/config"
	"github.com/louisbranch/contractdesk/internal/services/contracts/app"
	"github.com/louisbranch/contractdesk/internal/services/contracts/seed"
)

// Config holds seed command configuration.
type Config struct {
	config.StorageConfig
	// File is a YAML fixture; empty loads the embedded sample.
	File  string
	Force bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.File, "file", "", "YAML fixture to load (default: embedded sample)")
	fs.BoolVar(&cfg.Force, "force", false, "replace existing records")
	fs.StringVar(&cfg.Driver, "storage", cfg.Driver, "storage driver: sqlite, postgres, or memory")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite database path")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.File = strings.TrimSpace(cfg.File)
	if err := cfg.StorageConfig.Normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run loads the dataset and writes it to the configured store. Existing
// records are left alone unless Force is set.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	data, err := loadDataset(cfg.File)
	if err != nil {
		return err
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSeed, func(ctx context.Context) error {
		svc, err := app.OpenService(ctx, cfg.StorageConfig)
		if err != nil {
			return err
		}
		defer svc.Close()

		seeded, err := svc.Seed(ctx, data.Blueprints, data.Contracts, cfg.Force)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		if !seeded {
			fmt.Fprintln(out, "store already has records; use -force to replace them")
			return nil
		}
		fmt.Fprintf(out, "seeded %d blueprints and %d contracts\n", len(data.Blueprints), len(data.Contracts))
		return nil
	})
}

func loadDataset(path string) (seed.Dataset, error) {
	if path == "" {
		return seed.Sample()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return seed.Dataset{}, fmt.Errorf("read fixture: %w", err)
	}
	data, err := seed.Parse(raw)
	if err != nil {
		return seed.Dataset{}, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return data, nil
}
