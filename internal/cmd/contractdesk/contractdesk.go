// Package contractdesk parses API command flags and starts the HTTP server.
package contractdesk

import (
	"context"
	"flag"
	"fmt"
	"log"

	entrypoint "github.com/louisbranch/contractdesk/internal/platform/cmd"
	"github.com/louisbranch/contractdesk/internal/platform/config"
	httpapi "github.com/louisbranch/contractdesk/internal/services/contracts/api/http"
	"github.com/louisbranch/contractdesk/internal/services/contracts/app"
	"github.com/louisbranch/contractdesk/internal/services/contracts/seed"
)

// Config holds contractdesk command configuration.
type Config struct {
	config.StorageConfig
	HTTPAddr       string  `env:"CONTRACTDESK_HTTP_ADDR"        envDefault:"localhost:8095"`
	RateLimitRPS   float64 `env:"CONTRACTDESK_RATE_LIMIT_RPS"   envDefault:"20"`
	RateLimitBurst int     `env:"CONTRACTDESK_RATE_LIMIT_BURST" envDefault:"40"`
	SeedOnEmpty    bool    `env:"CONTRACTDESK_SEED_ON_EMPTY"    envDefault:"false"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.Driver, "storage", cfg.Driver, "storage driver: sqlite, postgres, or memory")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite database path")
	fs.BoolVar(&cfg.SeedOnEmpty, "seed-on-empty", cfg.SeedOnEmpty, "load the sample dataset when the store is empty")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if err := cfg.StorageConfig.Normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the contract API and blocks until ctx is canceled.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceContractDesk, func(ctx context.Context) error {
		server, err := newServer(ctx, cfg)
		if err != nil {
			return err
		}
		return server.Serve(ctx)
	})
}

func newServer(ctx context.Context, cfg Config) (*app.Server, error) {
	svc, err := app.OpenService(ctx, cfg.StorageConfig, app.WithLogger(log.Default()))
	if err != nil {
		return nil, err
	}
	if cfg.SeedOnEmpty {
		if err := seedSample(ctx, svc); err != nil {
			_ = svc.Close()
			return nil, err
		}
	}
	handler := httpapi.NewHandler(svc, httpapi.Options{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})
	server, err := app.NewServer(cfg.HTTPAddr, handler, svc)
	if err != nil {
		_ = svc.Close()
		return nil, err
	}
	return server, nil
}

func seedSample(ctx context.Context, svc *app.Service) error {
	data, err := seed.Sample()
	if err != nil {
		return fmt.Errorf("load sample: %w", err)
	}
	seeded, err := svc.Seed(ctx, data.Blueprints, data.Contracts, false)
	if err != nil {
		return fmt.Errorf("seed sample: %w", err)
	}
	if seeded {
		log.Printf("seeded %d blueprints and %d contracts", len(data.Blueprints), len(data.Contracts))
	}
	return nil
}
