// Package mcp parses MCP command flags and selects stdio or HTTP transport.
package mcp

import (
	"context"
	"flag"
	"fmt"
	"strings"

	entrypoint "github.com/louisbranch/contractdesk/internal/platform/cmd"
	"github.com/louisbranch/contractdesk/internal/platform/config"
	mcpapi "github.com/louisbranch/contractdesk/internal/services/contracts/api/mcp"
	"github.com/louisbranch/contractdesk/internal/services/contracts/app"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// serverVersion identifies the MCP server version.
const serverVersion = "0.1.0"

// Config holds MCP command configuration.
type Config struct {
	config.StorageConfig
	HTTPAddr  string `env:"CONTRACTDESK_MCP_HTTP_ADDR" envDefault:"localhost:8096"`
	Transport string `env:"CONTRACTDESK_MCP_TRANSPORT" envDefault:"stdio"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&cfg.Driver, "storage", cfg.Driver, "storage driver: sqlite, postgres, or memory")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite database path")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.Transport = strings.ToLower(strings.TrimSpace(cfg.Transport))
	switch mcpapi.TransportKind(cfg.Transport) {
	case mcpapi.TransportStdio, mcpapi.TransportHTTP:
	default:
		return Config{}, fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
	if err := cfg.StorageConfig.Normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP adapter over the configured transport.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		svc, err := app.OpenService(ctx, cfg.StorageConfig)
		if err != nil {
			return err
		}
		server := mcpapi.NewServer(svc, serverVersion)

		if mcpapi.TransportKind(cfg.Transport) == mcpapi.TransportHTTP {
			httpServer, err := app.NewServer(cfg.HTTPAddr, mcpapi.HTTPHandler(server), svc)
			if err != nil {
				_ = svc.Close()
				return err
			}
			return httpServer.Serve(ctx)
		}

		defer svc.Close()
		return mcpapi.Run(ctx, server, &mcp.StdioTransport{})
	})
}
