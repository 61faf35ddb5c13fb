package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	mcpcmd "github.com/louisbranch/contractdesk/internal/cmd/mcp"
	entrypoint "github.com/louisbranch/contractdesk/internal/platform/cmd"
	"github.com/louisbranch/contractdesk/internal/platform/config"
)

// main starts the MCP server on stdio or HTTP. Stdout carries the protocol,
// so logs go to stderr.
func main() {
	cfg, err := mcpcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetOutput(os.Stderr)
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceMCP))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mcpcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve MCP: %v", err)
	}
}
