package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	contractdeskcmd "github.com/louisbranch/contractdesk/internal/cmd/contractdesk"
	entrypoint "github.com/louisbranch/contractdesk/internal/platform/cmd"
	"github.com/louisbranch/contractdesk/internal/platform/config"
)

func main() {
	cfg, err := contractdeskcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceContractDesk))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := contractdeskcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
