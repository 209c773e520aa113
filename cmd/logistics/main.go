// Package main starts the cross-region logistics HTTP service.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	logisticscmd "github.com/gogidix/cross-region-logistics/internal/cmd/logistics"
	"github.com/gogidix/cross-region-logistics/internal/platform/config"
)

func main() {
	cfg, err := logisticscmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix("[LOGISTICS] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := logisticscmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
