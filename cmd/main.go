package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/krisalay/dataset-host/app"
)

func main() {
	configFile := flag.String("c", "", "config file (YAML, JSON or TOML)")
	flag.Parse()

	if *configFile != "" {
		if _, err := os.Stat(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "dataset-host: config file: %v\n", err)
			os.Exit(2)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, app.Options{ConfigFile: *configFile}); err != nil {
		fmt.Fprintf(os.Stderr, "dataset-host: %v\n", err)
		stop()
		os.Exit(1)
	}
}
