package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/policyportal/internal/client/cli"
	"github.com/dmitrijs2005/policyportal/internal/client/config"
	"github.com/dmitrijs2005/policyportal/internal/flagx"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	args := flagx.Positional(os.Args[1:], config.ValueFlags)
	if err := app.Run(ctx, args); err != nil {
		stop()
		os.Exit(1)
	}
}
