package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/nftmarket/deploy-scripts/deploy"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := deploy.Execute(ctx, deploy.NewTokenCommand(deploy.DialFramework), os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
