package main

// NOTE: Run it with the token address passed as an env variable:
// ERC20=0x5FbDB2315678afecb367f032d93F642f64180aa3 PRIVATE_KEY=... go run ./scripts/deploy-marketplace

import (
	"context"
	"os"
	"os/signal"

	"github.com/nftmarket/deploy-scripts/deploy"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := deploy.Execute(ctx, deploy.NewMarketplaceCommand(deploy.DialFramework), os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
