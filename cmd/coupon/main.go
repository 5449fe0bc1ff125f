// Command coupon runs the first-come-first-served coupon issuance service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/coupon/internal/adapters/driving/cli"
	"github.com/custodia-labs/coupon/internal/app"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// cobra reports the error itself.
	if err := cli.Execute(ctx, version, app.Build); err != nil {
		stop()
		os.Exit(1)
	}
}
