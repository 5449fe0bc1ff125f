package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/coupon/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/coupon/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the coupon HTTP API until interrupted.

With --with-consumer the issue request consumer runs in the same process.
When the queue backend is memory the consumer always runs in process, since
no other process can see the queued requests.`,
	RunE: runServe,
}

var (
	serveAddr         string
	serveWithConsumer bool
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().BoolVar(&serveWithConsumer, "with-consumer", false, "also run the issue request consumer")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if settingsService == nil || couponService == nil || couponIssuer == nil ||
		asyncIssuerV1 == nil || asyncIssuerV2 == nil {
		return errors.New("coupon services not configured")
	}
	withConsumer := serveWithConsumer || localQueue
	if withConsumer && scheduler == nil {
		return errors.New("scheduler not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if serveAddr != "" {
		settings.Server.Addr = serveAddr
	}

	handler := httpapi.NewHandler(httpapi.Services{
		Coupons: couponService,
		Issuer:  couponIssuer,
		AsyncV1: asyncIssuerV1,
		AsyncV2: asyncIssuerV2,
	})
	server := httpapi.NewServer(settings.Server,
		httpapi.NewRouter(handler, httpapi.NewRateLimiter(settings.RateLimit)))

	if localQueue && !serveWithConsumer {
		logger.Info("queue backend is memory: running the issue request consumer in process")
	}

	ctx := commandContext(cmd)
	if !withConsumer {
		return ignoreCancel(server.Run(ctx))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx)
	})
	g.Go(func() error {
		return ignoreCancel(scheduler.Start(gctx))
	})
	return ignoreCancel(g.Wait())
}
