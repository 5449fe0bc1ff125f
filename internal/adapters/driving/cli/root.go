// Package cli is the command line driving adapter of the coupon service.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/coupon/internal/core/domain"
	"github.com/custodia-labs/coupon/internal/core/ports/driving"
	"github.com/custodia-labs/coupon/internal/logger"
)

// version is set by Execute from the build.
var version = "dev"

// annotationNoServices marks commands that run without the service graph.
const annotationNoServices = "coupon.no-services"

// Global flags.
var (
	configDir string
	verbose   bool
	ephemeral bool
)

// Driving ports used by the commands. They are set by Configure, or built
// on demand by the factory passed to Execute.
var (
	settingsService driving.SettingsService
	couponService   driving.CouponService
	couponIssuer    driving.CouponIssuer
	asyncIssuerV1   driving.AsyncCouponIssuer
	asyncIssuerV2   driving.AsyncCouponIssuer
	issueListener   driving.IssueListener
	scheduler       driving.Scheduler
	schedulerConfig domain.SchedulerConfig

	// localQueue is set when issue requests only live in this process.
	localQueue bool
)

// Services is the service graph the commands drive.
type Services struct {
	Settings        driving.SettingsService
	Coupons         driving.CouponService
	Issuer          driving.CouponIssuer
	AsyncV1         driving.AsyncCouponIssuer
	AsyncV2         driving.AsyncCouponIssuer
	Listener        driving.IssueListener
	Scheduler       driving.Scheduler
	SchedulerConfig domain.SchedulerConfig

	// LocalQueue reports that issue requests are queued in process memory,
	// so only a consumer in the same process can fulfil them.
	LocalQueue bool

	// Close releases storage and connections. May be nil.
	Close func() error
}

// Options are the global flags relevant to building Services.
type Options struct {
	// ConfigDir overrides the configuration directory. Empty means ~/.coupon.
	ConfigDir string

	// Ephemeral keeps settings, coupons and queues in memory only.
	Ephemeral bool
}

// Factory builds the service graph for one command invocation.
type Factory func(ctx context.Context, opts Options) (*Services, error)

var (
	factory       Factory
	closeServices func() error
)

var rootCmd = &cobra.Command{
	Use:   "coupon",
	Short: "First-come-first-served coupon issuance service",
	Long: `coupon issues limited-quantity coupons to users in request order.

Run 'coupon serve' to start the HTTP API, 'coupon consume' to fulfil queued
issue requests, and 'coupon coupons' to manage coupon policies.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setupServices,
	PersistentPostRunE: teardownServices,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.coupon)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep all state in memory")
}

// Configure installs a ready-made service graph, bypassing the factory.
func Configure(svc *Services) {
	settingsService = svc.Settings
	couponService = svc.Coupons
	couponIssuer = svc.Issuer
	asyncIssuerV1 = svc.AsyncV1
	asyncIssuerV2 = svc.AsyncV2
	issueListener = svc.Listener
	scheduler = svc.Scheduler
	schedulerConfig = svc.SchedulerConfig
	localQueue = svc.LocalQueue
	closeServices = svc.Close
}

// Execute runs the root command. f builds the services for commands that
// need them.
func Execute(ctx context.Context, v string, f Factory) error {
	if v != "" {
		version = v
	}
	factory = f
	err := rootCmd.ExecuteContext(ctx)

	// PersistentPostRunE is skipped when a command fails.
	if closeErr := teardownServices(rootCmd, nil); err == nil {
		err = closeErr
	}
	return err
}

func setupServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if factory == nil || cmd.Annotations[annotationNoServices] == "true" {
		return nil
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, err := factory(ctx, Options{ConfigDir: configDir, Ephemeral: ephemeral})
	if err != nil {
		return err
	}
	Configure(svc)
	return nil
}

func teardownServices(_ *cobra.Command, _ []string) error {
	if closeServices == nil {
		return nil
	}
	err := closeServices()
	closeServices = nil
	return err
}

// commandContext returns the command's context, cancelled on interrupt when
// run through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// errLocalQueue is returned by commands whose queued requests would be lost
// because the queue does not outlive the process.
var errLocalQueue = errors.New(
	"the memory queue backend only reaches a consumer in the same process; " +
		"use 'coupon serve' or set queue.backend = \"redis\"")

// ignoreCancel treats a cancelled context as a clean shutdown.
func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
