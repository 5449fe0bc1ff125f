// Package app wires adapters and services into the service graph the CLI
// drives.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/coupon/internal/adapters/driven/config/file"
	redisstore "github.com/custodia-labs/coupon/internal/adapters/driven/redis"
	"github.com/custodia-labs/coupon/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/coupon/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/coupon/internal/adapters/driving/cli"
	"github.com/custodia-labs/coupon/internal/core/domain"
	"github.com/custodia-labs/coupon/internal/core/ports/driven"
	"github.com/custodia-labs/coupon/internal/core/services"
	"github.com/custodia-labs/coupon/internal/logger"
)

// Ensure Build satisfies the CLI factory.
var _ cli.Factory = Build

// stores groups the relational ports, whichever backend provides them.
type stores struct {
	coupons   driven.CouponStore
	tx        driven.Transactor
	scheduler driven.SchedulerStore
}

// queue groups the request repository and the lock it is used with.
type queue struct {
	requests driven.IssueRequestRepository
	locker   driven.Locker

	// local is set when requests live in process memory.
	local bool
}

// Build creates the service graph for opts.
func Build(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		closers = nil
		return errors.Join(errs...)
	}

	configStore, err := newConfigStore(opts)
	if err != nil {
		return nil, err
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	if err := settingsService.Validate(); err != nil {
		logger.Warn("settings: %v", err)
	}

	st, closeStores, err := newStores(opts, settings.Storage)
	if err != nil {
		return nil, err
	}
	if closeStores != nil {
		closers = append(closers, closeStores)
	}

	q, closeQueue, err := newQueue(ctx, opts, settings)
	if err != nil {
		return nil, errors.Join(err, closeAll())
	}
	if closeQueue != nil {
		closers = append(closers, closeQueue)
	}

	cache := services.NewCouponCacheService(st.coupons, settings.Cache)
	issuer := services.NewCouponIssueService(st.tx, q.locker, cache, settings.Lock)
	listener := services.NewCouponIssueListener(q.requests, issuer)

	schedulerConfig := domain.DefaultSchedulerConfig()
	schedulerConfig.TaskConfigs[domain.TaskIDIssueConsume] = domain.TaskConfig{
		Enabled:  true,
		Interval: settings.Consumer.Interval,
	}

	logger.Debug("services ready: queue=%s ephemeral=%t", settings.Queue.Backend, opts.Ephemeral)

	return &cli.Services{
		Settings:        settingsService,
		Coupons:         services.NewCouponService(st.coupons),
		Issuer:          issuer,
		AsyncV1:         services.NewAsyncCouponIssueServiceV1(cache, q.requests, q.locker, settings.Lock),
		AsyncV2:         services.NewAsyncCouponIssueServiceV2(cache, q.requests),
		Listener:        listener,
		Scheduler:       services.NewScheduler(schedulerConfig, st.scheduler, listener),
		SchedulerConfig: schedulerConfig,
		LocalQueue:      q.local,
		Close:           closeAll,
	}, nil
}

func newConfigStore(opts cli.Options) (driven.ConfigStore, error) {
	if opts.Ephemeral {
		return memory.NewConfigStore(), nil
	}
	store, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	return store, nil
}

func newStores(opts cli.Options, cfg domain.StorageSettings) (stores, func() error, error) {
	if opts.Ephemeral {
		coupons, issues := memory.NewCouponStore(), memory.NewCouponIssueStore()
		return stores{
			coupons:   coupons,
			tx:        memory.NewTransactor(coupons, issues),
			scheduler: memory.NewSchedulerStore(),
		}, nil, nil
	}

	dataDir := cfg.DataDir
	if dataDir == "" && opts.ConfigDir != "" {
		dataDir = filepath.Join(opts.ConfigDir, "data")
	}
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return stores{}, nil, fmt.Errorf("opening storage: %w", err)
	}
	logger.Debug("storage: %s", store.Path())
	return stores{
		coupons:   store.CouponStore(),
		tx:        store.Transactor(),
		scheduler: store.SchedulerStore(),
	}, store.Close, nil
}

func newQueue(ctx context.Context, opts cli.Options, settings *domain.AppSettings) (queue, func() error, error) {
	if opts.Ephemeral || settings.Queue.Backend != domain.QueueBackendRedis {
		return queue{
			requests: memory.NewIssueRequestRepository(),
			locker:   memory.NewLocker(),
			local:    true,
		}, nil, nil
	}

	client, err := redisstore.NewClient(ctx, settings.Redis)
	if err != nil {
		return queue{}, nil, err
	}
	return queue{
		requests: redisstore.NewIssueRequestRepository(client),
		locker:   redisstore.NewLocker(client),
	}, client.Close, nil
}
