// Command tollgate runs the licence economy.
package main

import (
	"context"
	"maps"
	"os"

	"github.com/custodia-labs/tollgate/internal/adapters/driven/config/file"
	"github.com/custodia-labs/tollgate/internal/adapters/driven/metrics"
	"github.com/custodia-labs/tollgate/internal/adapters/driven/storage/jsonl"
	"github.com/custodia-labs/tollgate/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/tollgate/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/tollgate/internal/adapters/driving/cli"
	"github.com/custodia-labs/tollgate/internal/core/domain"
	"github.com/custodia-labs/tollgate/internal/core/ports/driven"
	"github.com/custodia-labs/tollgate/internal/core/services"
	"github.com/custodia-labs/tollgate/internal/logger"
)

func main() {
	cli.SetBootstrap(bootstrap)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// records groups the four collections the core runs on.
type records struct {
	accounts driven.AccountStore
	tokens   driven.TokenStore
	grants   driven.GrantStore
	redeemed driven.RedemptionStore
}

// bootstrap wires the stores, services and metrics for one run.
func bootstrap(opts cli.Options) (*cli.Services, error) {
	cfg, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, err
	}
	settings, err := file.LoadSettings(cfg)
	if err != nil {
		return nil, err
	}

	var (
		recs      records
		schedules driven.SchedulerStore
		journal   driven.JournalStore
		closeFn   func() error
	)

	if opts.Ephemeral {
		logger.Info("storage: ephemeral, nothing will be saved")
		recs = records{
			accounts: memory.NewRecordStore[domain.OperatorAccount](),
			tokens:   memory.NewRecordStore[domain.LicenseToken](),
			grants:   memory.NewRecordStore[domain.AccessGrant](),
			redeemed: memory.NewRecordStore[domain.RedemptionRecord](),
		}
	} else {
		files, err := jsonl.Open(opts.DataDir)
		if err != nil {
			return nil, err
		}
		db, err := sqlite.NewStore(opts.DataDir)
		if err != nil {
			return nil, err
		}
		logger.Debug("storage: records in %s, database %s", files.Dir(), db.Path())
		recs = records{
			accounts: files.Accounts,
			tokens:   files.Tokens,
			grants:   files.Grants,
			redeemed: files.Redeemed,
		}
		schedules = db.SchedulerStore()
		journal = db.JournalStore()
		closeFn = db.Close
	}

	collector := metrics.NewCollector("")

	// The config store is the privilege source so edits apply without a restart.
	ledger := services.NewLedger(recs.accounts, cfg)
	pool := services.NewPool(ledger, recs.tokens, recs.redeemed, settings.Rates)
	registry := services.NewRegistry(recs.grants)

	accessOpts := []services.AccessOption{
		services.WithMetrics(collector),
		services.WithRedeemLimit(settings.Redeem),
	}
	if journal != nil {
		accessOpts = append(accessOpts, services.WithJournal(journal))
	}
	access := services.NewAccessService(ledger, pool, registry, accessOpts...)
	scheduler := services.NewScheduler(settings.Scheduler, schedules, registry, pool, collector)

	return &cli.Services{
		Access:    access,
		Scheduler: scheduler,
		Journal:   journal,
		Settings:  settings,
		Config:    cfg,
		Metrics:   collector.Handler(),
		Watch: func(ctx context.Context) error {
			return cfg.Watch(ctx, func() {
				reloaded, err := file.LoadSettings(cfg)
				if err != nil {
					logger.Warn("config: %v", err)
					return
				}
				logger.Info("config: %d privileged operators", len(reloaded.PrivilegedOperators))
				if !maps.Equal(reloaded.Rates, settings.Rates) {
					logger.Warn("config: pricing changes take effect after a restart")
				}
			})
		},
		Close: closeFn,
	}, nil
}
