package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/HuskeLuv/SFC-sub003/internal/config"
	"github.com/HuskeLuv/SFC-sub003/internal/database"
	"github.com/HuskeLuv/SFC-sub003/internal/ingest"
	"github.com/HuskeLuv/SFC-sub003/internal/logger"
)

// withDeps opens the database and the market-data wiring for one command.
func withDeps(fn func(cfg *config.Config, deps *ingest.Deps) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return err
	}
	defer dbManager.Close()

	deps, err := ingest.NewDeps(cfg, dbManager.DB())
	if err != nil {
		return err
	}
	defer deps.Close()
	return fn(cfg, deps)
}

// syncCmd runs one ingestion job once.
type syncCmd struct {
	name     string
	synopsis string
}

func (c *syncCmd) Name() string     { return c.name }
func (c *syncCmd) Synopsis() string { return c.synopsis }
func (c *syncCmd) Usage() string {
	return fmt.Sprintf("%s\n\n%s.\n", c.name, c.synopsis)
}
func (c *syncCmd) SetFlags(*flag.FlagSet) {}

func (c *syncCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	err := withDeps(func(_ *config.Config, deps *ingest.Deps) error {
		job := deps.Runner.SyncIndexes
		if c.name == "quotes" {
			job = deps.Runner.SyncQuotes
		}
		_, err := job(ctx)
		return err
	})
	if err != nil {
		logger.Get().Errorf("%s: %v", c.name, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// scheduleCmd runs both jobs on their cron expressions until interrupted.
type scheduleCmd struct {
	quotes  string
	indexes string
	now     bool
}

func (*scheduleCmd) Name() string     { return "schedule" }
func (*scheduleCmd) Synopsis() string { return "runs the ingestion jobs on a cron schedule" }
func (*scheduleCmd) Usage() string {
	return `schedule [-quotes SPEC] [-indexes SPEC] [-now]

Runs the quote and index jobs on six-field cron expressions (seconds first)
until interrupted. Specs default to CRON_QUOTES and CRON_INDEXES; an empty
spec disables that job.
`
}

func (c *scheduleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.quotes, "quotes", "", "cron spec for quotes (default CRON_QUOTES)")
	f.StringVar(&c.indexes, "indexes", "", "cron spec for indexes (default CRON_INDEXES)")
	f.BoolVar(&c.now, "now", false, "run both jobs once before waiting for the schedule")
}

func (c *scheduleCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	err := withDeps(func(cfg *config.Config, deps *ingest.Deps) error {
		quotesSpec, indexesSpec := cfg.CronQuotes, cfg.CronIndexes
		f.Visit(func(fl *flag.Flag) {
			switch fl.Name {
			case "quotes":
				quotesSpec = c.quotes
			case "indexes":
				indexesSpec = c.indexes
			}
		})

		scheduler := ingest.NewScheduler(ctx)
		if err := scheduler.Register(deps.Runner, quotesSpec, indexesSpec); err != nil {
			return err
		}
		if scheduler.Entries() == 0 {
			return fmt.Errorf("nothing to schedule")
		}

		if c.now {
			if _, err := deps.Runner.SyncIndexes(ctx); err != nil {
				logger.Get().Warnf("initial index sync: %v", err)
			}
			if _, err := deps.Runner.SyncQuotes(ctx); err != nil {
				logger.Get().Warnf("initial quote sync: %v", err)
			}
		}

		scheduler.Start()
		logger.Get().Infof("scheduler running with %d job(s)", scheduler.Entries())
		<-ctx.Done()
		scheduler.Stop()
		return nil
	})
	if err != nil {
		logger.Get().Errorf("schedule: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
