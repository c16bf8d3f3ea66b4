package ingest

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/HuskeLuv/SFC-sub003/internal/logger"
)

// Scheduler triggers the ingestion runs on cron expressions with a seconds field.
type Scheduler struct {
	cron    *cron.Cron
	baseCtx context.Context
}

// NewScheduler creates a Scheduler whose jobs run with baseCtx.
func NewScheduler(baseCtx context.Context) *Scheduler {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		baseCtx: baseCtx,
	}
}

// Add registers a job. Errors are logged; the next tick retries.
func (s *Scheduler) Add(name, spec string, job func(context.Context) (*RunResult, error)) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, func() {
		if _, err := job(s.baseCtx); err != nil {
			logger.Named("ingest").Errorw("scheduled run failed", "job", name, "error", err)
		}
	})
}

// Register adds the quote and index jobs of runner. An empty spec skips that job.
func (s *Scheduler) Register(runner *Runner, quotesSpec, indexesSpec string) error {
	if quotesSpec != "" {
		if _, err := s.Add("quotes", quotesSpec, runner.SyncQuotes); err != nil {
			return err
		}
	}
	if indexesSpec != "" {
		if _, err := s.Add("indexes", indexesSpec, runner.SyncIndexes); err != nil {
			return err
		}
	}
	return nil
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	logger.Named("ingest").Info("scheduler started")
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Named("ingest").Info("scheduler stopped")
}
