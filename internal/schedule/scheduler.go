// Package schedule runs ingestion on a cron schedule.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/ingest"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/logger"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/store"
)

// Trigger names.
const (
	TriggerCron    = "cron"
	TriggerStartup = "startup"
	TriggerManual  = "manual"
)

// Runner performs one ingestion run.
type Runner interface {
	Run(ctx context.Context, rc ingest.RunContext) ingest.Summary
}

// Config configures a Scheduler.
type Config struct {
	// Spec is a five-field cron expression or a descriptor such as @hourly.
	Spec       string
	RunOnStart bool
}

// Launcher starts ingestion runs with fresh run IDs and keeps the summary
// of the latest one.
type Launcher struct {
	runner Runner
	store  store.Store
	log    logger.Logger

	mu      sync.Mutex
	lastRun *ingest.Summary
}

// NewLauncher creates a Launcher for one-shot runs.
func NewLauncher(runner Runner, st store.Store, log logger.Logger) *Launcher {
	return &Launcher{
		runner: runner,
		store:  st,
		log:    log.With(logger.Component("scheduler")),
	}
}

// Scheduler fires Runner on Spec. Runs never overlap; a firing while a run
// is in progress is skipped.
type Scheduler struct {
	*Launcher

	cron       *cron.Cron
	cronLog    cronLogger
	schedule   cron.Schedule
	spec       string
	runOnStart bool
}

// New validates cfg.Spec and builds a Scheduler.
func New(cfg Config, runner Runner, st store.Store, log logger.Logger) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	sched, err := parser.Parse(cfg.Spec)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cron expression %q: %w", cfg.Spec, err)
	}

	l := NewLauncher(runner, st, log)
	cl := cronLogger{log: l.log}

	s := &Scheduler{
		Launcher: l,
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
			cron.WithLogger(cl),
		),
		cronLog:    cl,
		schedule:   sched,
		spec:       cfg.Spec,
		runOnStart: cfg.RunOnStart,
	}
	return s, nil
}

// Next returns the first firing after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// LastRun returns the summary of the most recent run, or nil.
func (l *Launcher) LastRun() *ingest.Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastRun
}

// Run blocks until ctx is cancelled, firing ingestion on schedule. An
// in-flight run is waited for before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		s.Fire(ctx, TriggerCron)
	}))

	if s.runOnStart {
		// Same panic recovery as scheduled runs.
		cron.NewChain(cron.Recover(s.cronLog)).Then(cron.FuncJob(func() {
			s.Fire(ctx, TriggerStartup)
		})).Run()
	}

	s.cron.Start()
	s.log.Info("Scheduler started",
		logger.String("schedule", s.spec),
		logger.Time("next_run", s.Next(time.Now())),
	)

	<-ctx.Done()

	s.log.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped")
	return nil
}

// Fire runs ingestion once with a fresh run ID.
func (l *Launcher) Fire(ctx context.Context, trigger string) ingest.Summary {
	if ctx.Err() != nil {
		return ingest.Summary{Err: ctx.Err()}
	}

	t := ingest.Trigger{
		Name:    trigger,
		RunID:   uuid.NewString(),
		FiredAt: time.Now(),
	}
	l.log.Info("Ingestion triggered",
		logger.String("trigger", t.Name),
		logger.String("run_id", t.RunID),
	)

	sum := l.runner.Run(ctx, ingest.RunContext{Store: l.store, Trigger: t})

	l.mu.Lock()
	l.lastRun = &sum
	l.mu.Unlock()
	return sum
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.log.Debug(msg, kvFields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.log.Error(msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(keysAndValues []any) []logger.Field {
	fields := make([]logger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields = append(fields, logger.Any(key, keysAndValues[i+1]))
	}
	return fields
}
