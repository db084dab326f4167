package jobs

import (
	"context"
	"log/slog"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/pkg/metrics"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs a sweep every five seconds.
const DefaultSchedule = "*/5 * * * * *"

// SweepJob periodically expires unassigned pending orders. A run that is
// still going when the next tick fires is skipped.
type SweepJob struct {
	name     string
	schedule string
	command  commands.ExpirePendingOrdersCommand
	handler  commands.ExpirePendingOrdersCommandHandler
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewDeclineUnclaimedJob declines pending orders nobody accepted within window.
func NewDeclineUnclaimedJob(
	handler commands.ExpirePendingOrdersCommandHandler,
	window time.Duration,
	schedule string,
	logger *slog.Logger,
) (*SweepJob, error) {
	cmd, err := commands.NewDeclineUnclaimedCommand(window)
	if err != nil {
		return nil, err
	}
	return newSweepJob("decline_unclaimed", schedule, cmd, handler, logger), nil
}

// NewAutoCancelStaleJob cancels pending orders older than threshold.
func NewAutoCancelStaleJob(
	handler commands.ExpirePendingOrdersCommandHandler,
	threshold time.Duration,
	schedule string,
	logger *slog.Logger,
) (*SweepJob, error) {
	cmd, err := commands.NewAutoCancelStalePendingCommand(threshold)
	if err != nil {
		return nil, err
	}
	return newSweepJob("auto_cancel_stale", schedule, cmd, handler, logger), nil
}

func newSweepJob(
	name, schedule string,
	cmd commands.ExpirePendingOrdersCommand,
	handler commands.ExpirePendingOrdersCommandHandler,
	logger *slog.Logger,
) *SweepJob {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &SweepJob{
		name:     name,
		schedule: schedule,
		command:  cmd,
		handler:  handler,
		cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:   logger.With("component", name+"_job"),
	}
}

// Name is the job label used in logs and metrics.
func (j *SweepJob) Name() string { return j.name }

// Run performs one sweep and returns how many orders it closed. The command
// handler logs what it expired; Run only counts it and reports failures.
func (j *SweepJob) Run(ctx context.Context) int {
	expired, err := j.handler.Handle(ctx, j.command)
	if expired > 0 {
		metrics.SweepExpiredTotal.WithLabelValues(j.name).Add(float64(expired))
	}
	if err != nil {
		j.logger.ErrorContext(ctx, "sweep failed", "error", err)
	}
	return expired
}

// Start schedules the sweep and starts the cron runner.
func (j *SweepJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		j.Run(context.Background())
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "sweep job started", "schedule", j.schedule)
	return nil
}

// Stop waits for a running sweep to finish.
func (j *SweepJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "sweep job stopped")
}
