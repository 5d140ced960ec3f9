package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// ErrInvalidSchedule reports a cron expression that cannot be parsed.
var ErrInvalidSchedule = errors.New("invalid schedule")

// Schedule runs the full export of sources on a cron schedule until ctx is
// cancelled. expr accepts standard five-field expressions and descriptors
// such as "@hourly" or "@every 10m". A run that is still going when the next
// one is due is skipped rather than overlapped.
func (e *Exporter) Schedule(ctx context.Context, expr string, sources []types.Source) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchedule, expr, err)
	}

	log := cronLogger{e.logger.With("component", "scheduler")}
	c := cron.New(cron.WithLogger(log), cron.WithChain(cron.SkipIfStillRunning(log)))
	if _, err := c.AddFunc(expr, func() { e.Run(ctx, sources) }); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchedule, expr, err)
	}

	c.Start()
	e.logger.Info("scheduler started", "schedule", expr, "sources", len(sources))

	<-ctx.Done()
	<-c.Stop().Done()
	e.logger.Info("scheduler stopped")
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
