package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"regwatch/internal/config"
	"regwatch/internal/logging"
)

// Daemon repeats cycles on a timer with single-instance locking.
type Daemon struct {
	cfg    *config.Config
	runner *Runner
	logger *slog.Logger

	lockPath string
	lock     *flock.Flock
}

// NewDaemon constructs a daemon around a runner.
func NewDaemon(cfg *config.Config, runner *Runner, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || runner == nil {
		return nil, errors.New("daemon requires config and runner")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.DataDir, "regwatch.lock")
	return &Daemon{
		cfg:      cfg,
		runner:   runner,
		logger:   logger,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Run blocks, executing cycles until the context is canceled. A failed
// cycle shortens the wait to the error retry interval.
func (d *Daemon) Run(ctx context.Context) error {
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another regwatch instance holds %s", d.lockPath)
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
	}()

	d.logger.Info("daemon started",
		logging.String("lock", d.lockPath),
		logging.Duration("cycle_interval", d.cycleInterval()))

	for {
		result, err := d.runner.RunCycle(ctx)
		wait := d.cycleInterval()
		if err != nil {
			if ctx.Err() != nil {
				d.logger.Info("daemon stopping")
				return nil
			}
			d.logger.Error("cycle failed", logging.Error(err))
			wait = d.errorRetryInterval()
		} else if result.IngestErr != nil {
			wait = d.errorRetryInterval()
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			d.logger.Info("daemon stopping")
			return nil
		case <-timer.C:
		}
	}
}

func (d *Daemon) cycleInterval() time.Duration {
	if d.cfg.Workflow.CycleInterval <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(d.cfg.Workflow.CycleInterval) * time.Second
}

func (d *Daemon) errorRetryInterval() time.Duration {
	if d.cfg.Workflow.ErrorRetryInterval <= 0 {
		return time.Hour
	}
	return time.Duration(d.cfg.Workflow.ErrorRetryInterval) * time.Second
}
