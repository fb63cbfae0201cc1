package notification

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ReaperConfig holds configuration for the overdue reminder reaper.
type ReaperConfig struct {
	// Interval is how often the reaper scans for overdue reminders.
	Interval time.Duration

	// StaleThreshold is how far past its fire time a scheduled reminder can be
	// before the reaper considers it lost and re-enqueues it.
	StaleThreshold time.Duration

	// BatchSize is the maximum number of overdue reminders to recover per cycle.
	BatchSize int
}

// Reaper periodically scans the reminder store for jobs whose fire time has
// passed but which are still marked scheduled, and re-enqueues them. This
// ensures a reminder is never permanently lost even if Redis data is wiped or
// a worker crashes without recovery.
//
// The store is the source of truth; the reaper reconciles the queue with it
// on a timer.
type Reaper struct {
	reminders ReminderStore
	enqueuer  Enqueuer
	config    ReaperConfig
}

// NewReaper creates a new overdue reminder reaper.
func NewReaper(reminders ReminderStore, enqueuer Enqueuer, cfg ReaperConfig) *Reaper {
	// Sensible defaults
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.StaleThreshold <= 0 {
		cfg.StaleThreshold = 10 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}

	return &Reaper{
		reminders: reminders,
		enqueuer:  enqueuer,
		config:    cfg,
	}
}

// Run starts the reaper loop. It blocks until the context is cancelled.
// Should be called in a goroutine.
func (r *Reaper) Run(ctx context.Context) {
	slog.Info("reaper started",
		"interval", r.config.Interval,
		"stale_threshold", r.config.StaleThreshold,
		"batch_size", r.config.BatchSize,
	)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("reaper stopped")
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

// sweep performs one reaper cycle: find overdue reminders and re-enqueue them.
func (r *Reaper) sweep(ctx context.Context) {
	olderThan := time.Now().Add(-r.config.StaleThreshold)

	overdue, err := r.reminders.ListOverdue(ctx, olderThan, r.config.BatchSize)
	if err != nil {
		slog.Error("reaper: failed to list overdue reminders", "error", err)
		return
	}

	if len(overdue) == 0 {
		return
	}

	slog.Warn("reaper: found overdue reminders", "count", len(overdue))

	recovered := 0
	for _, job := range overdue {
		err := r.enqueuer.EnqueueReminder(job.ID, job.AppointmentID, job.Kind, time.Now())
		if errors.Is(err, ErrDuplicateReminder) {
			// The task is still sitting in the queue; leave it alone.
			continue
		}
		if err != nil {
			slog.Error("reaper: failed to re-enqueue reminder",
				"job_id", job.ID,
				"appointment_id", job.AppointmentID,
				"error", err,
			)
			continue
		}

		recovered++
		slog.Info("reaper: recovered overdue reminder",
			"job_id", job.ID,
			"appointment_id", job.AppointmentID,
			"overdue_by", time.Since(job.FireAt).Round(time.Second),
		)
	}

	if recovered > 0 {
		slog.Info("reaper: sweep complete", "recovered", recovered, "total_overdue", len(overdue))
	}
}
