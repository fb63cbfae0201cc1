package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"medinotify/internal/common"
)

// reminderActor identifies the worker in audit entries for fired reminders.
const reminderActor = "reminder-worker"

// Worker processes fired reminder tasks from the queue. It loads the job,
// re-checks its status so cancelled appointments never message patients, and
// dispatches through the same channel dispatcher as immediate sends.
type Worker struct {
	reminders  ReminderStore
	dispatcher *Dispatcher
}

// NewWorker creates a new reminder worker.
func NewWorker(reminders ReminderStore, dispatcher *Dispatcher) *Worker {
	return &Worker{
		reminders:  reminders,
		dispatcher: dispatcher,
	}
}

// ProcessReminder handles one fired reminder task.
func (w *Worker) ProcessReminder(ctx context.Context, jobID string) error {
	start := time.Now()

	job, err := w.reminders.GetReminder(ctx, jobID)
	if err != nil {
		return fmt.Errorf("fetching reminder job %s: %w", jobID, err)
	}
	if job == nil {
		slog.Error("reminder job not found", "job_id", jobID)
		return fmt.Errorf("reminder job not found: %s", jobID)
	}

	switch job.Status {
	case ReminderCancelled:
		slog.Info("skipping cancelled reminder",
			"job_id", jobID,
			"appointment_id", job.AppointmentID,
		)
		return nil
	case ReminderFired:
		// Already dispatched; the task was a duplicate or a retry after a
		// partial status write.
		return nil
	}

	outcome, err := w.dispatcher.Dispatch(ctx, job.Request(), job.Channels, reminderActor)
	if err != nil {
		// No usable phone is permanent; retrying cannot help.
		_ = w.reminders.UpdateReminderStatus(ctx, job.ID, ReminderFailed)
		slog.Error("reminder dispatch aborted",
			"job_id", jobID,
			"appointment_id", job.AppointmentID,
			"error", err,
		)
		return nil
	}

	if !outcome.Success {
		// Every channel failed; hand the task back to the queue for retry.
		return common.NewChannelError(string(ChannelSMS), "all reminder channels failed")
	}

	if err := w.reminders.UpdateReminderStatus(ctx, job.ID, ReminderFired); err != nil {
		slog.Error("failed to mark reminder fired", "job_id", jobID, "error", err)
	}

	slog.Info("reminder fired",
		"job_id", jobID,
		"appointment_id", job.AppointmentID,
		"to", outcome.Phone,
		"attempts", len(outcome.Results),
		"duration", time.Since(start),
	)

	return nil
}
