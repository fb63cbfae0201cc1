package queue

import (
	"errors"
	"fmt"
	"time"

	"medinotify/internal/domain/notification"

	"github.com/hibiken/asynq"
)

const reminderQueue = "reminders"

// NewClient creates a new asynq client connected to Redis.
func NewClient(redisAddr, password string, db int) *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: password,
		DB:       db,
	})
}

// NewInspector creates an asynq inspector for task-level queue maintenance.
func NewInspector(redisAddr, password string, db int) *asynq.Inspector {
	return asynq.NewInspector(asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: password,
		DB:       db,
	})
}

// NewServer creates a new asynq server connected to Redis.
func NewServer(redisAddr, password string, db int, concurrency int) *asynq.Server {
	return asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     redisAddr,
			Password: password,
			DB:       db,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				reminderQueue: 10, // priority weight
				"default":     1,
			},
			RetryDelayFunc: func(n int, e error, t *asynq.Task) time.Duration {
				// Exponential backoff: 30s, 60s, 120s, 240s, 480s
				return time.Duration(30*(1<<uint(n-1))) * time.Second
			},
		},
	)
}

// EnqueueReminder registers a deferred reminder task for the given fire time.
// The task ID is derived from appointment id + kind, so the queue itself
// rejects a second registration with notification.ErrDuplicateReminder.
func EnqueueReminder(client *asynq.Client, jobID, appointmentID string, kind notification.MessageKind, fireAt time.Time, maxRetry int) error {
	task, err := notification.NewFireReminderTask(jobID)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}

	_, err = client.Enqueue(task,
		asynq.MaxRetry(maxRetry),
		asynq.Queue(reminderQueue),
		asynq.ProcessAt(fireAt),
		asynq.TaskID(notification.ReminderTaskID(appointmentID, kind)),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return notification.ErrDuplicateReminder
		}
		return fmt.Errorf("enqueuing task: %w", err)
	}

	return nil
}

// DequeueReminder removes the queued reminder task for an appointment and
// kind, freeing the deterministic task ID so the appointment can be
// rescheduled. A task that already completed, or was never registered, is
// not an error.
func DequeueReminder(inspector *asynq.Inspector, appointmentID string, kind notification.MessageKind) error {
	err := inspector.DeleteTask(reminderQueue, notification.ReminderTaskID(appointmentID, kind))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, asynq.ErrTaskNotFound), errors.Is(err, asynq.ErrQueueNotFound):
		return nil
	default:
		return fmt.Errorf("deleting reminder task: %w", err)
	}
}
