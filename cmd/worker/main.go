package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medinotify/internal/config"
	"medinotify/internal/domain/notification"
	"medinotify/internal/infra/queue"
	"medinotify/internal/infra/sms"
	"medinotify/internal/infra/store"
	"medinotify/internal/infra/template"
	"medinotify/internal/infra/whatsapp"

	"github.com/hibiken/asynq"
)

// queueEnqueuer adapts the asynq client and inspector to the
// notification.Enqueuer interface. Used by the reaper to re-enqueue overdue
// reminders.
type queueEnqueuer struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	maxRetry  int
}

func (q *queueEnqueuer) EnqueueReminder(jobID, appointmentID string, kind notification.MessageKind, fireAt time.Time) error {
	return queue.EnqueueReminder(q.client, jobID, appointmentID, kind, fireAt, q.maxRetry)
}

func (q *queueEnqueuer) DequeueReminder(appointmentID string, kind notification.MessageKind) error {
	return queue.DequeueReminder(q.inspector, appointmentID, kind)
}

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("worker configuration loaded")

	// ==========================================
	// Dependency Injection (Manual Wiring)
	// ==========================================

	// Supabase Store (logs, templates, reminder jobs)
	supaStore, err := store.NewSupabaseStore(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
	if err != nil {
		slog.Error("failed to initialize supabase store", "error", err)
		os.Exit(1)
	}
	slog.Info("supabase store initialized")

	// Template Engine
	tmplEngine := template.NewEngine(supaStore)

	// SMS Gateway
	var smsSender notification.SMSSender
	if cfg.SMS.Endpoint != "" {
		smsSender = sms.NewGateway(
			cfg.SMS.Endpoint,
			cfg.SMS.APIKey,
			cfg.SMS.SenderID,
			time.Duration(cfg.SMS.TimeoutSec)*time.Second,
		)
	} else {
		slog.Warn("sms gateway not configured; sms attempts will be recorded as failed")
	}

	// WhatsApp deep-link builder
	linker := whatsapp.NewLinker(cfg.WhatsApp.BaseURL)

	// Channel Dispatcher and Reminder Worker
	dispatcher := notification.NewDispatcher(tmplEngine, smsSender, linker, supaStore)
	reminderWorker := notification.NewWorker(supaStore, dispatcher)

	// Asynq Client + Inspector (for reaper re-enqueuing)
	asynqClient := queue.NewClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	defer asynqClient.Close()
	asynqInspector := queue.NewInspector(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	defer asynqInspector.Close()

	enqueuer := &queueEnqueuer{
		client:    asynqClient,
		inspector: asynqInspector,
		maxRetry:  cfg.Queue.MaxRetry,
	}

	// ==========================================
	// Asynq Server (task processing)
	// ==========================================

	asynqServer := queue.NewServer(
		cfg.Redis.Address,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Queue.Concurrency,
	)

	// Register task handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TaskTypeFireReminder, func(ctx context.Context, task *asynq.Task) error {
		payload, err := notification.ParseFireReminderPayload(task.Payload())
		if err != nil {
			return err
		}
		return reminderWorker.ProcessReminder(ctx, payload.JobID)
	})

	// Start the asynq worker in a goroutine
	go func() {
		slog.Info("worker starting",
			"concurrency", cfg.Queue.Concurrency,
			"redis", cfg.Redis.Address,
		)
		if err := asynqServer.Run(mux); err != nil {
			slog.Error("worker failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// ==========================================
	// Overdue Reminder Reaper
	// ==========================================

	reaperCtx, reaperCancel := context.WithCancel(context.Background())
	defer reaperCancel()

	reaper := notification.NewReaper(supaStore, enqueuer, notification.ReaperConfig{
		Interval:       time.Duration(cfg.Reaper.IntervalSec) * time.Second,
		StaleThreshold: time.Duration(cfg.Reaper.StaleThresholdSec) * time.Second,
		BatchSize:      cfg.Reaper.BatchSize,
	})

	go reaper.Run(reaperCtx)

	// ==========================================
	// Graceful Shutdown
	// ==========================================

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down worker...")
	reaperCancel() // Stop the reaper first
	asynqServer.Shutdown()
	slog.Info("worker exited gracefully")
}
