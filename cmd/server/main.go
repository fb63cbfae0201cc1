package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medinotify/internal/config"
	"medinotify/internal/domain/notification"
	"medinotify/internal/infra/queue"
	"medinotify/internal/infra/ratelimit"
	"medinotify/internal/infra/sms"
	"medinotify/internal/infra/store"
	"medinotify/internal/infra/template"
	"medinotify/internal/infra/whatsapp"
	"medinotify/internal/router"

	"github.com/hibiken/asynq"
)

// queueEnqueuer adapts the asynq client and inspector to the
// notification.Enqueuer interface.
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

	slog.Info("configuration loaded", "port", cfg.Server.Port, "mode", cfg.Server.Mode)

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

	// Template Engine (admin templates with compiled-in defaults)
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
		slog.Info("sms gateway initialized", "endpoint", cfg.SMS.Endpoint)
	} else {
		slog.Warn("sms gateway not configured; sms attempts will be recorded as failed")
	}

	// WhatsApp deep-link builder
	linker := whatsapp.NewLinker(cfg.WhatsApp.BaseURL)

	// Channel Dispatcher
	dispatcher := notification.NewDispatcher(tmplEngine, smsSender, linker, supaStore)

	// Asynq Client + Inspector (enqueue deferred reminders, drop cancelled ones)
	asynqClient := queue.NewClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	defer asynqClient.Close()
	asynqInspector := queue.NewInspector(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	defer asynqInspector.Close()
	slog.Info("asynq client initialized", "redis", cfg.Redis.Address)

	enqueuer := &queueEnqueuer{
		client:    asynqClient,
		inspector: asynqInspector,
		maxRetry:  cfg.Queue.MaxRetry,
	}

	// Reminder Scheduler
	loc, err := time.LoadLocation(cfg.Reminder.Timezone)
	if err != nil {
		slog.Warn("invalid reminder timezone, using local", "timezone", cfg.Reminder.Timezone, "error", err)
		loc = time.Local
	}
	scheduler := notification.NewScheduler(
		supaStore,
		enqueuer,
		supaStore,
		loc,
		notification.ReminderLead(cfg.Reminder.DefaultLead),
	)

	// Recipient Rate Limiter
	recipientLimiter := ratelimit.NewRedisRecipientLimiter(
		cfg.Redis.Address,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.RecipientRateLimit.MaxPerHour,
	)
	defer recipientLimiter.Close()
	slog.Info("recipient rate limiter initialized", "max_per_hour", cfg.RecipientRateLimit.MaxPerHour)

	// Service
	notificationService := notification.NewService(dispatcher, scheduler, supaStore, supaStore, recipientLimiter)

	// Handler
	notificationHandler := notification.NewHandler(notificationService)

	// Router
	r := router.New(cfg, notificationHandler)

	// ==========================================
	// HTTP Server with Graceful Shutdown
	// ==========================================

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Give outstanding requests 10 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}
