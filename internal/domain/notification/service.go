package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"medinotify/internal/common"
	"medinotify/internal/phone"
)

// Service orchestrates the notification API surface: immediate dispatch,
// reminder scheduling, the audit read side, and template management.
type Service struct {
	dispatcher  *Dispatcher
	scheduler   *Scheduler
	logs        LogStore
	templates   TemplateStore
	rateLimiter RecipientRateLimiter
}

// NewService creates a new notification service.
func NewService(dispatcher *Dispatcher, scheduler *Scheduler, logs LogStore, templates TemplateStore, rateLimiter RecipientRateLimiter) *Service {
	return &Service{
		dispatcher:  dispatcher,
		scheduler:   scheduler,
		logs:        logs,
		templates:   templates,
		rateLimiter: rateLimiter,
	}
}

// Send validates and dispatches one notification synchronously. The outcome
// reports per-channel results; a failed notification never rolls back the
// booking action that triggered it.
func (s *Service) Send(ctx context.Context, req *SendRequest) (*DispatchOutcome, error) {
	if !IsValidKind(req.Kind) {
		return nil, common.NewValidationError(fmt.Sprintf("unsupported message kind: %s", req.Kind))
	}
	for _, ch := range req.Channels {
		if ch != ChannelWhatsApp && ch != ChannelSMS {
			return nil, common.NewValidationError(fmt.Sprintf("unsupported channel: %s", ch))
		}
	}

	// Per-recipient throttle, keyed by canonical phone so formatting variants
	// of the same number share one budget.
	if s.rateLimiter != nil && strings.TrimSpace(req.Phone) != "" {
		canonical := phone.Normalize(req.Phone)
		allowed, err := s.rateLimiter.Allow(ctx, canonical)
		if err != nil {
			slog.Error("rate limit check failed, proceeding without limit", "recipient", canonical, "error", err)
			// Fail open; a Redis outage must not block patient notifications
		} else if !allowed {
			return nil, common.NewValidationError(fmt.Sprintf("rate limit exceeded for recipient: %s", canonical))
		}
	}

	actor := req.TriggeredBy
	if actor == "" {
		actor = "api"
	}

	return s.dispatcher.Dispatch(ctx, req.Request(), req.Channels, actor)
}

// ScheduleReminder registers a deferred reminder dispatch for an appointment.
func (s *Service) ScheduleReminder(ctx context.Context, req *ScheduleRequest) (*ScheduleResult, error) {
	return s.scheduler.Schedule(ctx, req)
}

// CancelReminders cancels every pending reminder for an appointment, e.g.
// when the appointment itself is cancelled or rescheduled.
func (s *Service) CancelReminders(ctx context.Context, appointmentID string) (int, error) {
	if strings.TrimSpace(appointmentID) == "" {
		return 0, common.NewValidationError("appointment_id is required")
	}
	return s.scheduler.Cancel(ctx, appointmentID)
}

// GetLog retrieves one audit entry by ID.
func (s *Service) GetLog(ctx context.Context, id string) (*LogEntry, error) {
	entry, err := s.logs.GetLog(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching log entry: %w", err)
	}
	if entry == nil {
		return nil, common.NewNotFoundError("log entry", id)
	}
	return entry, nil
}

// ListLogs retrieves audit entries with pagination and filtering.
func (s *Service) ListLogs(ctx context.Context, filter LogFilter) (*LogListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	if filter.Date != "" {
		if _, err := time.Parse("2006-01-02", filter.Date); err != nil {
			return nil, common.NewValidationError("date filter must be YYYY-MM-DD")
		}
	}

	entries, total, err := s.logs.ListLogs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing log entries: %w", err)
	}

	return &LogListResponse{
		Entries:  entries,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

// ListTemplates retrieves every administrator-authored template.
func (s *Service) ListTemplates(ctx context.Context) ([]*Template, error) {
	templates, err := s.templates.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	return templates, nil
}

// CreateTemplate validates and stores a new template.
func (s *Service) CreateTemplate(ctx context.Context, req *TemplateRequest) (*Template, error) {
	if err := validateTemplateRequest(req); err != nil {
		return nil, err
	}

	tmpl := &Template{
		Name:      req.Name,
		Kind:      req.Kind,
		Channel:   req.Channel,
		Body:      req.Body,
		CreatedBy: req.CreatedBy,
	}
	if err := s.templates.CreateTemplate(ctx, tmpl); err != nil {
		return nil, fmt.Errorf("creating template: %w", err)
	}

	slog.Info("template created", "id", tmpl.ID, "name", tmpl.Name, "kind", tmpl.Kind)
	return tmpl, nil
}

// UpdateTemplate validates and replaces an existing template's fields.
func (s *Service) UpdateTemplate(ctx context.Context, id string, req *TemplateRequest) (*Template, error) {
	if err := validateTemplateRequest(req); err != nil {
		return nil, err
	}

	tmpl := &Template{
		ID:      id,
		Name:    req.Name,
		Kind:    req.Kind,
		Channel: req.Channel,
		Body:    req.Body,
	}
	if err := s.templates.UpdateTemplate(ctx, tmpl); err != nil {
		return nil, fmt.Errorf("updating template: %w", err)
	}

	slog.Info("template updated", "id", id, "name", tmpl.Name)
	return tmpl, nil
}

// DeleteTemplate removes a template; dispatch falls back to the compiled-in
// default for its kind afterwards.
func (s *Service) DeleteTemplate(ctx context.Context, id string) error {
	if err := s.templates.DeleteTemplate(ctx, id); err != nil {
		return fmt.Errorf("deleting template: %w", err)
	}
	slog.Info("template deleted", "id", id)
	return nil
}

func validateTemplateRequest(req *TemplateRequest) error {
	if !IsValidKind(req.Kind) {
		return common.NewValidationError(fmt.Sprintf("unsupported message kind: %s", req.Kind))
	}
	if !IsValidTemplateChannel(req.Channel) {
		return common.NewValidationError(fmt.Sprintf("unsupported template channel: %s", req.Channel))
	}
	if strings.TrimSpace(req.Body) == "" {
		return common.NewValidationError("template body is required")
	}
	return nil
}
