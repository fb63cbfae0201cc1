package notification

import (
	"context"
	"time"
)

// LogStore defines the contract for the append-only dispatch audit trail.
// Implementations live in infra/store/ (e.g., Supabase).
type LogStore interface {
	// AppendLog inserts a new audit entry. Entries are never updated.
	AppendLog(ctx context.Context, entry *LogEntry) error

	// GetLog retrieves an audit entry by its ID.
	GetLog(ctx context.Context, id string) (*LogEntry, error)

	// ListLogs retrieves audit entries with pagination and AND-composed filters.
	ListLogs(ctx context.Context, filter LogFilter) ([]*LogEntry, int, error)
}

// TemplateStore defines the contract for administrator-authored templates.
type TemplateStore interface {
	// GetTemplate finds the template for a (kind, channel) pair, preferring a
	// channel-specific template over a "both" one. Returns nil, nil when no
	// administrator template exists.
	GetTemplate(ctx context.Context, kind MessageKind, channel Channel) (*Template, error)

	ListTemplates(ctx context.Context) ([]*Template, error)
	CreateTemplate(ctx context.Context, tmpl *Template) error
	UpdateTemplate(ctx context.Context, tmpl *Template) error
	DeleteTemplate(ctx context.Context, id string) error
}

// ReminderStore defines the contract for persisted reminder jobs.
type ReminderStore interface {
	CreateReminder(ctx context.Context, job *ReminderJob) error

	GetReminder(ctx context.Context, id string) (*ReminderJob, error)

	// GetReminderByAppointment retrieves the reminder job for an appointment
	// and message kind, for schedule de-duplication. Returns nil, nil when none
	// exists.
	GetReminderByAppointment(ctx context.Context, appointmentID string, kind MessageKind) (*ReminderJob, error)

	UpdateReminderStatus(ctx context.Context, id string, status ReminderStatus) error

	// CancelByAppointment marks every still-scheduled job for the appointment
	// cancelled and reports how many were affected.
	CancelByAppointment(ctx context.Context, appointmentID string) (int, error)

	// ListOverdue retrieves scheduled jobs whose fire time passed before the
	// given threshold. Used by the reaper for queue reconciliation.
	ListOverdue(ctx context.Context, olderThan time.Time, limit int) ([]*ReminderJob, error)
}
