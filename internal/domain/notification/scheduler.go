package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"medinotify/internal/common"

	"github.com/google/uuid"
)

// ErrDuplicateReminder is reported by the enqueuer when a reminder task with
// the same appointment id + kind is already registered.
var ErrDuplicateReminder = errors.New("reminder already scheduled")

// Enqueuer defines the contract for registering a deferred reminder dispatch
// with the external scheduling facility. DequeueReminder removes a queued
// task and frees its deterministic task ID; a task that already completed or
// never existed is not an error.
type Enqueuer interface {
	EnqueueReminder(jobID, appointmentID string, kind MessageKind, fireAt time.Time) error
	DequeueReminder(appointmentID string, kind MessageKind) error
}

// Scheduler computes reminder fire times and registers deferred dispatches.
type Scheduler struct {
	reminders   ReminderStore
	enqueuer    Enqueuer
	logs        LogStore
	loc         *time.Location
	defaultLead ReminderLead
	now         func() time.Time
}

// NewScheduler creates a new reminder scheduler. loc is the timezone
// appointment date/time strings are interpreted in.
func NewScheduler(reminders ReminderStore, enqueuer Enqueuer, logs LogStore, loc *time.Location, defaultLead ReminderLead) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if !IsValidLead(defaultLead) {
		defaultLead = LeadDayBefore
	}
	return &Scheduler{
		reminders:   reminders,
		enqueuer:    enqueuer,
		logs:        logs,
		loc:         loc,
		defaultLead: defaultLead,
		now:         time.Now,
	}
}

// Schedule registers one deferred reminder dispatch for an appointment.
// Scheduling the same appointment twice is a no-op reported as
// AlreadyScheduled. A registration failure surfaces as a SchedulingError and
// must not affect any immediate send that already completed.
func (s *Scheduler) Schedule(ctx context.Context, req *ScheduleRequest) (*ScheduleResult, error) {
	if strings.TrimSpace(req.Phone) == "" {
		return nil, common.NewMissingRecipientError()
	}

	lead := req.Lead
	if lead == "" {
		lead = s.defaultLead
	}
	if !IsValidLead(lead) {
		return nil, common.NewValidationError(fmt.Sprintf("unsupported reminder lead: %s", lead))
	}

	appointmentAt, err := ParseAppointmentTime(req.AppointmentDate, req.AppointmentTime, s.loc)
	if err != nil {
		return nil, common.NewValidationError(err.Error())
	}

	now := s.now()
	if appointmentAt.Before(now) {
		return nil, common.NewValidationError("appointment time is in the past")
	}

	fireAt := appointmentAt.Add(-lead.Duration())
	if fireAt.Before(now) {
		// Appointment is closer than the lead interval: fire immediately.
		fireAt = now
	}

	// De-duplicate by appointment id + kind before touching the queue.
	existing, err := s.reminders.GetReminderByAppointment(ctx, req.AppointmentID, KindReminder)
	if err != nil {
		slog.Error("reminder dedupe lookup failed", "appointment_id", req.AppointmentID, "error", err)
		// Proceed; the queue's task ID uniqueness still guards against doubles.
	}
	if existing != nil && existing.Status == ReminderScheduled {
		return &ScheduleResult{
			JobID:            existing.ID,
			AppointmentID:    existing.AppointmentID,
			FireAt:           existing.FireAt,
			AlreadyScheduled: true,
		}, nil
	}

	channels := req.Channels
	if len(channels) == 0 {
		channels = DefaultChannels()
	}

	job := &ReminderJob{
		ID:              uuid.NewString(),
		AppointmentID:   req.AppointmentID,
		Kind:            KindReminder,
		PatientName:     req.PatientName,
		DoctorName:      req.DoctorName,
		Department:      req.Department,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		Phone:           req.Phone,
		Channels:        channels,
		Lead:            lead,
		FireAt:          fireAt,
		Status:          ReminderScheduled,
		CreatedBy:       req.TriggeredBy,
	}

	if err := s.reminders.CreateReminder(ctx, job); err != nil {
		return nil, common.NewSchedulingError(req.AppointmentID, "persisting reminder job: "+err.Error())
	}

	enqueueErr := s.enqueuer.EnqueueReminder(job.ID, job.AppointmentID, job.Kind, fireAt)
	if errors.Is(enqueueErr, ErrDuplicateReminder) {
		// The dedupe lookup above found no live job, so the conflicting task
		// belongs to a cancelled or fired registration that still holds the
		// task ID. Drop the stale task and register again; otherwise a
		// cancelled-then-rebooked appointment would never get its reminder.
		if err := s.enqueuer.DequeueReminder(job.AppointmentID, job.Kind); err != nil {
			slog.Error("failed to remove stale reminder task",
				"appointment_id", job.AppointmentID,
				"error", err,
			)
		}
		enqueueErr = s.enqueuer.EnqueueReminder(job.ID, job.AppointmentID, job.Kind, fireAt)
		if errors.Is(enqueueErr, ErrDuplicateReminder) {
			// A concurrent registration re-took the ID between the two calls;
			// that one owns the reminder. Drop the row we just created so it
			// cannot fire twice.
			_ = s.reminders.UpdateReminderStatus(ctx, job.ID, ReminderCancelled)
			return &ScheduleResult{
				JobID:            job.ID,
				AppointmentID:    job.AppointmentID,
				FireAt:           fireAt,
				AlreadyScheduled: true,
			}, nil
		}
	}
	if enqueueErr != nil {
		_ = s.reminders.UpdateReminderStatus(ctx, job.ID, ReminderFailed)
		return nil, common.NewSchedulingError(req.AppointmentID, "registering deferred dispatch: "+enqueueErr.Error())
	}

	s.logPending(ctx, job)

	slog.Info("reminder scheduled",
		"job_id", job.ID,
		"appointment_id", job.AppointmentID,
		"fire_at", fireAt,
		"lead", lead,
	)

	return &ScheduleResult{
		JobID:         job.ID,
		AppointmentID: job.AppointmentID,
		FireAt:        fireAt,
	}, nil
}

// Cancel marks every still-scheduled reminder for an appointment cancelled
// and removes its queue task. The worker re-checks job status at fire time,
// so even a task that survives the removal never dispatches.
func (s *Scheduler) Cancel(ctx context.Context, appointmentID string) (int, error) {
	n, err := s.reminders.CancelByAppointment(ctx, appointmentID)
	if err != nil {
		return 0, fmt.Errorf("cancelling reminders for appointment %s: %w", appointmentID, err)
	}

	if n > 0 {
		// Free the queue task as well, so a rebooked appointment can register
		// a fresh reminder without colliding on the task ID. Best-effort: the
		// worker's status check keeps a leftover task from ever dispatching.
		if err := s.enqueuer.DequeueReminder(appointmentID, KindReminder); err != nil {
			slog.Error("failed to remove queued reminder task",
				"appointment_id", appointmentID,
				"error", err,
			)
		}
		slog.Info("reminders cancelled", "appointment_id", appointmentID, "count", n)
	}
	return n, nil
}

// logPending writes the audit entry for a registered-but-unfired reminder.
// Fire-and-forget, like every audit write.
func (s *Scheduler) logPending(ctx context.Context, job *ReminderJob) {
	if s.logs == nil {
		return
	}

	for _, ch := range job.Channels {
		entry := &LogEntry{
			Kind:           job.Kind,
			Channel:        ch,
			RecipientName:  job.PatientName,
			RecipientPhone: job.Phone,
			AppointmentID:  job.AppointmentID,
			Status:         StatusPending,
			TriggeredBy:    job.CreatedBy,
		}
		if err := s.logs.AppendLog(ctx, entry); err != nil {
			slog.Error("audit log write failed", "appointment_id", job.AppointmentID, "error", err)
		}
	}
}

// appointmentLayouts are the accepted date+time formats, 12-hour clock first
// since that is what the booking forms submit.
var appointmentLayouts = []string{
	"2006-01-02 3:04 PM",
	"2006-01-02 3:04PM",
	"2006-01-02 15:04",
}

// ParseAppointmentTime combines an appointment date and local time string into
// a single point in time in the given location.
func ParseAppointmentTime(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	combined := strings.TrimSpace(date) + " " + strings.TrimSpace(clock)
	for _, layout := range appointmentLayouts {
		if t, err := time.ParseInLocation(layout, combined, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable appointment time: %q", combined)
}
