package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"medinotify/internal/domain/notification"

	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
)

const (
	logsTable      = "notification_logs"
	templatesTable = "message_templates"
	remindersTable = "reminder_jobs"
)

var (
	_ notification.LogStore      = (*SupabaseStore)(nil)
	_ notification.TemplateStore = (*SupabaseStore)(nil)
	_ notification.ReminderStore = (*SupabaseStore)(nil)
)

// SupabaseStore implements the log, template, and reminder stores using the
// Supabase Go SDK. Concurrency is the database's problem: every log write is
// an independent insert, so concurrent dispatches never contend.
type SupabaseStore struct {
	client *supa.Client
}

// NewSupabaseStore creates a new Supabase-backed store.
func NewSupabaseStore(supabaseURL, serviceKey string) (*SupabaseStore, error) {
	client, err := supa.NewClient(supabaseURL, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating supabase client: %w", err)
	}
	return &SupabaseStore{client: client}, nil
}

// ==========================================
// LogStore
// ==========================================

// logRow is the internal representation for PostgREST insert/select.
type logRow struct {
	ID             string  `json:"id,omitempty"`
	TemplateName   *string `json:"template_name,omitempty"`
	Kind           string  `json:"kind"`
	Channel        string  `json:"channel"`
	RecipientName  string  `json:"recipient_name"`
	RecipientPhone string  `json:"recipient_phone"`
	AppointmentID  *string `json:"appointment_id,omitempty"`
	Body           *string `json:"body,omitempty"`
	Status         string  `json:"status"`
	ErrorMessage   *string `json:"error_message,omitempty"`
	TriggeredBy    *string `json:"triggered_by,omitempty"`
	CreatedAt      string  `json:"created_at,omitempty"`
}

// AppendLog inserts a new audit entry. Entries are append-only; nothing here
// ever updates a log row.
func (s *SupabaseStore) AppendLog(ctx context.Context, entry *notification.LogEntry) error {
	row := logRow{
		Kind:           string(entry.Kind),
		Channel:        string(entry.Channel),
		RecipientName:  entry.RecipientName,
		RecipientPhone: entry.RecipientPhone,
		Status:         string(entry.Status),
	}
	row.TemplateName = optional(entry.TemplateName)
	row.AppointmentID = optional(entry.AppointmentID)
	row.Body = optional(entry.Body)
	row.ErrorMessage = optional(entry.ErrorMessage)
	row.TriggeredBy = optional(entry.TriggeredBy)

	data, _, err := s.client.From(logsTable).Insert(row, false, "", "representation", "").Execute()
	if err != nil {
		return fmt.Errorf("inserting log entry: %w", err)
	}

	var results []logRow
	if err := json.Unmarshal(data, &results); err != nil {
		return fmt.Errorf("parsing insert response: %w", err)
	}
	if len(results) > 0 {
		entry.ID = results[0].ID
		entry.CreatedAt = parseTime(results[0].CreatedAt)
	}

	return nil
}

// GetLog retrieves an audit entry by its ID. Returns nil, nil when no entry
// exists.
func (s *SupabaseStore) GetLog(ctx context.Context, id string) (*notification.LogEntry, error) {
	data, _, err := s.client.From(logsTable).Select("*", "exact", false).Eq("id", id).Execute()
	if err != nil {
		return nil, fmt.Errorf("fetching log entry: %w", err)
	}

	var rows []logRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing log entry: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	return rowToLog(&rows[0]), nil
}

// ListLogs retrieves audit entries with pagination and AND-composed filters.
// The recipient filter matches a substring of either name or phone; the date
// filter selects a single UTC calendar day.
func (s *SupabaseStore) ListLogs(ctx context.Context, filter notification.LogFilter) ([]*notification.LogEntry, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	offset := (filter.Page - 1) * filter.PageSize

	query := s.client.From(logsTable).Select("*", "exact", false)

	if term := sanitizeFilterTerm(filter.Recipient); term != "" {
		pattern := "*" + term + "*"
		query = query.Or(fmt.Sprintf("recipient_name.ilike.%s,recipient_phone.ilike.%s", pattern, pattern), "")
	}
	if filter.Kind != "" {
		query = query.Eq("kind", filter.Kind)
	}
	if filter.Channel != "" {
		query = query.Eq("channel", filter.Channel)
	}
	if filter.Status != "" {
		query = query.Eq("status", filter.Status)
	}
	if filter.Date != "" {
		day, err := time.Parse("2006-01-02", filter.Date)
		if err != nil {
			return nil, 0, fmt.Errorf("parsing date filter: %w", err)
		}
		query = query.
			Gte("created_at", day.UTC().Format(time.RFC3339Nano)).
			Lt("created_at", day.UTC().AddDate(0, 0, 1).Format(time.RFC3339Nano))
	}

	query = query.Order("created_at", &postgrest.OrderOpts{Ascending: false})
	query = query.Range(offset, offset+filter.PageSize-1, "")

	data, count, err := query.Execute()
	if err != nil {
		return nil, 0, fmt.Errorf("listing log entries: %w", err)
	}

	var rows []logRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, 0, fmt.Errorf("parsing log list: %w", err)
	}

	entries := make([]*notification.LogEntry, len(rows))
	for i, row := range rows {
		entries[i] = rowToLog(&row)
	}

	return entries, int(count), nil
}

func rowToLog(row *logRow) *notification.LogEntry {
	entry := &notification.LogEntry{
		ID:             row.ID,
		Kind:           notification.MessageKind(row.Kind),
		Channel:        notification.Channel(row.Channel),
		RecipientName:  row.RecipientName,
		RecipientPhone: row.RecipientPhone,
		Status:         notification.LogStatus(row.Status),
		CreatedAt:      parseTime(row.CreatedAt),
	}
	entry.TemplateName = deref(row.TemplateName)
	entry.AppointmentID = deref(row.AppointmentID)
	entry.Body = deref(row.Body)
	entry.ErrorMessage = deref(row.ErrorMessage)
	entry.TriggeredBy = deref(row.TriggeredBy)
	return entry
}

// ==========================================
// TemplateStore
// ==========================================

type templateRow struct {
	ID        string  `json:"id,omitempty"`
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	Channel   string  `json:"channel"`
	Body      string  `json:"body"`
	CreatedBy *string `json:"created_by,omitempty"`
	CreatedAt string  `json:"created_at,omitempty"`
	UpdatedAt string  `json:"updated_at,omitempty"`
}

// GetTemplate finds the administrator template for a kind and channel,
// preferring a channel-specific template over a "both" one.
func (s *SupabaseStore) GetTemplate(ctx context.Context, kind notification.MessageKind, channel notification.Channel) (*notification.Template, error) {
	data, _, err := s.client.From(templatesTable).
		Select("*", "exact", false).
		Eq("kind", string(kind)).
		In("channel", []string{string(channel), string(notification.TemplateChannelBoth)}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("fetching template: %w", err)
	}

	var rows []templateRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	// Prefer an exact channel match over "both".
	for i := range rows {
		if rows[i].Channel == string(channel) {
			return rowToTemplate(&rows[i]), nil
		}
	}
	return rowToTemplate(&rows[0]), nil
}

// ListTemplates retrieves every administrator template, newest first.
func (s *SupabaseStore) ListTemplates(ctx context.Context) ([]*notification.Template, error) {
	data, _, err := s.client.From(templatesTable).
		Select("*", "exact", false).
		Order("updated_at", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}

	var rows []templateRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing template list: %w", err)
	}

	templates := make([]*notification.Template, len(rows))
	for i := range rows {
		templates[i] = rowToTemplate(&rows[i])
	}
	return templates, nil
}

// CreateTemplate inserts a new administrator template.
func (s *SupabaseStore) CreateTemplate(ctx context.Context, tmpl *notification.Template) error {
	row := templateRow{
		Name:    tmpl.Name,
		Kind:    string(tmpl.Kind),
		Channel: string(tmpl.Channel),
		Body:    tmpl.Body,
	}
	row.CreatedBy = optional(tmpl.CreatedBy)

	data, _, err := s.client.From(templatesTable).Insert(row, false, "", "representation", "").Execute()
	if err != nil {
		return fmt.Errorf("inserting template: %w", err)
	}

	var results []templateRow
	if err := json.Unmarshal(data, &results); err != nil {
		return fmt.Errorf("parsing insert response: %w", err)
	}
	if len(results) > 0 {
		tmpl.ID = results[0].ID
		tmpl.CreatedAt = parseTime(results[0].CreatedAt)
		tmpl.UpdatedAt = parseTime(results[0].UpdatedAt)
	}

	return nil
}

// UpdateTemplate replaces an existing template's fields.
func (s *SupabaseStore) UpdateTemplate(ctx context.Context, tmpl *notification.Template) error {
	update := map[string]any{
		"name":       tmpl.Name,
		"kind":       string(tmpl.Kind),
		"channel":    string(tmpl.Channel),
		"body":       tmpl.Body,
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	}

	_, _, err := s.client.From(templatesTable).Update(update, "", "").Eq("id", tmpl.ID).Execute()
	if err != nil {
		return fmt.Errorf("updating template: %w", err)
	}
	return nil
}

// DeleteTemplate removes a template.
func (s *SupabaseStore) DeleteTemplate(ctx context.Context, id string) error {
	_, _, err := s.client.From(templatesTable).Delete("", "").Eq("id", id).Execute()
	if err != nil {
		return fmt.Errorf("deleting template: %w", err)
	}
	return nil
}

func rowToTemplate(row *templateRow) *notification.Template {
	return &notification.Template{
		ID:        row.ID,
		Name:      row.Name,
		Kind:      notification.MessageKind(row.Kind),
		Channel:   notification.TemplateChannel(row.Channel),
		Body:      row.Body,
		CreatedBy: deref(row.CreatedBy),
		CreatedAt: parseTime(row.CreatedAt),
		UpdatedAt: parseTime(row.UpdatedAt),
	}
}

// ==========================================
// ReminderStore
// ==========================================

type reminderRow struct {
	ID              string   `json:"id"`
	AppointmentID   string   `json:"appointment_id"`
	Kind            string   `json:"kind"`
	PatientName     string   `json:"patient_name"`
	DoctorName      *string  `json:"doctor_name,omitempty"`
	Department      *string  `json:"department,omitempty"`
	AppointmentDate string   `json:"appointment_date"`
	AppointmentTime string   `json:"appointment_time"`
	Phone           string   `json:"phone"`
	Channels        []string `json:"channels"`
	Lead            string   `json:"lead"`
	FireAt          string   `json:"fire_at"`
	Status          string   `json:"status"`
	CreatedBy       *string  `json:"created_by,omitempty"`
	CreatedAt       string   `json:"created_at,omitempty"`
	UpdatedAt       string   `json:"updated_at,omitempty"`
}

// CreateReminder inserts a new reminder job. The job ID is assigned by the
// scheduler, not the database.
func (s *SupabaseStore) CreateReminder(ctx context.Context, job *notification.ReminderJob) error {
	channels := make([]string, len(job.Channels))
	for i, ch := range job.Channels {
		channels[i] = string(ch)
	}

	row := reminderRow{
		ID:              job.ID,
		AppointmentID:   job.AppointmentID,
		Kind:            string(job.Kind),
		PatientName:     job.PatientName,
		AppointmentDate: job.AppointmentDate,
		AppointmentTime: job.AppointmentTime,
		Phone:           job.Phone,
		Channels:        channels,
		Lead:            string(job.Lead),
		FireAt:          job.FireAt.UTC().Format(time.RFC3339Nano),
		Status:          string(job.Status),
	}
	row.DoctorName = optional(job.DoctorName)
	row.Department = optional(job.Department)
	row.CreatedBy = optional(job.CreatedBy)

	data, _, err := s.client.From(remindersTable).Insert(row, false, "", "representation", "").Execute()
	if err != nil {
		return fmt.Errorf("inserting reminder job: %w", err)
	}

	var results []reminderRow
	if err := json.Unmarshal(data, &results); err != nil {
		return fmt.Errorf("parsing insert response: %w", err)
	}
	if len(results) > 0 {
		job.CreatedAt = parseTime(results[0].CreatedAt)
		job.UpdatedAt = parseTime(results[0].UpdatedAt)
	}

	return nil
}

// GetReminder retrieves a reminder job by its ID. Returns nil, nil when no
// job exists.
func (s *SupabaseStore) GetReminder(ctx context.Context, id string) (*notification.ReminderJob, error) {
	data, _, err := s.client.From(remindersTable).Select("*", "exact", false).Eq("id", id).Execute()
	if err != nil {
		return nil, fmt.Errorf("fetching reminder job: %w", err)
	}

	var rows []reminderRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing reminder job: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	return rowToReminder(&rows[0]), nil
}

// GetReminderByAppointment retrieves the newest reminder job for an
// appointment and kind. Returns nil, nil when none exists.
func (s *SupabaseStore) GetReminderByAppointment(ctx context.Context, appointmentID string, kind notification.MessageKind) (*notification.ReminderJob, error) {
	data, _, err := s.client.From(remindersTable).
		Select("*", "exact", false).
		Eq("appointment_id", appointmentID).
		Eq("kind", string(kind)).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("fetching reminder by appointment: %w", err)
	}

	var rows []reminderRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing reminder by appointment: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	// Prefer a still-scheduled job over fired/cancelled history.
	for i := range rows {
		if rows[i].Status == string(notification.ReminderScheduled) {
			return rowToReminder(&rows[i]), nil
		}
	}
	return rowToReminder(&rows[0]), nil
}

// UpdateReminderStatus updates the lifecycle status of a reminder job.
func (s *SupabaseStore) UpdateReminderStatus(ctx context.Context, id string, status notification.ReminderStatus) error {
	update := map[string]any{
		"status":     string(status),
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	}

	_, _, err := s.client.From(remindersTable).Update(update, "", "").Eq("id", id).Execute()
	if err != nil {
		return fmt.Errorf("updating reminder status: %w", err)
	}
	return nil
}

// CancelByAppointment marks every still-scheduled job for the appointment
// cancelled and reports how many were affected.
func (s *SupabaseStore) CancelByAppointment(ctx context.Context, appointmentID string) (int, error) {
	update := map[string]any{
		"status":     string(notification.ReminderCancelled),
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	}

	data, _, err := s.client.From(remindersTable).
		Update(update, "representation", "").
		Eq("appointment_id", appointmentID).
		Eq("status", string(notification.ReminderScheduled)).
		Execute()
	if err != nil {
		return 0, fmt.Errorf("cancelling reminders: %w", err)
	}

	var rows []reminderRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, fmt.Errorf("parsing cancel response: %w", err)
	}
	return len(rows), nil
}

// ListOverdue retrieves scheduled jobs whose fire time passed before olderThan.
func (s *SupabaseStore) ListOverdue(ctx context.Context, olderThan time.Time, limit int) ([]*notification.ReminderJob, error) {
	if limit <= 0 {
		limit = 50
	}

	threshold := olderThan.UTC().Format(time.RFC3339Nano)

	data, _, err := s.client.From(remindersTable).
		Select("*", "exact", false).
		Eq("status", string(notification.ReminderScheduled)).
		Lt("fire_at", threshold).
		Order("fire_at", &postgrest.OrderOpts{Ascending: true}).
		Range(0, limit-1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("listing overdue reminders: %w", err)
	}

	var rows []reminderRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing overdue reminders: %w", err)
	}

	jobs := make([]*notification.ReminderJob, len(rows))
	for i := range rows {
		jobs[i] = rowToReminder(&rows[i])
	}
	return jobs, nil
}

func rowToReminder(row *reminderRow) *notification.ReminderJob {
	channels := make([]notification.Channel, len(row.Channels))
	for i, ch := range row.Channels {
		channels[i] = notification.Channel(ch)
	}

	return &notification.ReminderJob{
		ID:              row.ID,
		AppointmentID:   row.AppointmentID,
		Kind:            notification.MessageKind(row.Kind),
		PatientName:     row.PatientName,
		DoctorName:      deref(row.DoctorName),
		Department:      deref(row.Department),
		AppointmentDate: row.AppointmentDate,
		AppointmentTime: row.AppointmentTime,
		Phone:           row.Phone,
		Channels:        channels,
		Lead:            notification.ReminderLead(row.Lead),
		FireAt:          parseTime(row.FireAt),
		Status:          notification.ReminderStatus(row.Status),
		CreatedBy:       deref(row.CreatedBy),
		CreatedAt:       parseTime(row.CreatedAt),
		UpdatedAt:       parseTime(row.UpdatedAt),
	}
}

// ==========================================
// Helpers
// ==========================================

// sanitizeFilterTerm strips the characters PostgREST's logic-tree syntax
// reserves. A comma or parenthesis in a user-supplied value would otherwise
// corrupt the or=() expression, and * is the ilike wildcard.
func sanitizeFilterTerm(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ',', '(', ')', '"', '\\', '*':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
