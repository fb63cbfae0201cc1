package notification

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// stubRenderer returns a deterministic body, or fails for selected channels.
type stubRenderer struct {
	failChannels map[Channel]bool
	renderErr    error
}

func (r *stubRenderer) Render(_ context.Context, kind MessageKind, ch Channel, data map[string]string) (string, string, error) {
	if r.failChannels[ch] {
		return "", "", r.renderErr
	}
	body := "Hello " + data["patient_name"] + ", your " + string(kind) + " for " + data["appointment_date"]
	return body, "default:" + string(kind), nil
}

// stubSMS records sends and optionally fails.
type stubSMS struct {
	err      error
	id       string
	calls    int
	lastTo   string
	lastBody string
}

func (s *stubSMS) Send(_ context.Context, to, body string) (string, error) {
	s.calls++
	s.lastTo = to
	s.lastBody = body
	if s.err != nil {
		return "", s.err
	}
	return s.id, nil
}

// stubLinker mirrors the wa.me link shape.
type stubLinker struct{}

func (stubLinker) BuildLink(digits, body string) string {
	return "https://wa.me/" + digits + "?text=" + url.QueryEscape(body)
}

// memLogStore is an in-memory append-only log.
type memLogStore struct {
	mu        sync.Mutex
	entries   []*LogEntry
	appendErr error
	listErr   error
}

func (m *memLogStore) AppendLog(_ context.Context, entry *LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memLogStore) GetLog(_ context.Context, id string) (*LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

func (m *memLogStore) ListLogs(_ context.Context, _ LogFilter) ([]*LogEntry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.entries, len(m.entries), nil
}

// memReminderStore is an in-memory reminder job store.
type memReminderStore struct {
	mu        sync.Mutex
	jobs      map[string]*ReminderJob
	createErr error
}

func newMemReminderStore() *memReminderStore {
	return &memReminderStore{jobs: make(map[string]*ReminderJob)}
}

func (m *memReminderStore) CreateReminder(_ context.Context, job *ReminderJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	job.CreatedAt = time.Now()
	m.jobs[job.ID] = job
	return nil
}

func (m *memReminderStore) GetReminder(_ context.Context, id string) (*ReminderJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[id], nil
}

func (m *memReminderStore) GetReminderByAppointment(_ context.Context, appointmentID string, kind MessageKind) (*ReminderJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, job := range m.jobs {
		if job.AppointmentID == appointmentID && job.Kind == kind && job.Status == ReminderScheduled {
			return job, nil
		}
	}
	return nil, nil
}

func (m *memReminderStore) UpdateReminderStatus(_ context.Context, id string, status ReminderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[id]; ok {
		job.Status = status
		job.UpdatedAt = time.Now()
	}
	return nil
}

func (m *memReminderStore) CancelByAppointment(_ context.Context, appointmentID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, job := range m.jobs {
		if job.AppointmentID == appointmentID && job.Status == ReminderScheduled {
			job.Status = ReminderCancelled
			n++
		}
	}
	return n, nil
}

func (m *memReminderStore) ListOverdue(_ context.Context, olderThan time.Time, limit int) ([]*ReminderJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*ReminderJob
	for _, job := range m.jobs {
		if job.Status == ReminderScheduled && job.FireAt.Before(olderThan) && len(out) < limit {
			out = append(out, job)
		}
	}
	return out, nil
}

// stubEnqueuer records reminder registrations and optionally fails. With a
// non-nil queued map it also models task ID ownership: a second registration
// for the same appointment conflicts until the task is dequeued.
type stubEnqueuer struct {
	err        error
	dequeueErr error
	calls      int
	dequeues   int
	jobID      string
	fireAt     time.Time
	queued     map[string]bool
}

func (e *stubEnqueuer) EnqueueReminder(jobID, appointmentID string, kind MessageKind, fireAt time.Time) error {
	e.calls++
	e.jobID = jobID
	e.fireAt = fireAt
	if e.err != nil {
		return e.err
	}
	if e.queued != nil {
		id := ReminderTaskID(appointmentID, kind)
		if e.queued[id] {
			return ErrDuplicateReminder
		}
		e.queued[id] = true
	}
	return nil
}

func (e *stubEnqueuer) DequeueReminder(appointmentID string, kind MessageKind) error {
	e.dequeues++
	if e.dequeueErr != nil {
		return e.dequeueErr
	}
	if e.queued != nil {
		delete(e.queued, ReminderTaskID(appointmentID, kind))
	}
	return nil
}

// memTemplateStore is an in-memory template store keyed by id.
type memTemplateStore struct {
	mu        sync.Mutex
	templates map[string]*Template
	nextID    int
}

func newMemTemplateStore() *memTemplateStore {
	return &memTemplateStore{templates: make(map[string]*Template)}
}

func (m *memTemplateStore) GetTemplate(_ context.Context, kind MessageKind, ch Channel) (*Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tmpl := range m.templates {
		if tmpl.Kind == kind && (tmpl.Channel == TemplateChannel(ch) || tmpl.Channel == TemplateChannelBoth) {
			return tmpl, nil
		}
	}
	return nil, nil
}

func (m *memTemplateStore) ListTemplates(_ context.Context) ([]*Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Template, 0, len(m.templates))
	for _, tmpl := range m.templates {
		out = append(out, tmpl)
	}
	return out, nil
}

func (m *memTemplateStore) CreateTemplate(_ context.Context, tmpl *Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	tmpl.ID = "tmpl-" + strconv.Itoa(m.nextID)
	tmpl.CreatedAt = time.Now()
	m.templates[tmpl.ID] = tmpl
	return nil
}

func (m *memTemplateStore) UpdateTemplate(_ context.Context, tmpl *Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[tmpl.ID] = tmpl
	return nil
}

func (m *memTemplateStore) DeleteTemplate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.templates, id)
	return nil
}

// stubLimiter is a fixed-answer recipient rate limiter.
type stubLimiter struct {
	allow bool
	err   error
	last  string
}

func (l *stubLimiter) Allow(_ context.Context, recipient string) (bool, error) {
	l.last = recipient
	return l.allow, l.err
}
