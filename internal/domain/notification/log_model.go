package notification

import "time"

// LogStatus represents the delivery status recorded in the audit trail.
type LogStatus string

const (
	StatusSent    LogStatus = "sent"
	StatusFailed  LogStatus = "failed"
	StatusPending LogStatus = "pending"
)

// LogEntry is one persisted dispatch attempt. Entries are append-only and
// never mutated after creation.
type LogEntry struct {
	ID             string      `json:"id"`
	TemplateName   string      `json:"template_name,omitempty"`
	Kind           MessageKind `json:"kind"`
	Channel        Channel     `json:"channel"`
	RecipientName  string      `json:"recipient_name"`
	RecipientPhone string      `json:"recipient_phone"` // canonicalized
	AppointmentID  string      `json:"appointment_id,omitempty"`
	Body           string      `json:"body,omitempty"`
	Status         LogStatus   `json:"status"`
	ErrorMessage   string      `json:"error_message,omitempty"`
	TriggeredBy    string      `json:"triggered_by,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// LogFilter defines pagination and filtering options for the audit view.
// All filters compose with logical AND. Recipient matches a substring of
// either the recipient name or phone.
type LogFilter struct {
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	Recipient string `form:"recipient"`
	Kind      string `form:"kind"`
	Channel   string `form:"channel"`
	Status    string `form:"status"`
	Date      string `form:"date"` // single calendar day, 2006-01-02
}

// LogListResponse wraps a paginated list of log entries.
type LogListResponse struct {
	Entries  []*LogEntry `json:"entries"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}
