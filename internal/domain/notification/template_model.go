package notification

import "time"

// TemplateChannel is the channel a template targets. "both" matches either
// delivery channel when no channel-specific template exists.
type TemplateChannel string

const (
	TemplateChannelWhatsApp TemplateChannel = "whatsapp"
	TemplateChannelSMS      TemplateChannel = "sms"
	TemplateChannelBoth     TemplateChannel = "both"
)

// IsValidTemplateChannel checks whether a template channel value is recognized.
func IsValidTemplateChannel(c TemplateChannel) bool {
	switch c {
	case TemplateChannelWhatsApp, TemplateChannelSMS, TemplateChannelBoth:
		return true
	}
	return false
}

// Template is administrator-authored message text with {name} placeholders.
// Read-only to the dispatch path; managed through the admin API.
type Template struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Kind      MessageKind     `json:"kind"`
	Channel   TemplateChannel `json:"channel"`
	Body      string          `json:"body"`
	CreatedBy string          `json:"created_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TemplateRequest is the API payload for creating or updating a template.
type TemplateRequest struct {
	Name      string          `json:"name" binding:"required"`
	Kind      MessageKind     `json:"kind" binding:"required"`
	Channel   TemplateChannel `json:"channel" binding:"required"`
	Body      string          `json:"body" binding:"required"`
	CreatedBy string          `json:"created_by"`
}

// defaultBodies are the compiled-in fallbacks used when an administrator has
// not authored a template for a message kind.
var defaultBodies = map[MessageKind]string{
	KindConfirmation: "Dear {patient_name}, your appointment with {doctor_name} ({department}) is confirmed for {appointment_date} at {time}. Ref: {appointment_id}.",
	KindReminder:     "Dear {patient_name}, this is a reminder of your appointment with {doctor_name} ({department}) on {appointment_date} at {time}.",
	KindCancellation: "Dear {patient_name}, your appointment with {doctor_name} on {appointment_date} at {time} has been cancelled. Please contact us to rebook.",
	KindReschedule:   "Dear {patient_name}, your appointment with {doctor_name} has been rescheduled to {new_date} at {new_time}.",
}

// DefaultBody returns the compiled-in template body for a message kind.
func DefaultBody(kind MessageKind) (string, bool) {
	body, ok := defaultBodies[kind]
	return body, ok
}
