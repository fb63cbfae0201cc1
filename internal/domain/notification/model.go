package notification

import "strings"

// Channel represents a notification delivery channel.
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelSMS      Channel = "sms"
)

// MessageKind enumerates the supported notification message kinds.
type MessageKind string

const (
	KindConfirmation MessageKind = "confirmation"
	KindReminder     MessageKind = "reminder"
	KindCancellation MessageKind = "cancellation"
	KindReschedule   MessageKind = "reschedule"
)

// validKinds is the set of all recognized message kinds.
var validKinds = map[MessageKind]bool{
	KindConfirmation: true,
	KindReminder:     true,
	KindCancellation: true,
	KindReschedule:   true,
}

// IsValidKind checks whether a message kind is recognized.
func IsValidKind(k MessageKind) bool {
	return validKinds[k]
}

// DefaultChannels returns the channel set used when the caller does not pick
// one: WhatsApp first, SMS second.
func DefaultChannels() []Channel {
	return []Channel{ChannelWhatsApp, ChannelSMS}
}

// NotificationRequest carries the appointment and patient facts for one send.
// Constructed per dispatch; never persisted itself.
type NotificationRequest struct {
	PatientName     string
	DoctorName      string
	Department      string
	AppointmentDate string // 2006-01-02
	AppointmentTime string // e.g. "3:00 PM"
	Phone           string // raw, unvalidated
	Kind            MessageKind
	AppointmentID   string
	NewDate         string
	NewTime         string
}

// TemplateData builds the placeholder mapping for this request. Only fields
// that were actually supplied get a key, so missing values leave their
// placeholder tokens visible in the rendered message.
func (r *NotificationRequest) TemplateData() map[string]string {
	data := make(map[string]string, 8)
	if r.PatientName != "" {
		data["patient_name"] = r.PatientName
	}
	if r.DoctorName != "" {
		data["doctor_name"] = FormatDoctorName(r.DoctorName)
	}
	if r.Department != "" {
		data["department"] = r.Department
	}
	if r.AppointmentDate != "" {
		data["appointment_date"] = r.AppointmentDate
	}
	if r.AppointmentTime != "" {
		data["time"] = r.AppointmentTime
	}
	if r.AppointmentID != "" {
		data["appointment_id"] = r.AppointmentID
	}
	if r.NewDate != "" {
		data["new_date"] = r.NewDate
	}
	if r.NewTime != "" {
		data["new_time"] = r.NewTime
	}
	return data
}

// FormatDoctorName ensures a doctor name carries exactly one "Dr." prefix.
// "Smith" becomes "Dr. Smith"; "Dr. Rajesh Kumar" stays as supplied.
func FormatDoctorName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, "dr.") || strings.HasPrefix(lower, "dr ") {
		return name
	}
	return "Dr. " + name
}

// SendRequest is the API request payload for an immediate notification send.
type SendRequest struct {
	PatientName     string      `json:"patient_name" binding:"required"`
	DoctorName      string      `json:"doctor_name"`
	Department      string      `json:"department"`
	AppointmentDate string      `json:"appointment_date"`
	AppointmentTime string      `json:"appointment_time"`
	Phone           string      `json:"phone"`
	Kind            MessageKind `json:"kind" binding:"required"`
	AppointmentID   string      `json:"appointment_id"`
	NewDate         string      `json:"new_date"`
	NewTime         string      `json:"new_time"`
	Channels        []Channel   `json:"channels"`
	TriggeredBy     string      `json:"triggered_by"`
}

// Request converts the API payload into the internal dispatch request.
func (r *SendRequest) Request() *NotificationRequest {
	return &NotificationRequest{
		PatientName:     r.PatientName,
		DoctorName:      r.DoctorName,
		Department:      r.Department,
		AppointmentDate: r.AppointmentDate,
		AppointmentTime: r.AppointmentTime,
		Phone:           r.Phone,
		Kind:            r.Kind,
		AppointmentID:   r.AppointmentID,
		NewDate:         r.NewDate,
		NewTime:         r.NewTime,
	}
}

// DispatchResult is the per-channel outcome of one delivery attempt.
type DispatchResult struct {
	Channel    Channel `json:"channel"`
	Success    bool    `json:"success"`
	ProviderID string  `json:"provider_id,omitempty"`
	Link       string  `json:"link,omitempty"`
	Error      string  `json:"error,omitempty"`
	LastResort bool    `json:"last_resort,omitempty"`
}

// DispatchOutcome aggregates every channel attempt for one dispatch.
// Success is true when at least one attempt succeeded, so callers can tell
// partial success from total failure by inspecting Results.
type DispatchOutcome struct {
	Success bool             `json:"success"`
	Phone   string           `json:"phone"` // canonical digits
	Results []DispatchResult `json:"results"`
}

func (o *DispatchOutcome) anySuccess() bool {
	for _, r := range o.Results {
		if r.Success {
			return true
		}
	}
	return false
}

// SucceededChannels lists the channels that delivered, for user-facing
// confirmation messages.
func (o *DispatchOutcome) SucceededChannels() []Channel {
	var out []Channel
	for _, r := range o.Results {
		if r.Success {
			out = append(out, r.Channel)
		}
	}
	return out
}
