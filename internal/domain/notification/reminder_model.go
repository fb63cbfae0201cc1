package notification

import (
	"time"
)

// ReminderStatus represents the lifecycle state of a reminder job.
type ReminderStatus string

const (
	ReminderScheduled ReminderStatus = "scheduled"
	ReminderFired     ReminderStatus = "fired"
	ReminderCancelled ReminderStatus = "cancelled"
	ReminderFailed    ReminderStatus = "failed"
)

// ReminderLead is a configured lead interval before the appointment.
// Two presets are supported.
type ReminderLead string

const (
	LeadDayBefore ReminderLead = "24h"
	LeadSameDay   ReminderLead = "3h"
)

// Duration returns the lead as a time.Duration.
func (l ReminderLead) Duration() time.Duration {
	if l == LeadSameDay {
		return 3 * time.Hour
	}
	return 24 * time.Hour
}

// IsValidLead checks whether a lead value is one of the supported presets.
func IsValidLead(l ReminderLead) bool {
	return l == LeadDayBefore || l == LeadSameDay
}

// ReminderJob is a deferred dispatch: registered at booking time, fired once
// at the computed lead time by the queue worker. De-duplicated by appointment
// id + kind.
type ReminderJob struct {
	ID              string         `json:"id"`
	AppointmentID   string         `json:"appointment_id"`
	Kind            MessageKind    `json:"kind"`
	PatientName     string         `json:"patient_name"`
	DoctorName      string         `json:"doctor_name"`
	Department      string         `json:"department"`
	AppointmentDate string         `json:"appointment_date"`
	AppointmentTime string         `json:"appointment_time"`
	Phone           string         `json:"phone"`
	Channels        []Channel      `json:"channels"`
	Lead            ReminderLead   `json:"lead"`
	FireAt          time.Time      `json:"fire_at"`
	Status          ReminderStatus `json:"status"`
	CreatedBy       string         `json:"created_by,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Request builds the dispatch request this job will fire.
func (j *ReminderJob) Request() *NotificationRequest {
	return &NotificationRequest{
		PatientName:     j.PatientName,
		DoctorName:      j.DoctorName,
		Department:      j.Department,
		AppointmentDate: j.AppointmentDate,
		AppointmentTime: j.AppointmentTime,
		Phone:           j.Phone,
		Kind:            j.Kind,
		AppointmentID:   j.AppointmentID,
	}
}

// ScheduleRequest is the API request payload for registering a reminder.
type ScheduleRequest struct {
	AppointmentID   string       `json:"appointment_id" binding:"required"`
	PatientName     string       `json:"patient_name" binding:"required"`
	DoctorName      string       `json:"doctor_name"`
	Department      string       `json:"department"`
	AppointmentDate string       `json:"appointment_date" binding:"required"`
	AppointmentTime string       `json:"appointment_time" binding:"required"`
	Phone           string       `json:"phone"`
	Channels        []Channel    `json:"channels"`
	Lead            ReminderLead `json:"lead"`
	TriggeredBy     string       `json:"triggered_by"`
}

// ScheduleResult is the outcome of a schedule call. The caller receives a
// registration acknowledgment only, never delivery confirmation.
type ScheduleResult struct {
	JobID            string    `json:"job_id"`
	AppointmentID    string    `json:"appointment_id"`
	FireAt           time.Time `json:"fire_at"`
	AlreadyScheduled bool      `json:"already_scheduled"`
}
