package common

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id '%s' not found", e.Resource, e.ID)
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError indicates invalid input data.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// UnauthorizedError indicates missing or invalid authentication.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	if e.Message == "" {
		return "unauthorized"
	}
	return e.Message
}

// NewUnauthorizedError creates a new UnauthorizedError.
func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

// MissingRecipientError indicates a notification had no usable phone number.
// This is the only failure that aborts a dispatch before any channel is tried.
type MissingRecipientError struct{}

func (e *MissingRecipientError) Error() string {
	return "no recipient phone number supplied"
}

// NewMissingRecipientError creates a new MissingRecipientError.
func NewMissingRecipientError() *MissingRecipientError {
	return &MissingRecipientError{}
}

// InvalidPhoneError indicates the phone survived normalization but is too
// short to deliver to. Fatal for a single channel attempt, not the dispatch.
type InvalidPhoneError struct {
	Phone string
}

func (e *InvalidPhoneError) Error() string {
	return fmt.Sprintf("phone number '%s' is too short to deliver to", e.Phone)
}

// NewInvalidPhoneError creates a new InvalidPhoneError.
func NewInvalidPhoneError(phone string) *InvalidPhoneError {
	return &InvalidPhoneError{Phone: phone}
}

// ChannelError indicates a transport or gateway failure on one delivery
// channel. Recoverable: the dispatcher converts it into a failed result and
// falls back to the other channel.
type ChannelError struct {
	Channel string
	Message string
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("%s channel error: %s", e.Channel, e.Message)
}

// NewChannelError creates a new ChannelError.
func NewChannelError(channel, message string) *ChannelError {
	return &ChannelError{Channel: channel, Message: message}
}

// SchedulingError indicates a reminder could not be registered with the
// deferred-job facility. Reported to the caller, never blocks the
// already-completed immediate send.
type SchedulingError struct {
	AppointmentID string
	Message       string
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("scheduling reminder for appointment '%s': %s", e.AppointmentID, e.Message)
}

// NewSchedulingError creates a new SchedulingError.
func NewSchedulingError(appointmentID, message string) *SchedulingError {
	return &SchedulingError{AppointmentID: appointmentID, Message: message}
}
