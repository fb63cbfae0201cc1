package notification

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TaskTypeFireReminder is the asynq task type for firing a reminder dispatch.
const TaskTypeFireReminder = "reminder:fire"

// FireReminderPayload is the serialized payload for a fire reminder task.
type FireReminderPayload struct {
	JobID string `json:"job_id"`
}

// ReminderTaskID builds the deterministic task ID used for queue-level
// de-duplication: one live task per appointment id + kind.
func ReminderTaskID(appointmentID string, kind MessageKind) string {
	return fmt.Sprintf("reminder:%s:%s", appointmentID, kind)
}

// NewFireReminderTask creates a new asynq task for firing a reminder.
func NewFireReminderTask(jobID string) (*asynq.Task, error) {
	payload, err := json.Marshal(FireReminderPayload{JobID: jobID})
	if err != nil {
		return nil, fmt.Errorf("marshaling task payload: %w", err)
	}
	return asynq.NewTask(TaskTypeFireReminder, payload), nil
}

// ParseFireReminderPayload deserializes the task payload.
func ParseFireReminderPayload(data []byte) (*FireReminderPayload, error) {
	var p FireReminderPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshaling task payload: %w", err)
	}
	return &p, nil
}
