// Package events defines the payloads published to Kafka by the outbox.
package events

import "time"

// ProgressRecordedType is the outbox event type for ProgressRecorded.
const ProgressRecordedType = "progress.recorded"

// ProgressRecorded is emitted whenever a progress record is created or a
// steps record is merged.
type ProgressRecorded struct {
	RecordID   string    `json:"record_id"`
	UserID     string    `json:"user_id"`
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
	StepsTotal *int      `json:"steps_total,omitempty"`
}
