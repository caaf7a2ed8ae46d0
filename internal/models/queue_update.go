package models

import "time"

type UpdateType string

const (
	UpdateTypeTurnJoined  UpdateType = "turn_joined"
	UpdateTypeTurnRemoved UpdateType = "turn_removed"
)

// QueueUpdate is emitted after a turn transaction commits. Subscribers use
// it to refresh their view of the queue; spots behind a removed spot have
// moved up by one.
type QueueUpdate struct {
	EventID          uint       `json:"event_id"`
	QueueID          uint       `json:"queue_id"`
	Type             UpdateType `json:"type"`
	TurnID           uint       `json:"turn_id"`
	StudentID        uint       `json:"student_id"`
	Spot             int        `json:"spot"`
	LastAssignedSpot int        `json:"last_assigned_spot"`
	Reason           string     `json:"reason,omitempty"`
	Timestamp        time.Time  `json:"timestamp"`
}
