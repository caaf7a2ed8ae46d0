package service

import (
	"crono/internal/models"
)

// EventRef points at an event by id or by lookup code. ID wins when both are set.
type EventRef struct {
	ID   uint
	Code string
}

func (r EventRef) IsZero() bool {
	return r.ID == 0 && r.Code == ""
}

// TurnRef points at a turn by id, or by the (student, event) pair holding it.
type TurnRef struct {
	TurnID    uint
	StudentID uint
	EventID   uint
}

func TurnByID(id uint) TurnRef {
	return TurnRef{TurnID: id}
}

func TurnByStudentEvent(studentID, eventID uint) TurnRef {
	return TurnRef{StudentID: studentID, EventID: eventID}
}

func (r TurnRef) valid() bool {
	return r.TurnID != 0 || (r.StudentID != 0 && r.EventID != 0)
}

type JoinInput struct {
	StudentID uint
	Event     EventRef
}

type JoinOutput struct {
	Turn    models.Turn    `json:"turn"`
	Student models.Student `json:"student"`
	Event   models.Event   `json:"event"`
}

type RemoveOutput struct {
	TurnID           uint  `json:"turn_id"`
	StudentID        uint  `json:"student_id"`
	EventID          uint  `json:"event_id"`
	QueueID          uint  `json:"queue_id"`
	RemovedSpot      int   `json:"removed_spot"`
	LastAssignedSpot int   `json:"last_assigned_spot"`
	Shifted          int64 `json:"shifted"`
}

type QueueEntry struct {
	TurnID     uint   `json:"turn_id"`
	StudentID  uint   `json:"student_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Career     string `json:"career"`
	Semester   int    `json:"semester"`
	SpotNumber int    `json:"spot_number"`
}

type QueueStatusOutput struct {
	EventID          uint         `json:"event_id"`
	EventName        string       `json:"event_name"`
	QueueID          uint         `json:"queue_id,omitempty"`
	LastAssignedSpot int          `json:"last_assigned_spot"`
	Entries          []QueueEntry `json:"entries"`
}
