package models

import (
	"time"
)

// Student is identified by its control number, which doubles as primary key.
type Student struct {
	ID        uint      `gorm:"primaryKey;autoIncrement:false" json:"student_id"`
	FirstName string    `gorm:"not null" json:"first_name"`
	LastName  string    `gorm:"not null" json:"last_name"`
	Career    string    `gorm:"not null" json:"career"`
	Semester  int       `gorm:"not null" json:"semester"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Event struct {
	ID        uint       `gorm:"primaryKey" json:"event_id"`
	Code      *string    `gorm:"uniqueIndex;size:32" json:"event_code,omitempty"` // Short lookup code handed out to students
	Name      string     `gorm:"not null" json:"event_name"`
	Location  string     `gorm:"not null" json:"location"`
	StartsAt  *time.Time `gorm:"index" json:"starts_at,omitempty"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`
	Active    bool       `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Queue is the waiting line of one event. LastAssignedSpot always matches the
// highest spot held by a turn of the queue, or 0 when the queue is empty.
type Queue struct {
	ID               uint      `gorm:"primaryKey" json:"queue_id"`
	EventID          uint      `gorm:"uniqueIndex;not null" json:"event_id"`
	Event            Event     `gorm:"foreignKey:EventID" json:"-"`
	LastAssignedSpot int       `gorm:"not null;default:0" json:"last_assigned_spot"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Turn is a student's claim on a spot of an event queue. Turns are deleted,
// not flagged, when they leave the queue, so the unique index over
// (event_id, student_id) only ever covers active turns.
type Turn struct {
	ID         uint      `gorm:"primaryKey" json:"turn_id"`
	StudentID  uint      `gorm:"not null;uniqueIndex:idx_turns_event_student,priority:2" json:"student_id"`
	Student    Student   `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	EventID    uint      `gorm:"not null;uniqueIndex:idx_turns_event_student,priority:1" json:"event_id"`
	Event      Event     `gorm:"foreignKey:EventID" json:"event,omitempty"`
	QueueID    *uint     `gorm:"index:idx_turns_queue_spot,priority:1" json:"queue_id"`
	SpotNumber *int      `gorm:"index:idx_turns_queue_spot,priority:2" json:"spot_number"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// All lists the tables owned by the service, in migration order.
func All() []any {
	return []any{&Student{}, &Event{}, &Queue{}, &Turn{}}
}
