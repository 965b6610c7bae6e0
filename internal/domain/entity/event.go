package entity

import (
	"time"

	"github.com/kug-advocacy/kug-platform/internal/domain/utils/location"
)

type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

type Event struct {
	Model
	KugID        string      `gorm:"type:uuid;not null;index" json:"kug_id"`
	Title        string      `gorm:"not null" json:"title"`
	Description  string      `json:"description"`
	Location     string      `json:"location"`
	Type         string      `json:"type"`
	IsOnline     bool        `json:"is_online"`
	MeetingLink  string      `json:"meeting_link,omitempty"`
	StartTime    time.Time   `gorm:"not null;index" json:"start_time"`
	EndTime      time.Time   `json:"end_time"`
	MaxAttendees int         `json:"max_attendees"`
	Status       EventStatus `gorm:"not null;default:upcoming" json:"status"`
	Tags         StringList  `json:"tags"`
	CreatedBy    string      `gorm:"type:uuid" json:"created_by"`
}

// IsOver checks if the event has started, shifted by additionalTime.
func (e *Event) IsOver(additionalTime time.Duration) bool {
	return e.StartTime.Before(time.Now().In(location.Location()).Add(-additionalTime))
}

// HasCapacity reports whether one more attendee fits. Zero means unlimited.
func (e *Event) HasCapacity(registered int64) bool {
	return e.MaxAttendees <= 0 || registered < int64(e.MaxAttendees)
}

type AttendeeStatus string

const (
	AttendeeRegistered AttendeeStatus = "registered"
	AttendeeAttended   AttendeeStatus = "attended"
	AttendeeCancelled  AttendeeStatus = "cancelled"
)

func (s AttendeeStatus) Valid() bool {
	switch s {
	case AttendeeRegistered, AttendeeAttended, AttendeeCancelled:
		return true
	}
	return false
}

type EventAttendee struct {
	EventID      string         `gorm:"primaryKey;type:uuid" json:"event_id"`
	UserID       string         `gorm:"primaryKey;type:uuid;index" json:"user_id"`
	Status       AttendeeStatus `gorm:"not null;default:registered" json:"status"`
	RegisteredAt time.Time      `gorm:"autoCreateTime" json:"registered_at"`
}
