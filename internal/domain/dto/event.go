package dto

import (
	"time"

	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
)

type Event struct {
	entity.Event
	KugName       string `json:"kug_name"`
	AttendeeCount int64  `json:"attendee_count"`
	IsRegistered  bool   `json:"is_registered"`
}

func NewEventFromEntity(event entity.Event, kugName string, attendees int64, isRegistered bool) Event {
	return Event{
		Event:         event,
		KugName:       kugName,
		AttendeeCount: attendees,
		IsRegistered:  isRegistered,
	}
}

type CreateEvent struct {
	KugID        string    `json:"kug_id" validate:"required,uuid"`
	Title        string    `json:"title" validate:"required,max=200"`
	Description  string    `json:"description" validate:"max=5000"`
	Location     string    `json:"location" validate:"max=300"`
	Type         string    `json:"type" validate:"max=50"`
	IsOnline     bool      `json:"is_online"`
	MeetingLink  string    `json:"meeting_link" validate:"omitempty,url"`
	StartTime    time.Time `json:"start_time" validate:"required"`
	EndTime      time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	MaxAttendees int       `json:"max_attendees" validate:"min=0"`
	Tags         []string  `json:"tags" validate:"max=20,dive,max=50"`
}

type UpdateEvent struct {
	Title        *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string    `json:"description" validate:"omitempty,max=5000"`
	Location     *string    `json:"location" validate:"omitempty,max=300"`
	Type         *string    `json:"type" validate:"omitempty,max=50"`
	IsOnline     *bool      `json:"is_online"`
	MeetingLink  *string    `json:"meeting_link" validate:"omitempty,url"`
	StartTime    *time.Time `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	MaxAttendees *int       `json:"max_attendees" validate:"omitempty,min=0"`
	Status       *string    `json:"status" validate:"omitempty,oneof=upcoming completed cancelled"`
	Tags         []string   `json:"tags" validate:"max=20,dive,max=50"`
}

type MarkAttendance struct {
	Status string `json:"status" validate:"required,attendee_status"`
}

type EventAttendee struct {
	UserID       string                `json:"user_id"`
	Name         string                `json:"name"`
	Email        string                `json:"email"`
	AvatarURL    string                `json:"avatar_url"`
	Status       entity.AttendeeStatus `json:"status"`
	RegisteredAt time.Time             `json:"registered_at"`
}
