package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kug-advocacy/kug-platform/internal/domain/common/errorz"
	"github.com/kug-advocacy/kug-platform/internal/domain/dto"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
)

type EventAttendeeStorage struct {
	db *gorm.DB
}

func NewEventAttendeeStorage(db *gorm.DB) *EventAttendeeStorage {
	return &EventAttendeeStorage{
		db: db,
	}
}

// Register adds the user to the event, or reactivates a cancelled RSVP.
// The event row is locked so the capacity check and the insert are atomic.
func (s *EventAttendeeStorage) Register(ctx context.Context, eventID, userID string) (*entity.EventAttendee, error) {
	var attendee entity.EventAttendee
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event entity.Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", eventID).First(&event).Error; err != nil {
			return notFound(err)
		}

		var existing []entity.EventAttendee
		if err := tx.Where("event_id = ? AND user_id = ?", eventID, userID).Limit(1).Find(&existing).Error; err != nil {
			return err
		}
		if len(existing) > 0 && existing[0].Status != entity.AttendeeCancelled {
			return errorz.ErrAlreadyExists
		}

		var registered int64
		if err := tx.Model(&entity.EventAttendee{}).
			Where("event_id = ? AND status <> ?", eventID, entity.AttendeeCancelled).
			Count(&registered).Error; err != nil {
			return err
		}
		if !event.HasCapacity(registered) {
			return errorz.ErrEventFull
		}

		if len(existing) > 0 {
			attendee = existing[0]
			attendee.Status = entity.AttendeeRegistered
			return tx.Save(&attendee).Error
		}
		attendee = entity.EventAttendee{EventID: eventID, UserID: userID, Status: entity.AttendeeRegistered}
		return tx.Create(&attendee).Error
	})
	return &attendee, err
}

func (s *EventAttendeeStorage) Get(ctx context.Context, eventID, userID string) (*entity.EventAttendee, error) {
	var attendee entity.EventAttendee
	err := s.db.WithContext(ctx).Where("event_id = ? AND user_id = ?", eventID, userID).First(&attendee).Error
	return &attendee, notFound(err)
}

func (s *EventAttendeeStorage) UpdateStatus(ctx context.Context, eventID, userID string, status entity.AttendeeStatus) error {
	res := s.db.WithContext(ctx).
		Model(&entity.EventAttendee{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound)
	}
	return nil
}

func (s *EventAttendeeStorage) Delete(ctx context.Context, eventID, userID string) error {
	res := s.db.WithContext(ctx).Where("event_id = ? AND user_id = ?", eventID, userID).Delete(&entity.EventAttendee{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound)
	}
	return nil
}

// CountByEventID counts attendees that have not cancelled.
func (s *EventAttendeeStorage) CountByEventID(ctx context.Context, eventID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&entity.EventAttendee{}).
		Where("event_id = ? AND status <> ?", eventID, entity.AttendeeCancelled).
		Count(&count).Error
	return count, err
}

func (s *EventAttendeeStorage) GetByEventID(ctx context.Context, eventID string) ([]dto.EventAttendee, error) {
	var attendees []dto.EventAttendee
	err := s.db.WithContext(ctx).
		Table("event_attendees AS ea").
		Select("u.id AS user_id, u.name, u.email, u.avatar_url, ea.status, ea.registered_at").
		Joins("JOIN users u ON u.id = ea.user_id").
		Where("ea.event_id = ?", eventID).
		Order("ea.registered_at ASC").
		Scan(&attendees).Error
	return attendees, err
}
