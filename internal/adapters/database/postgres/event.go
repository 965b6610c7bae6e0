package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
)

type EventStorage struct {
	db *gorm.DB
}

func NewEventStorage(db *gorm.DB) *EventStorage {
	return &EventStorage{
		db: db,
	}
}

// Create is a function that creates a new event in the database.
func (s *EventStorage) Create(ctx context.Context, event *entity.Event) (*entity.Event, error) {
	err := s.db.WithContext(ctx).Create(event).Error
	return event, err
}

// Get is a function that gets an event from the database by id.
func (s *EventStorage) Get(ctx context.Context, id string) (*entity.Event, error) {
	var event entity.Event
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	return &event, notFound(err)
}

// GetAll gets events ordered by start time, optionally for a single KUG.
func (s *EventStorage) GetAll(ctx context.Context, kugID string) ([]entity.Event, error) {
	var events []entity.Event
	query := s.db.WithContext(ctx).Order("start_time ASC")
	if kugID != "" {
		query = query.Where("kug_id = ?", kugID)
	}
	err := query.Find(&events).Error
	return events, err
}

// Update is a function that updates an event in the database.
func (s *EventStorage) Update(ctx context.Context, event *entity.Event) (*entity.Event, error) {
	err := s.db.WithContext(ctx).Save(event).Error
	return event, err
}

// CompleteEnded marks upcoming events that ended before the given time as
// completed and reports how many rows changed.
func (s *EventStorage) CompleteEnded(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&entity.Event{}).
		Where("status = ? AND end_time < ?", entity.EventUpcoming, before.UTC()).
		Update("status", entity.EventCompleted)
	return res.RowsAffected, res.Error
}
