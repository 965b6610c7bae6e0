package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Badge struct {
	Model
	Name        string `gorm:"not null;uniqueIndex" json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Criteria    string `json:"criteria"`
	Points      int    `gorm:"not null;default:0" json:"points"`
}

// UserBadge is an award. The unique index is the final arbiter for
// concurrent awards of the same badge in the same KUG.
type UserBadge struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_badge_scope" json:"user_id"`
	BadgeID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_badge_scope;index" json:"badge_id"`
	KugID     string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_badge_scope" json:"kug_id"`
	AwardedBy *string   `gorm:"type:uuid" json:"awarded_by,omitempty"`
	AwardedAt time.Time `gorm:"not null" json:"awarded_at"`
}

func (b *UserBadge) BeforeCreate(_ *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.AwardedAt.IsZero() {
		b.AwardedAt = time.Now()
	}
	return nil
}
