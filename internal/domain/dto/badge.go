package dto

import "time"

type CreateBadge struct {
	Name        string `json:"name" validate:"required,max=64"`
	Description string `json:"description" validate:"max=500"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
	Criteria    string `json:"criteria" validate:"max=500"`
	Points      int    `json:"points" validate:"min=0,max=1000"`
}

type UpdateBadge struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=64"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
	Criteria    *string `json:"criteria" validate:"omitempty,max=500"`
	Points      *int    `json:"points" validate:"omitempty,min=0,max=1000"`
}

// AwardBadge identifies an award for the manual award and revoke paths.
type AwardBadge struct {
	UserID  string `json:"user_id" validate:"required,uuid"`
	BadgeID string `json:"badge_id" validate:"required,uuid"`
	KugID   string `json:"kug_id" validate:"required,uuid"`
}

type BadgeHolder struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url"`
	KugName   string    `json:"kug_name"`
	AwardedAt time.Time `json:"awarded_at"`
}
