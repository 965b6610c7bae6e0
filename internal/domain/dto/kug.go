package dto

import (
	"time"

	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
)

type CreateKug struct {
	Name        string   `json:"name" validate:"required,kug_name"`
	City        string   `json:"city" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=2000"`
	Website     string   `json:"website" validate:"omitempty,url"`
	SocialLinks []string `json:"social_links" validate:"max=10,dive,url"`
}

type UpdateKug struct {
	Name        *string  `json:"name" validate:"omitempty,kug_name"`
	City        *string  `json:"city" validate:"omitempty,min=1,max=100"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Website     *string  `json:"website" validate:"omitempty,url"`
	SocialLinks []string `json:"social_links" validate:"max=10,dive,url"`
}

type ChangeMemberRole struct {
	Role string `json:"role" validate:"required,membership_role"`
}

type KugMember struct {
	UserID    string                `json:"user_id"`
	Name      string                `json:"name"`
	Email     string                `json:"email"`
	AvatarURL string                `json:"avatar_url"`
	Role      entity.MembershipRole `json:"role"`
	JoinedAt  time.Time             `json:"joined_at"`
}
