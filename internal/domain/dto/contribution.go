package dto

import (
	"time"

	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
)

type CreateContribution struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	Type        string     `json:"type" validate:"required,contribution_type"`
	KugID       string     `json:"kug_id" validate:"required,uuid"`
	URL         string     `json:"url" validate:"omitempty,url"`
	Date        *time.Time `json:"date"`
	Points      *int       `json:"points" validate:"omitempty,min=0,max=1000"`
	Status      string     `json:"status" validate:"omitempty,oneof=pending"`
}

// UpdateContribution carries only the fields being changed.
type UpdateContribution struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	Type        *string    `json:"type" validate:"omitempty,contribution_type"`
	URL         *string    `json:"url" validate:"omitempty,url"`
	Date        *time.Time `json:"date"`
	Points      *int       `json:"points" validate:"omitempty,min=0,max=1000"`
	Status      *string    `json:"status"`
}

type ReviewContribution struct {
	Reason string `json:"reason" validate:"max=1000"`
}

type ContributionFilter struct {
	KugID  string
	UserID string
	Status entity.ContributionStatus
	Type   entity.ContributionType
	Limit  int
	Offset int
}

// Contribution is a contribution joined with its author and KUG names.
type Contribution struct {
	entity.Contribution
	UserName string `json:"user_name"`
	KugName  string `json:"kug_name"`
}

// ContributionCounts are approved contribution counts for one (user, kug).
type ContributionCounts struct {
	Total  int64
	Talks  int64
	Blogs  int64
	Code   int64
	Events int64
}

// ContributionApproved is published once an approval has been written.
type ContributionApproved struct {
	ContributionID string    `json:"contribution_id"`
	UserID         string    `json:"user_id"`
	KugID          string    `json:"kug_id"`
	ApprovedBy     string    `json:"approved_by"`
	ApprovedAt     time.Time `json:"approved_at"`
}
