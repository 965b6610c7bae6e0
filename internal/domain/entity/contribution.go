package entity

import "time"

type ContributionType string

const (
	ContributionTalk  ContributionType = "talk"
	ContributionBlog  ContributionType = "blog"
	ContributionCode  ContributionType = "code"
	ContributionEvent ContributionType = "event"
)

// ContributionTypes lists the types accepted on submission and by the type leaderboard.
var ContributionTypes = []ContributionType{ContributionTalk, ContributionBlog, ContributionCode, ContributionEvent}

func (t ContributionType) Valid() bool {
	for _, v := range ContributionTypes {
		if v == t {
			return true
		}
	}
	return false
}

// DefaultPoints is the point value used when a submission does not carry one.
func (t ContributionType) DefaultPoints() int {
	switch t {
	case ContributionTalk:
		return 50
	case ContributionBlog:
		return 30
	case ContributionCode:
		return 40
	case ContributionEvent:
		return 60
	default:
		return 20
	}
}

type ContributionStatus string

const (
	StatusPending  ContributionStatus = "pending"
	StatusApproved ContributionStatus = "approved"
	StatusRejected ContributionStatus = "rejected"
)

type Contribution struct {
	Model
	UserID          string             `gorm:"type:uuid;not null;index" json:"user_id"`
	KugID           string             `gorm:"type:uuid;not null;index" json:"kug_id"`
	Type            ContributionType   `gorm:"not null;index" json:"type"`
	Title           string             `gorm:"not null" json:"title"`
	Description     string             `json:"description"`
	URL             string             `json:"url"`
	Date            time.Time          `gorm:"not null;index" json:"date"`
	Points          int                `gorm:"not null" json:"points"`
	Status          ContributionStatus `gorm:"not null;default:pending;index" json:"status"`
	ApprovedBy      *string            `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedAt      *time.Time         `json:"approved_at,omitempty"`
	RejectedBy      *string            `gorm:"type:uuid" json:"rejected_by,omitempty"`
	RejectedAt      *time.Time         `json:"rejected_at,omitempty"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
}

// IsPending reports whether the contribution still awaits review.
func (c *Contribution) IsPending() bool {
	return c.Status == StatusPending
}
