package entity

import "time"

type MembershipRole string

const (
	MembershipMember    MembershipRole = "member"
	MembershipOrganizer MembershipRole = "organizer"
	MembershipLead      MembershipRole = "lead"
)

func (r MembershipRole) Valid() bool {
	switch r {
	case MembershipMember, MembershipOrganizer, MembershipLead:
		return true
	}
	return false
}

// Membership links a user to a KUG. The composite key allows one row per (kug, user).
type Membership struct {
	KugID    string         `gorm:"primaryKey;type:uuid" json:"kug_id"`
	UserID   string         `gorm:"primaryKey;type:uuid;index" json:"user_id"`
	Role     MembershipRole `gorm:"not null;default:member" json:"role"`
	JoinedAt time.Time      `gorm:"autoCreateTime" json:"joined_at"`
}
