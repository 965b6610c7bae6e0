// Package policy decides who may do what. It never touches storage: callers
// fetch the actor's membership in the relevant KUG and pass it in.
package policy

import "github.com/kug-advocacy/kug-platform/internal/domain/entity"

type Action string

const (
	ContributionCreate Action = "contribution:create"
	ContributionUpdate Action = "contribution:update"
	ContributionReview Action = "contribution:review"
	BadgeAward         Action = "badge:award"
	BadgeRevoke        Action = "badge:revoke"
	BadgeManage        Action = "badge:manage"
	KugCreate          Action = "kug:create"
	KugManage          Action = "kug:manage"
	EventManage        Action = "event:manage"
	UserManage         Action = "user:manage"
	ProfileEdit        Action = "profile:edit"
)

type Actor struct {
	UserID string
	Role   entity.Role
}

func ActorOf(u *entity.User) Actor {
	if u == nil {
		return Actor{}
	}
	return Actor{UserID: u.ID, Role: u.Role}
}

// Resource describes the object an action targets. Membership is the
// actor's role in KugID, nil when the actor is not a member.
type Resource struct {
	OwnerID    string
	KugID      string
	Membership *entity.MembershipRole
}

func (a Actor) isAdmin() bool {
	return a.Role == entity.RoleAdmin
}

func (r Resource) isMember() bool {
	return r.Membership != nil
}

func (r Resource) isLead() bool {
	return r.Membership != nil && *r.Membership == entity.MembershipLead
}

// Authorize reports whether actor may perform action on res.
func Authorize(actor Actor, action Action, res Resource) bool {
	if actor.UserID == "" {
		return false
	}

	switch action {
	case ContributionCreate:
		return res.isMember()
	case ContributionUpdate:
		return actor.UserID == res.OwnerID || actor.isAdmin() || res.isLead()
	case ContributionReview, BadgeAward, KugManage, EventManage:
		return actor.isAdmin() || res.isLead()
	case BadgeRevoke, BadgeManage, KugCreate, UserManage:
		return actor.isAdmin()
	case ProfileEdit:
		return actor.UserID == res.OwnerID || actor.isAdmin()
	}
	return false
}
