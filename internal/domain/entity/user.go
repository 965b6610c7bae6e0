package entity

type Role string

const (
	RoleMember Role = "member"
	RoleLead   Role = "lead"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleLead, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	Model
	Name           string `gorm:"not null" json:"name"`
	Email          string `gorm:"not null;uniqueIndex" json:"email"`
	PasswordHash   string `json:"-"`
	Role           Role   `gorm:"not null;default:member" json:"role"`
	Bio            string `json:"bio"`
	AvatarURL      string `json:"avatar_url"`
	GithubUsername string `json:"github_username"`
	TwitterHandle  string `json:"twitter_handle"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
