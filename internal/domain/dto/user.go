package dto

import "github.com/kug-advocacy/kug-platform/internal/domain/entity"

type Register struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *entity.User `json:"user"`
}

type UpdateProfile struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=100"`
	Bio            *string `json:"bio" validate:"omitempty,max=2000"`
	AvatarURL      *string `json:"avatar_url" validate:"omitempty,url"`
	GithubUsername *string `json:"github_username" validate:"omitempty,max=39"`
	TwitterHandle  *string `json:"twitter_handle" validate:"omitempty,max=15"`
}

type ChangeRole struct {
	Role string `json:"role" validate:"required,user_role"`
}
