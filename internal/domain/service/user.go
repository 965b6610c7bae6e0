package service

import (
	"context"
	"fmt"

	"github.com/kug-advocacy/kug-platform/internal/domain/common/errorz"
	"github.com/kug-advocacy/kug-platform/internal/domain/dto"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
	"github.com/kug-advocacy/kug-platform/internal/domain/policy"
	"github.com/kug-advocacy/kug-platform/internal/domain/utils/validator"
	"github.com/kug-advocacy/kug-platform/pkg/logger/types"
)

type UserStorage interface {
	Create(ctx context.Context, user *entity.User) (*entity.User, error)
	Get(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) (*entity.User, error)
	Count(ctx context.Context) (int64, error)
	GetWithPagination(ctx context.Context, offset, limit int, order string) ([]entity.User, error)
}

type UserService struct {
	userStorage UserStorage

	logger *types.Logger
}

func NewUserService(logger *types.Logger, userStorage UserStorage) *UserService {
	return &UserService{
		userStorage: userStorage,
		logger:      logger,
	}
}

func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	return s.userStorage.Get(ctx, id)
}

func (s *UserService) Count(ctx context.Context) (int64, error) {
	return s.userStorage.Count(ctx)
}

func (s *UserService) GetWithPagination(ctx context.Context, offset, limit int) ([]entity.User, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.userStorage.GetWithPagination(ctx, offset, limit, "name ASC")
}

func (s *UserService) UpdateProfile(ctx context.Context, actor policy.Actor, id string, in dto.UpdateProfile) (*entity.User, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	if !policy.Authorize(actor, policy.ProfileEdit, policy.Resource{OwnerID: id}) {
		return nil, errorz.ErrForbidden
	}

	user, err := s.userStorage.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Bio != nil {
		user.Bio = *in.Bio
	}
	if in.AvatarURL != nil {
		user.AvatarURL = *in.AvatarURL
	}
	if in.GithubUsername != nil {
		user.GithubUsername = *in.GithubUsername
	}
	if in.TwitterHandle != nil {
		user.TwitterHandle = *in.TwitterHandle
	}
	return s.userStorage.Update(ctx, user)
}

func (s *UserService) ChangeRole(ctx context.Context, actor policy.Actor, id string, in dto.ChangeRole) (*entity.User, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	if !policy.Authorize(actor, policy.UserManage, policy.Resource{OwnerID: id}) {
		return nil, errorz.ErrForbidden
	}
	if actor.UserID == id && entity.Role(in.Role) != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: admins cannot demote themselves", errorz.ErrValidation)
	}

	user, err := s.userStorage.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Role = entity.Role(in.Role)
	user, err = s.userStorage.Update(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Infof("(user: %s) changed role of %s to %s", actor.UserID, id, in.Role)
	return user, nil
}
