package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kug-advocacy/kug-platform/internal/domain/common/errorz"
	"github.com/kug-advocacy/kug-platform/internal/domain/dto"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
	"github.com/kug-advocacy/kug-platform/internal/domain/utils/validator"
	"github.com/kug-advocacy/kug-platform/pkg/logger/types"
)

type tokenIssuer interface {
	Generate(userID, email, role string) (string, error)
}

type AuthService struct {
	userStorage UserStorage
	tokens      tokenIssuer
	cost        int

	logger *types.Logger
}

func NewAuthService(logger *types.Logger, userStorage UserStorage, tokens tokenIssuer) *AuthService {
	return &AuthService{
		userStorage: userStorage,
		tokens:      tokens,
		cost:        bcrypt.DefaultCost,
		logger:      logger,
	}
}

func (s *AuthService) issue(user *entity.User) (*dto.AuthResult, error) {
	token, err := s.tokens.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &dto.AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) Register(ctx context.Context, in dto.Register) (*dto.AuthResult, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}

	user, err := s.userStorage.Create(ctx, &entity.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         entity.RoleMember,
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("%w: email is already registered", errorz.ErrAlreadyExists)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Infof("(user: %s) registered", user.ID)
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, in dto.Login) (*dto.AuthResult, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.userStorage.GetByEmail(ctx, in.Email)
	if errors.Is(err, errorz.ErrNotFound) {
		return nil, errorz.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, errorz.ErrInvalidCredentials
	}

	return s.issue(user)
}
