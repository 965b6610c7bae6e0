package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/kug-advocacy/kug-platform/internal/domain/common/errorz"
	"github.com/kug-advocacy/kug-platform/internal/domain/dto"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
	"github.com/kug-advocacy/kug-platform/internal/domain/policy"
	"github.com/kug-advocacy/kug-platform/internal/domain/utils/validator"
	"github.com/kug-advocacy/kug-platform/pkg/logger/types"
)

type KugStorage interface {
	Create(ctx context.Context, kug *entity.Kug) (*entity.Kug, error)
	Get(ctx context.Context, id string) (*entity.Kug, error)
	Update(ctx context.Context, kug *entity.Kug) (*entity.Kug, error)
	GetAll(ctx context.Context) ([]entity.Kug, error)
}

type MembershipStorage interface {
	Create(ctx context.Context, membership *entity.Membership) (*entity.Membership, error)
	Role(ctx context.Context, kugID, userID string) (*entity.MembershipRole, error)
	UpdateRole(ctx context.Context, kugID, userID string, role entity.MembershipRole) error
	Delete(ctx context.Context, kugID, userID string) error
	GetMembers(ctx context.Context, kugID string) ([]dto.KugMember, error)
	GetByUserID(ctx context.Context, userID string) ([]entity.Membership, error)
}

type KugService struct {
	kugStorage        KugStorage
	membershipStorage MembershipStorage

	logger *types.Logger
}

func NewKugService(logger *types.Logger, kugStorage KugStorage, membershipStorage MembershipStorage) *KugService {
	return &KugService{
		kugStorage:        kugStorage,
		membershipStorage: membershipStorage,
		logger:            logger,
	}
}

func (s *KugService) List(ctx context.Context) ([]entity.Kug, error) {
	return s.kugStorage.GetAll(ctx)
}

func (s *KugService) Get(ctx context.Context, id string) (*entity.Kug, error) {
	return s.kugStorage.Get(ctx, id)
}

func (s *KugService) Create(ctx context.Context, actor policy.Actor, in dto.CreateKug) (*entity.Kug, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	if !policy.Authorize(actor, policy.KugCreate, policy.Resource{}) {
		return nil, errorz.ErrForbidden
	}

	kug, err := s.kugStorage.Create(ctx, &entity.Kug{
		Name:        in.Name,
		City:        in.City,
		Description: in.Description,
		Website:     in.Website,
		SocialLinks: entity.StringList(in.SocialLinks),
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("%w: KUG %s", errorz.ErrAlreadyExists, in.Name)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Infof("(user: %s) created KUG (kug_id=%s)", actor.UserID, kug.ID)
	return kug, nil
}

func (s *KugService) authorizeManage(ctx context.Context, actor policy.Actor, kugID string) error {
	membership, err := s.membershipStorage.Role(ctx, kugID, actor.UserID)
	if err != nil {
		return err
	}
	if !policy.Authorize(actor, policy.KugManage, policy.Resource{KugID: kugID, Membership: membership}) {
		return errorz.ErrForbidden
	}
	return nil
}

func (s *KugService) Update(ctx context.Context, actor policy.Actor, id string, in dto.UpdateKug) (*entity.Kug, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	kug, err := s.kugStorage.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = s.authorizeManage(ctx, actor, id); err != nil {
		return nil, err
	}

	if in.Name != nil {
		kug.Name = *in.Name
	}
	if in.City != nil {
		kug.City = *in.City
	}
	if in.Description != nil {
		kug.Description = *in.Description
	}
	if in.Website != nil {
		kug.Website = *in.Website
	}
	if in.SocialLinks != nil {
		kug.SocialLinks = entity.StringList(in.SocialLinks)
	}

	updated, err := s.kugStorage.Update(ctx, kug)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("%w: KUG %s", errorz.ErrAlreadyExists, kug.Name)
	}
	return updated, err
}

func (s *KugService) Members(ctx context.Context, kugID string) ([]dto.KugMember, error) {
	if _, err := s.kugStorage.Get(ctx, kugID); err != nil {
		return nil, err
	}
	return s.membershipStorage.GetMembers(ctx, kugID)
}

// Memberships lists the KUGs the user belongs to.
func (s *KugService) Memberships(ctx context.Context, userID string) ([]entity.Membership, error) {
	return s.membershipStorage.GetByUserID(ctx, userID)
}

// Join makes actor a plain member of the KUG.
func (s *KugService) Join(ctx context.Context, actor policy.Actor, kugID string) (*entity.Membership, error) {
	if _, err := s.kugStorage.Get(ctx, kugID); err != nil {
		return nil, err
	}

	membership, err := s.membershipStorage.Create(ctx, &entity.Membership{
		KugID:  kugID,
		UserID: actor.UserID,
		Role:   entity.MembershipMember,
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("%w: already a member", errorz.ErrAlreadyExists)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Infof("(user: %s) joined KUG (kug_id=%s)", actor.UserID, kugID)
	return membership, nil
}

func (s *KugService) Leave(ctx context.Context, actor policy.Actor, kugID string) error {
	if err := s.membershipStorage.Delete(ctx, kugID, actor.UserID); err != nil {
		return err
	}
	s.logger.Infof("(user: %s) left KUG (kug_id=%s)", actor.UserID, kugID)
	return nil
}

func (s *KugService) ChangeMemberRole(ctx context.Context, actor policy.Actor, kugID, userID string, in dto.ChangeMemberRole) error {
	if err := validator.Struct(in); err != nil {
		return err
	}
	if _, err := s.kugStorage.Get(ctx, kugID); err != nil {
		return err
	}
	if err := s.authorizeManage(ctx, actor, kugID); err != nil {
		return err
	}
	if err := s.membershipStorage.UpdateRole(ctx, kugID, userID, entity.MembershipRole(in.Role)); err != nil {
		return err
	}

	s.logger.Infof("(user: %s) set role of %s to %s (kug_id=%s)", actor.UserID, userID, in.Role, kugID)
	return nil
}
