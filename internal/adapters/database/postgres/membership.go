package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/kug-advocacy/kug-platform/internal/domain/dto"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
)

type MembershipStorage struct {
	db *gorm.DB
}

func NewMembershipStorage(db *gorm.DB) *MembershipStorage {
	return &MembershipStorage{
		db: db,
	}
}

func (s *MembershipStorage) Create(ctx context.Context, membership *entity.Membership) (*entity.Membership, error) {
	err := s.db.WithContext(ctx).Create(membership).Error
	return membership, err
}

func (s *MembershipStorage) Get(ctx context.Context, kugID, userID string) (*entity.Membership, error) {
	var membership entity.Membership
	err := s.db.WithContext(ctx).Where("kug_id = ? AND user_id = ?", kugID, userID).First(&membership).Error
	return &membership, notFound(err)
}

// Role returns the user's role in the KUG, or nil if the user is not a member.
func (s *MembershipStorage) Role(ctx context.Context, kugID, userID string) (*entity.MembershipRole, error) {
	var memberships []entity.Membership
	err := s.db.WithContext(ctx).
		Where("kug_id = ? AND user_id = ?", kugID, userID).
		Limit(1).
		Find(&memberships).Error
	if err != nil || len(memberships) == 0 {
		return nil, err
	}
	return &memberships[0].Role, nil
}

func (s *MembershipStorage) UpdateRole(ctx context.Context, kugID, userID string, role entity.MembershipRole) error {
	res := s.db.WithContext(ctx).
		Model(&entity.Membership{}).
		Where("kug_id = ? AND user_id = ?", kugID, userID).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound)
	}
	return nil
}

func (s *MembershipStorage) Delete(ctx context.Context, kugID, userID string) error {
	res := s.db.WithContext(ctx).Where("kug_id = ? AND user_id = ?", kugID, userID).Delete(&entity.Membership{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound)
	}
	return nil
}

// GetMembers lists the KUG's members with their user details.
func (s *MembershipStorage) GetMembers(ctx context.Context, kugID string) ([]dto.KugMember, error) {
	var members []dto.KugMember
	err := s.db.WithContext(ctx).
		Table("memberships AS m").
		Select("u.id AS user_id, u.name, u.email, u.avatar_url, m.role, m.joined_at").
		Joins("JOIN users u ON u.id = m.user_id").
		Where("m.kug_id = ?", kugID).
		Order("m.joined_at ASC, u.name ASC").
		Scan(&members).Error
	return members, err
}

func (s *MembershipStorage) GetByUserID(ctx context.Context, userID string) ([]entity.Membership, error) {
	var memberships []entity.Membership
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&memberships).Error
	return memberships, err
}
