package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/kug-advocacy/kug-platform/internal/domain/dto"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
)

type BadgeStorage struct {
	db *gorm.DB
}

func NewBadgeStorage(db *gorm.DB) *BadgeStorage {
	return &BadgeStorage{
		db: db,
	}
}

func (s *BadgeStorage) Create(ctx context.Context, badge *entity.Badge) (*entity.Badge, error) {
	err := s.db.WithContext(ctx).Create(badge).Error
	return badge, err
}

func (s *BadgeStorage) Get(ctx context.Context, id string) (*entity.Badge, error) {
	var badge entity.Badge
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&badge).Error
	return &badge, notFound(err)
}

func (s *BadgeStorage) Update(ctx context.Context, badge *entity.Badge) (*entity.Badge, error) {
	err := s.db.WithContext(ctx).Save(badge).Error
	return badge, err
}

func (s *BadgeStorage) GetAll(ctx context.Context) ([]entity.Badge, error) {
	var badges []entity.Badge
	err := s.db.WithContext(ctx).Order("points ASC, name ASC").Find(&badges).Error
	return badges, err
}

// GetByNames returns the catalog badges with the given names. Unknown names
// are skipped.
func (s *BadgeStorage) GetByNames(ctx context.Context, names []string) ([]entity.Badge, error) {
	var badges []entity.Badge
	if len(names) == 0 {
		return badges, nil
	}
	err := s.db.WithContext(ctx).Where("name IN ?", names).Find(&badges).Error
	return badges, err
}

// GetHolders lists every award of the badge with the holder's details.
func (s *BadgeStorage) GetHolders(ctx context.Context, badgeID string) ([]dto.BadgeHolder, error) {
	var holders []dto.BadgeHolder
	err := s.db.WithContext(ctx).
		Table("user_badges AS ub").
		Select("u.id AS user_id, u.name, u.avatar_url, k.name AS kug_name, ub.awarded_at").
		Joins("JOIN users u ON u.id = ub.user_id").
		Joins("JOIN kugs k ON k.id = ub.kug_id").
		Where("ub.badge_id = ?", badgeID).
		Order("ub.awarded_at DESC").
		Scan(&holders).Error
	return holders, err
}
