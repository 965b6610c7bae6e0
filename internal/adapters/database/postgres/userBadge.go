package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kug-advocacy/kug-platform/internal/domain/dto"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
)

type UserBadgeStorage struct {
	db *gorm.DB
}

func NewUserBadgeStorage(db *gorm.DB) *UserBadgeStorage {
	return &UserBadgeStorage{
		db: db,
	}
}

// Award inserts the award unless the user already holds the badge in that
// KUG. It reports whether a row was written.
func (s *UserBadgeStorage) Award(ctx context.Context, award *entity.UserBadge) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_id"}, {Name: "kug_id"}},
			DoNothing: true,
		}).
		Create(award)
	return res.RowsAffected == 1, res.Error
}

func (s *UserBadgeStorage) Get(ctx context.Context, userID, badgeID, kugID string) (*entity.UserBadge, error) {
	var award entity.UserBadge
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND badge_id = ? AND kug_id = ?", userID, badgeID, kugID).
		First(&award).Error
	return &award, notFound(err)
}

func (s *UserBadgeStorage) Delete(ctx context.Context, userID, badgeID, kugID string) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND badge_id = ? AND kug_id = ?", userID, badgeID, kugID).
		Delete(&entity.UserBadge{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound)
	}
	return nil
}

// CountByUser counts award rows, optionally scoped to one KUG.
func (s *UserBadgeStorage) CountByUser(ctx context.Context, userID, kugID string) (int64, error) {
	var count int64
	query := s.db.WithContext(ctx).Model(&entity.UserBadge{}).Where("user_id = ?", userID)
	if kugID != "" {
		query = query.Where("kug_id = ?", kugID)
	}
	err := query.Count(&count).Error
	return count, err
}

// GetByUserID lists the user's awards with badge and KUG details, newest first.
func (s *UserBadgeStorage) GetByUserID(ctx context.Context, userID string) ([]dto.AwardedBadge, error) {
	var badges []dto.AwardedBadge
	err := s.db.WithContext(ctx).
		Table("user_badges AS ub").
		Select("b.id, b.name, b.description, b.image_url, ub.kug_id, k.name AS kug_name, ub.awarded_at").
		Joins("JOIN badges b ON b.id = ub.badge_id").
		Joins("JOIN kugs k ON k.id = ub.kug_id").
		Where("ub.user_id = ?", userID).
		Order("ub.awarded_at DESC, b.name ASC").
		Scan(&badges).Error
	return badges, err
}
