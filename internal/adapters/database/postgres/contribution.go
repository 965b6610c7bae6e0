package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/kug-advocacy/kug-platform/internal/domain/dto"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
)

type ContributionStorage struct {
	db *gorm.DB
}

func NewContributionStorage(db *gorm.DB) *ContributionStorage {
	return &ContributionStorage{
		db: db,
	}
}

func (s *ContributionStorage) Create(ctx context.Context, contribution *entity.Contribution) (*entity.Contribution, error) {
	err := s.db.WithContext(ctx).Create(contribution).Error
	return contribution, err
}

func (s *ContributionStorage) Get(ctx context.Context, id string) (*entity.Contribution, error) {
	var contribution entity.Contribution
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&contribution).Error
	return &contribution, notFound(err)
}

// Edit writes only the given columns. With pendingOnly the write applies
// only while the contribution is still pending. It reports false when no row
// matched.
func (s *ContributionStorage) Edit(ctx context.Context, id string, columns map[string]interface{}, pendingOnly bool) (bool, error) {
	query := s.db.WithContext(ctx).
		Model(&entity.Contribution{}).
		Where("id = ?", id)
	if pendingOnly {
		query = query.Where("status = ?", entity.StatusPending)
	}
	res := query.Updates(columns)
	return res.RowsAffected == 1, res.Error
}

// Transition moves a pending contribution to another status, writing the
// given review columns. It reports false when the contribution was no longer
// pending, which makes concurrent reviews race-free.
func (s *ContributionStorage) Transition(ctx context.Context, id string, to entity.ContributionStatus, columns map[string]interface{}) (bool, error) {
	values := make(map[string]interface{}, len(columns)+1)
	for k, v := range columns {
		values[k] = v
	}
	values["status"] = to

	res := s.db.WithContext(ctx).
		Model(&entity.Contribution{}).
		Where("id = ? AND status = ?", id, entity.StatusPending).
		Updates(values)
	return res.RowsAffected == 1, res.Error
}

func (s *ContributionStorage) detailed(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("contributions AS c").
		Select("c.*, u.name AS user_name, k.name AS kug_name").
		Joins("JOIN users u ON u.id = c.user_id").
		Joins("JOIN kugs k ON k.id = c.kug_id")
}

// GetDetailed gets a contribution joined with its author and KUG names.
func (s *ContributionStorage) GetDetailed(ctx context.Context, id string) (*dto.Contribution, error) {
	var contributions []dto.Contribution
	err := s.detailed(ctx).Where("c.id = ?", id).Limit(1).Scan(&contributions).Error
	if err != nil {
		return nil, err
	}
	if len(contributions) == 0 {
		return nil, notFound(gorm.ErrRecordNotFound)
	}
	return &contributions[0], nil
}

// GetDetailedMany lists contributions matching the filter, newest first.
func (s *ContributionStorage) GetDetailedMany(ctx context.Context, filter dto.ContributionFilter) ([]dto.Contribution, error) {
	query := s.detailed(ctx)
	if filter.KugID != "" {
		query = query.Where("c.kug_id = ?", filter.KugID)
	}
	if filter.UserID != "" {
		query = query.Where("c.user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("c.status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("c.type = ?", filter.Type)
	}

	var contributions []dto.Contribution
	err := paginate(query.Order("c.date DESC, c.created_at DESC"), filter.Offset, filter.Limit).Scan(&contributions).Error
	return contributions, err
}

// CountApproved counts the user's approved contributions in a KUG by type.
func (s *ContributionStorage) CountApproved(ctx context.Context, userID, kugID string) (dto.ContributionCounts, error) {
	var counts dto.ContributionCounts
	err := s.db.WithContext(ctx).
		Model(&entity.Contribution{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN type = 'talk' THEN 1 ELSE 0 END), 0) AS talks,
			COALESCE(SUM(CASE WHEN type = 'blog' THEN 1 ELSE 0 END), 0) AS blogs,
			COALESCE(SUM(CASE WHEN type = 'code' THEN 1 ELSE 0 END), 0) AS code,
			COALESCE(SUM(CASE WHEN type = 'event' THEN 1 ELSE 0 END), 0) AS events`).
		Where("user_id = ? AND kug_id = ? AND status = ?", userID, kugID, entity.StatusApproved).
		Scan(&counts).Error
	return counts, err
}
