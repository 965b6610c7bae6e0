package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
)

type KugStorage struct {
	db *gorm.DB
}

func NewKugStorage(db *gorm.DB) *KugStorage {
	return &KugStorage{
		db: db,
	}
}

func (s *KugStorage) Create(ctx context.Context, kug *entity.Kug) (*entity.Kug, error) {
	err := s.db.WithContext(ctx).Create(kug).Error
	return kug, err
}

func (s *KugStorage) Get(ctx context.Context, id string) (*entity.Kug, error) {
	var kug entity.Kug
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&kug).Error
	return &kug, notFound(err)
}

func (s *KugStorage) Update(ctx context.Context, kug *entity.Kug) (*entity.Kug, error) {
	err := s.db.WithContext(ctx).Save(kug).Error
	return kug, err
}

func (s *KugStorage) GetAll(ctx context.Context) ([]entity.Kug, error) {
	var kugs []entity.Kug
	err := s.db.WithContext(ctx).Order("name ASC").Find(&kugs).Error
	return kugs, err
}
