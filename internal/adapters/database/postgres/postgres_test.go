package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(Migrations...))
	return db
}

type fixture struct {
	t   *testing.T
	db  *gorm.DB
	ctx context.Context
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, db: newTestDB(t), ctx: context.Background()}
}

func (f *fixture) user(name string) *entity.User {
	f.t.Helper()
	u := &entity.User{Name: name, Email: name + "@example.com", Role: entity.RoleMember}
	require.NoError(f.t, f.db.Create(u).Error)
	return u
}

func (f *fixture) kug(name string) *entity.Kug {
	f.t.Helper()
	k := &entity.Kug{Name: name, City: name}
	require.NoError(f.t, f.db.Create(k).Error)
	return k
}

func (f *fixture) member(kug *entity.Kug, user *entity.User, role entity.MembershipRole) {
	f.t.Helper()
	require.NoError(f.t, f.db.Create(&entity.Membership{KugID: kug.ID, UserID: user.ID, Role: role}).Error)
}

func (f *fixture) contribution(user *entity.User, kug *entity.Kug, typ entity.ContributionType, points int, status entity.ContributionStatus, date time.Time) *entity.Contribution {
	f.t.Helper()
	c := &entity.Contribution{
		UserID: user.ID,
		KugID:  kug.ID,
		Type:   typ,
		Title:  string(typ),
		Points: points,
		Status: status,
		Date:   date.UTC(),
	}
	require.NoError(f.t, f.db.Create(c).Error)
	return c
}

func (f *fixture) badge(name string) *entity.Badge {
	f.t.Helper()
	b := &entity.Badge{Name: name, Points: 10}
	require.NoError(f.t, f.db.Create(b).Error)
	return b
}
