package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kug-advocacy/kug-platform/internal/adapters/database/postgres"
	"github.com/kug-advocacy/kug-platform/internal/domain/dto"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
	"github.com/kug-advocacy/kug-platform/internal/domain/policy"
	"github.com/kug-advocacy/kug-platform/pkg/logger"
	qr "github.com/kug-advocacy/kug-platform/pkg/qrcode"
	"github.com/kug-advocacy/kug-platform/pkg/token"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []dto.ContributionApproved
	next   ApprovalPublisher
}

func (p *recordingPublisher) PublishApproved(ctx context.Context, event dto.ContributionApproved) error {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
	return p.next.PublishApproved(ctx, event)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *fakeMailer) Send(to, subject, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to+": "+subject)
	return nil
}

type harness struct {
	t   *testing.T
	ctx context.Context
	db  *gorm.DB

	published *recordingPublisher
	mail      *fakeMailer

	contributions *ContributionService
	badges        *BadgeService
	leaderboards  *LeaderboardService
	kugs          *KugService
	users         *UserService
	auth          *AuthService
	events        *EventService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(postgres.Migrations...))

	log := logger.Nop()
	userStorage := postgres.NewUserStorage(db)
	kugStorage := postgres.NewKugStorage(db)
	membershipStorage := postgres.NewMembershipStorage(db)
	contributionStorage := postgres.NewContributionStorage(db)
	badgeStorage := postgres.NewBadgeStorage(db)
	userBadgeStorage := postgres.NewUserBadgeStorage(db)

	mail := &fakeMailer{}
	dispatcher := NewApprovalDispatcher(log)
	published := &recordingPublisher{next: dispatcher}

	h := &harness{
		t:         t,
		ctx:       context.Background(),
		db:        db,
		published: published,
		mail:      mail,
	}
	h.contributions = NewContributionService(log, contributionStorage, kugStorage, membershipStorage, published)
	h.badges = NewBadgeService(log, badgeStorage, userBadgeStorage, contributionStorage, userStorage, kugStorage, membershipStorage, NewNotifyService(log, mail, true))
	h.leaderboards = NewLeaderboardService(log, postgres.NewLeaderboardStorage(db), userStorage, kugStorage, userBadgeStorage, nil, 100, 0)
	h.kugs = NewKugService(log, kugStorage, membershipStorage)
	h.users = NewUserService(log, userStorage)
	h.auth = NewAuthService(log, userStorage, token.NewService("test-secret", time.Hour))
	h.auth.cost = bcrypt.MinCost
	h.events = NewEventService(log, postgres.NewEventStorage(db), postgres.NewEventAttendeeStorage(db), kugStorage, membershipStorage, qr.Default)

	dispatcher.Subscribe("badges", h.badges.HandleContributionApproved)
	dispatcher.Subscribe("leaderboards", h.leaderboards.HandleContributionApproved)

	require.NoError(t, h.badges.SeedCatalog(h.ctx))
	return h
}

func (h *harness) user(name string, role entity.Role) policy.Actor {
	h.t.Helper()
	u := &entity.User{Name: name, Email: name + "@example.com", Role: role}
	require.NoError(h.t, h.db.Create(u).Error)
	return policy.Actor{UserID: u.ID, Role: role}
}

func (h *harness) kug(name string) *entity.Kug {
	h.t.Helper()
	k := &entity.Kug{Name: name, City: "Berlin"}
	require.NoError(h.t, h.db.Create(k).Error)
	return k
}

func (h *harness) join(kug *entity.Kug, actor policy.Actor, role entity.MembershipRole) {
	h.t.Helper()
	require.NoError(h.t, h.db.Create(&entity.Membership{KugID: kug.ID, UserID: actor.UserID, Role: role}).Error)
}

func (h *harness) submit(actor policy.Actor, kug *entity.Kug, typ entity.ContributionType) *entity.Contribution {
	h.t.Helper()
	c, err := h.contributions.Create(h.ctx, actor, dto.CreateContribution{
		Title:  "Contribution " + string(typ),
		Type:   string(typ),
		KugID:  kug.ID,
		Points: nil,
	})
	require.NoError(h.t, err)
	return c
}

func (h *harness) approved(author, reviewer policy.Actor, kug *entity.Kug, typ entity.ContributionType) *entity.Contribution {
	h.t.Helper()
	c := h.submit(author, kug, typ)
	c, err := h.contributions.Approve(h.ctx, reviewer, c.ID)
	require.NoError(h.t, err)
	return c
}

func (h *harness) awardCount(userID string) int64 {
	h.t.Helper()
	var n int64
	require.NoError(h.t, h.db.Model(&entity.UserBadge{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}

func (h *harness) badgeNames(userID string) []string {
	h.t.Helper()
	awarded, err := h.badges.UserBadges(h.ctx, userID)
	require.NoError(h.t, err)
	names := make([]string, 0, len(awarded))
	for _, b := range awarded {
		names = append(names, b.Name)
	}
	return names
}

func ptr[T any](v T) *T {
	return &v
}
