package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kug-advocacy/kug-platform/internal/domain/common/errorz"
	"github.com/kug-advocacy/kug-platform/internal/domain/dto"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
	"github.com/kug-advocacy/kug-platform/internal/domain/policy"
	"github.com/kug-advocacy/kug-platform/internal/domain/utils/validator"
	"github.com/kug-advocacy/kug-platform/pkg/logger/types"
)

// badgeRule awards Badge once earned reports true for the approved counts.
type badgeRule struct {
	Badge  string
	earned func(c dto.ContributionCounts) bool
}

var badgeRules = []badgeRule{
	{"first_contribution", func(c dto.ContributionCounts) bool { return c.Total >= 1 }},
	{"active_contributor", func(c dto.ContributionCounts) bool { return c.Total >= 5 }},
	{"speaker", func(c dto.ContributionCounts) bool { return c.Talks >= 3 }},
	{"writer", func(c dto.ContributionCounts) bool { return c.Blogs >= 3 }},
	{"coder", func(c dto.ContributionCounts) bool { return c.Code >= 3 }},
	{"organizer", func(c dto.ContributionCounts) bool { return c.Events >= 3 }},
	{"kotlin_expert", func(c dto.ContributionCounts) bool { return c.Total >= 10 }},
}

// DefaultCatalog is seeded on startup when the catalog is empty.
var DefaultCatalog = []entity.Badge{
	{Name: "first_contribution", Description: "Made a first approved contribution", Criteria: "1 approved contribution", Points: 10},
	{Name: "active_contributor", Description: "Keeps the community going", Criteria: "5 approved contributions", Points: 25},
	{Name: "speaker", Description: "Shared knowledge on stage", Criteria: "3 approved talks", Points: 30},
	{Name: "writer", Description: "Wrote for the community", Criteria: "3 approved blog posts", Points: 30},
	{Name: "coder", Description: "Shipped code for the community", Criteria: "3 approved code contributions", Points: 30},
	{Name: "organizer", Description: "Brought people together", Criteria: "3 approved events", Points: 30},
	{Name: "kotlin_expert", Description: "A pillar of the Kotlin community", Criteria: "10 approved contributions", Points: 100},
}

// EligibleBadges lists the names of every badge the counts qualify for.
func EligibleBadges(counts dto.ContributionCounts) []string {
	var names []string
	for _, rule := range badgeRules {
		if rule.earned(counts) {
			names = append(names, rule.Badge)
		}
	}
	return names
}

type BadgeStorage interface {
	Create(ctx context.Context, badge *entity.Badge) (*entity.Badge, error)
	Get(ctx context.Context, id string) (*entity.Badge, error)
	Update(ctx context.Context, badge *entity.Badge) (*entity.Badge, error)
	GetAll(ctx context.Context) ([]entity.Badge, error)
	GetByNames(ctx context.Context, names []string) ([]entity.Badge, error)
	GetHolders(ctx context.Context, badgeID string) ([]dto.BadgeHolder, error)
}

type UserBadgeStorage interface {
	Award(ctx context.Context, award *entity.UserBadge) (bool, error)
	Get(ctx context.Context, userID, badgeID, kugID string) (*entity.UserBadge, error)
	Delete(ctx context.Context, userID, badgeID, kugID string) error
	GetByUserID(ctx context.Context, userID string) ([]dto.AwardedBadge, error)
}

type approvedCounter interface {
	CountApproved(ctx context.Context, userID, kugID string) (dto.ContributionCounts, error)
}

type userGetter interface {
	Get(ctx context.Context, id string) (*entity.User, error)
}

type badgeNotifier interface {
	BadgeAwarded(ctx context.Context, user *entity.User, badge *entity.Badge, kug *entity.Kug)
}

type BadgeService struct {
	badgeStorage      BadgeStorage
	userBadgeStorage  UserBadgeStorage
	counter           approvedCounter
	userStorage       userGetter
	kugStorage        kugGetter
	membershipStorage membershipRoleGetter
	notifier          badgeNotifier

	logger *types.Logger
}

func NewBadgeService(
	logger *types.Logger,
	badgeStorage BadgeStorage,
	userBadgeStorage UserBadgeStorage,
	counter approvedCounter,
	userStorage userGetter,
	kugStorage kugGetter,
	membershipStorage membershipRoleGetter,
	notifier badgeNotifier,
) *BadgeService {
	return &BadgeService{
		badgeStorage:      badgeStorage,
		userBadgeStorage:  userBadgeStorage,
		counter:           counter,
		userStorage:       userStorage,
		kugStorage:        kugStorage,
		membershipStorage: membershipStorage,
		notifier:          notifier,
		logger:            logger,
	}
}

// Evaluate re-derives the badges the user has earned in the KUG from the
// approved contribution counts and awards the missing ones. Badges absent
// from the catalog are skipped. It returns only the newly awarded badges, so
// running it again without new approvals returns nothing.
func (s *BadgeService) Evaluate(ctx context.Context, userID, kugID string) ([]entity.Badge, error) {
	counts, err := s.counter.CountApproved(ctx, userID, kugID)
	if err != nil {
		return nil, err
	}

	eligible := EligibleBadges(counts)
	if len(eligible) == 0 {
		return nil, nil
	}
	catalog, err := s.badgeStorage.GetByNames(ctx, eligible)
	if err != nil {
		return nil, err
	}

	var awarded []entity.Badge
	for _, badge := range catalog {
		created, err := s.userBadgeStorage.Award(ctx, &entity.UserBadge{UserID: userID, BadgeID: badge.ID, KugID: kugID})
		if err != nil {
			return awarded, fmt.Errorf("award %s: %w", badge.Name, err)
		}
		if created {
			s.logger.Infof("(user: %s) earned badge %s (kug_id=%s)", userID, badge.Name, kugID)
			awarded = append(awarded, badge)
		}
	}
	return awarded, nil
}

// HandleContributionApproved evaluates badges for the approved contribution's
// author and notifies them of new awards.
func (s *BadgeService) HandleContributionApproved(ctx context.Context, event dto.ContributionApproved) error {
	awarded, err := s.Evaluate(ctx, event.UserID, event.KugID)
	if err != nil {
		return err
	}
	if len(awarded) == 0 || s.notifier == nil {
		return nil
	}

	user, err := s.userStorage.Get(ctx, event.UserID)
	if err != nil {
		return err
	}
	kug, err := s.kugStorage.Get(ctx, event.KugID)
	if err != nil {
		return err
	}
	for i := range awarded {
		s.notifier.BadgeAwarded(ctx, user, &awarded[i], kug)
	}
	return nil
}

// Award grants a badge manually, independent of the thresholds.
func (s *BadgeService) Award(ctx context.Context, actor policy.Actor, in dto.AwardBadge) (*entity.UserBadge, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	if _, err := s.kugStorage.Get(ctx, in.KugID); err != nil {
		return nil, err
	}
	membership, err := s.membershipStorage.Role(ctx, in.KugID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !policy.Authorize(actor, policy.BadgeAward, policy.Resource{KugID: in.KugID, Membership: membership}) {
		return nil, errorz.ErrForbidden
	}
	if _, err = s.userStorage.Get(ctx, in.UserID); err != nil {
		return nil, err
	}
	badge, err := s.badgeStorage.Get(ctx, in.BadgeID)
	if err != nil {
		return nil, err
	}

	award := &entity.UserBadge{UserID: in.UserID, BadgeID: in.BadgeID, KugID: in.KugID, AwardedBy: &actor.UserID}
	created, err := s.userBadgeStorage.Award(ctx, award)
	if err != nil {
		return nil, err
	}
	if !created {
		existing, err := s.userBadgeStorage.Get(ctx, in.UserID, in.BadgeID, in.KugID)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: user holds %s in this KUG since %s", errorz.ErrAlreadyExists, badge.Name, existing.AwardedAt.UTC().Format(time.DateOnly))
	}

	s.logger.Infof("(user: %s) awarded badge %s to %s (kug_id=%s)", actor.UserID, badge.Name, in.UserID, in.KugID)
	return award, nil
}

// Revoke removes a badge award.
func (s *BadgeService) Revoke(ctx context.Context, actor policy.Actor, in dto.AwardBadge) error {
	if err := validator.Struct(in); err != nil {
		return err
	}
	if !policy.Authorize(actor, policy.BadgeRevoke, policy.Resource{KugID: in.KugID}) {
		return errorz.ErrForbidden
	}
	if err := s.userBadgeStorage.Delete(ctx, in.UserID, in.BadgeID, in.KugID); err != nil {
		return err
	}

	s.logger.Infof("(user: %s) revoked badge %s from %s (kug_id=%s)", actor.UserID, in.BadgeID, in.UserID, in.KugID)
	return nil
}

func (s *BadgeService) List(ctx context.Context) ([]entity.Badge, error) {
	return s.badgeStorage.GetAll(ctx)
}

func (s *BadgeService) Get(ctx context.Context, id string) (*entity.Badge, error) {
	return s.badgeStorage.Get(ctx, id)
}

func (s *BadgeService) Holders(ctx context.Context, id string) ([]dto.BadgeHolder, error) {
	if _, err := s.badgeStorage.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.badgeStorage.GetHolders(ctx, id)
}

func (s *BadgeService) UserBadges(ctx context.Context, userID string) ([]dto.AwardedBadge, error) {
	if _, err := s.userStorage.Get(ctx, userID); err != nil {
		return nil, err
	}
	return s.userBadgeStorage.GetByUserID(ctx, userID)
}

func (s *BadgeService) Create(ctx context.Context, actor policy.Actor, in dto.CreateBadge) (*entity.Badge, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	if !policy.Authorize(actor, policy.BadgeManage, policy.Resource{}) {
		return nil, errorz.ErrForbidden
	}

	badge, err := s.badgeStorage.Create(ctx, &entity.Badge{
		Name:        in.Name,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Criteria:    in.Criteria,
		Points:      in.Points,
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("%w: badge %s", errorz.ErrAlreadyExists, in.Name)
	}
	return badge, err
}

func (s *BadgeService) Update(ctx context.Context, actor policy.Actor, id string, in dto.UpdateBadge) (*entity.Badge, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	if !policy.Authorize(actor, policy.BadgeManage, policy.Resource{}) {
		return nil, errorz.ErrForbidden
	}

	badge, err := s.badgeStorage.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		badge.Name = *in.Name
	}
	if in.Description != nil {
		badge.Description = *in.Description
	}
	if in.ImageURL != nil {
		badge.ImageURL = *in.ImageURL
	}
	if in.Criteria != nil {
		badge.Criteria = *in.Criteria
	}
	if in.Points != nil {
		badge.Points = *in.Points
	}

	updated, err := s.badgeStorage.Update(ctx, badge)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("%w: badge %s", errorz.ErrAlreadyExists, badge.Name)
	}
	return updated, err
}

// SeedCatalog creates the default badges that are not in the catalog yet.
func (s *BadgeService) SeedCatalog(ctx context.Context) error {
	names := make([]string, 0, len(DefaultCatalog))
	for _, b := range DefaultCatalog {
		names = append(names, b.Name)
	}
	existing, err := s.badgeStorage.GetByNames(ctx, names)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, b := range existing {
		have[b.Name] = true
	}

	for _, b := range DefaultCatalog {
		if have[b.Name] {
			continue
		}
		badge := b
		if _, err = s.badgeStorage.Create(ctx, &badge); err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("seed badge %s: %w", b.Name, err)
		}
		s.logger.Infof("Seeded badge %s", b.Name)
	}
	return nil
}
