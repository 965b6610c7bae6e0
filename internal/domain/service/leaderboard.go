package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kug-advocacy/kug-platform/internal/domain/common/errorz"
	"github.com/kug-advocacy/kug-platform/internal/domain/dto"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
	"github.com/kug-advocacy/kug-platform/internal/domain/utils/location"
	"github.com/kug-advocacy/kug-platform/pkg/logger/types"
)

type LeaderboardStorage interface {
	Entries(ctx context.Context, q dto.LeaderboardQuery) ([]dto.LeaderboardEntry, error)
	GlobalRanking(ctx context.Context, userID string) (dto.GlobalRanking, error)
	KugRankings(ctx context.Context, userID string) ([]dto.KugRanking, error)
	Stats(ctx context.Context, userID string) (dto.ContributionStats, error)
}

type userBadgeLister interface {
	GetByUserID(ctx context.Context, userID string) ([]dto.AwardedBadge, error)
	CountByUser(ctx context.Context, userID, kugID string) (int64, error)
}

// LeaderboardCache stores rendered leaderboards. A nil cache disables caching.
type LeaderboardCache interface {
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Clear(ctx context.Context) error
}

type LeaderboardService struct {
	leaderboardStorage LeaderboardStorage
	userStorage        userGetter
	kugStorage         kugGetter
	userBadgeStorage   userBadgeLister
	cache              LeaderboardCache

	limit    int
	cacheTTL time.Duration
	now      func() time.Time

	logger *types.Logger
}

func NewLeaderboardService(
	logger *types.Logger,
	leaderboardStorage LeaderboardStorage,
	userStorage userGetter,
	kugStorage kugGetter,
	userBadgeStorage userBadgeLister,
	cache LeaderboardCache,
	limit int,
	cacheTTL time.Duration,
) *LeaderboardService {
	if limit <= 0 {
		limit = 100
	}
	return &LeaderboardService{
		leaderboardStorage: leaderboardStorage,
		userStorage:        userStorage,
		kugStorage:         kugStorage,
		userBadgeStorage:   userBadgeStorage,
		cache:              cache,
		limit:              limit,
		cacheTTL:           cacheTTL,
		now:                time.Now,
		logger:             logger,
	}
}

// cached serves key from the cache when possible and fills it otherwise.
// Cache failures are logged and fall through to the storage.
func cached[T any](ctx context.Context, s *LeaderboardService, key string, load func() (T, error)) (T, error) {
	useCache := s.cache != nil && s.cacheTTL > 0
	if useCache {
		var hit T
		ok, err := s.cache.Get(ctx, key, &hit)
		if err != nil {
			s.logger.Warnf("failed to read leaderboard cache (key=%s): %v", key, err)
		} else if ok {
			return hit, nil
		}
	}

	value, err := load()
	if err != nil {
		return value, err
	}
	if useCache {
		if err = s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
			s.logger.Warnf("failed to write leaderboard cache (key=%s): %v", key, err)
		}
	}
	return value, nil
}

func (s *LeaderboardService) entries(ctx context.Context, key string, q dto.LeaderboardQuery) ([]dto.LeaderboardEntry, error) {
	return cached(ctx, s, key, func() ([]dto.LeaderboardEntry, error) {
		rows, err := s.leaderboardStorage.Entries(ctx, q)
		if rows == nil {
			rows = []dto.LeaderboardEntry{}
		}
		return rows, err
	})
}

// Global ranks every user by approved points.
func (s *LeaderboardService) Global(ctx context.Context) ([]dto.LeaderboardEntry, error) {
	return s.entries(ctx, "global", dto.LeaderboardQuery{Limit: s.limit})
}

// Kug ranks the members of one KUG by the points earned in it.
func (s *LeaderboardService) Kug(ctx context.Context, kugID string) ([]dto.LeaderboardEntry, error) {
	if _, err := s.kugStorage.Get(ctx, kugID); err != nil {
		return nil, err
	}
	return s.entries(ctx, "kug:"+kugID, dto.LeaderboardQuery{KugID: kugID})
}

// ByType ranks contributors of one contribution type.
func (s *LeaderboardService) ByType(ctx context.Context, contributionType string) ([]dto.LeaderboardEntry, error) {
	t := entity.ContributionType(contributionType)
	if !t.Valid() {
		return nil, fmt.Errorf("%w: invalid contribution type %q", errorz.ErrValidation, contributionType)
	}
	return s.entries(ctx, "type:"+contributionType, dto.LeaderboardQuery{Type: t, ContributorsOnly: true, Limit: s.limit})
}

// MonthBounds returns [first day of t's month, first day of the next month)
// in the configured location.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	t = t.In(location.Location())
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// Monthly ranks contributors by points from contributions dated this month.
func (s *LeaderboardService) Monthly(ctx context.Context) (dto.MonthlyLeaderboard, error) {
	start, end := MonthBounds(s.now())
	key := fmt.Sprintf("monthly:%04d-%02d", start.Year(), start.Month())

	return cached(ctx, s, key, func() (dto.MonthlyLeaderboard, error) {
		rows, err := s.leaderboardStorage.Entries(ctx, dto.LeaderboardQuery{
			From:             start,
			To:               end,
			ContributorsOnly: true,
			Limit:            s.limit,
		})
		if err != nil {
			return dto.MonthlyLeaderboard{}, err
		}
		if rows == nil {
			rows = []dto.LeaderboardEntry{}
		}
		return dto.MonthlyLeaderboard{
			Month:       start.Month().String(),
			Year:        start.Year(),
			Leaderboard: rows,
		}, nil
	})
}

// User assembles a user's ranking summary. It is never cached.
func (s *LeaderboardService) User(ctx context.Context, userID string) (*dto.UserRanking, error) {
	user, err := s.userStorage.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	global, err := s.leaderboardStorage.GlobalRanking(ctx, userID)
	if err != nil {
		return nil, err
	}
	kugs, err := s.leaderboardStorage.KugRankings(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.leaderboardStorage.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	badges, err := s.userBadgeStorage.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	global.BadgeCount = int64(len(badges))
	for i := range kugs {
		kugs[i].BadgeCount, err = s.userBadgeStorage.CountByUser(ctx, userID, kugs[i].KugID)
		if err != nil {
			return nil, err
		}
	}
	if kugs == nil {
		kugs = []dto.KugRanking{}
	}
	if badges == nil {
		badges = []dto.AwardedBadge{}
	}

	return &dto.UserRanking{
		User:              dto.RankedUser{ID: user.ID, Name: user.Name, AvatarURL: user.AvatarURL},
		GlobalRanking:     global,
		KugRankings:       kugs,
		ContributionStats: stats,
		Badges:            badges,
	}, nil
}

// HandleContributionApproved drops cached leaderboards after an approval.
func (s *LeaderboardService) HandleContributionApproved(ctx context.Context, _ dto.ContributionApproved) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Clear(ctx)
}
