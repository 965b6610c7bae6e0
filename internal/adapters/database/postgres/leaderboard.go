package postgres

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/kug-advocacy/kug-platform/internal/domain/dto"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
)

// LeaderboardStorage computes rankings from approved contributions.
// Contributions and badge awards are aggregated in separate CTEs so that
// joining them never multiplies rows.
type LeaderboardStorage struct {
	db *gorm.DB
}

func NewLeaderboardStorage(db *gorm.DB) *LeaderboardStorage {
	return &LeaderboardStorage{
		db: db,
	}
}

const contributionTotals = `SELECT user_id,
		SUM(points) AS total_points,
		COUNT(*) AS contribution_count,
		SUM(CASE WHEN type = 'talk' THEN 1 ELSE 0 END) AS talks,
		SUM(CASE WHEN type = 'blog' THEN 1 ELSE 0 END) AS blogs,
		SUM(CASE WHEN type = 'code' THEN 1 ELSE 0 END) AS code,
		SUM(CASE WHEN type = 'event' THEN 1 ELSE 0 END) AS events
	FROM contributions
	WHERE %s
	GROUP BY user_id`

// Entries returns the ranked leaderboard for the query. Tied users share a
// rank and are ordered by name, then id.
func (s *LeaderboardStorage) Entries(ctx context.Context, q dto.LeaderboardQuery) ([]dto.LeaderboardEntry, error) {
	var (
		cWhere = []string{"status = ?"}
		cArgs  = []interface{}{entity.StatusApproved}
		bWhere = "1 = 1"
		bArgs  []interface{}
	)
	if q.KugID != "" {
		cWhere = append(cWhere, "kug_id = ?")
		cArgs = append(cArgs, q.KugID)
		bWhere = "kug_id = ?"
		bArgs = append(bArgs, q.KugID)
	}
	if q.Type != "" {
		cWhere = append(cWhere, "type = ?")
		cArgs = append(cArgs, q.Type)
	}
	if !q.From.IsZero() {
		cWhere = append(cWhere, "date >= ?")
		cArgs = append(cArgs, q.From.UTC())
	}
	if !q.To.IsZero() {
		cWhere = append(cWhere, "date < ?")
		cArgs = append(cArgs, q.To.UTC())
	}

	var sb strings.Builder
	args := append([]interface{}{}, cArgs...)
	args = append(args, bArgs...)

	sb.WriteString("WITH c AS (")
	sb.WriteString(fmt.Sprintf(contributionTotals, strings.Join(cWhere, " AND ")))
	sb.WriteString("), b AS (SELECT user_id, COUNT(DISTINCT badge_id) AS badge_count FROM user_badges WHERE ")
	sb.WriteString(bWhere)
	sb.WriteString(` GROUP BY user_id)
SELECT u.id AS user_id, u.name, u.avatar_url,
	COALESCE(c.total_points, 0) AS total_points,
	COALESCE(c.contribution_count, 0) AS contribution_count,
	COALESCE(c.talks, 0) AS talks,
	COALESCE(c.blogs, 0) AS blogs,
	COALESCE(c.code, 0) AS code,
	COALESCE(c.events, 0) AS events,
	COALESCE(b.badge_count, 0) AS badge_count,
	RANK() OVER (ORDER BY COALESCE(c.total_points, 0) DESC) AS rank
FROM users u
`)
	if q.KugID != "" {
		sb.WriteString("JOIN memberships m ON m.user_id = u.id AND m.kug_id = ?\n")
		args = append(args, q.KugID)
	}
	sb.WriteString("LEFT JOIN c ON c.user_id = u.id\nLEFT JOIN b ON b.user_id = u.id\n")
	if q.ContributorsOnly {
		sb.WriteString("WHERE c.user_id IS NOT NULL\n")
	}
	sb.WriteString("ORDER BY COALESCE(c.total_points, 0) DESC, u.name ASC, u.id ASC")
	if q.Limit > 0 {
		sb.WriteString("\nLIMIT ?")
		args = append(args, q.Limit)
	}

	var entries []dto.LeaderboardEntry
	err := s.db.WithContext(ctx).Raw(sb.String(), args...).Scan(&entries).Error
	return entries, err
}

// GlobalRanking ranks every user first and then picks the requested one.
func (s *LeaderboardStorage) GlobalRanking(ctx context.Context, userID string) (dto.GlobalRanking, error) {
	var rankings []dto.GlobalRanking
	err := s.db.WithContext(ctx).Raw(`WITH c AS (
	SELECT user_id, SUM(points) AS total_points
	FROM contributions
	WHERE status = ?
	GROUP BY user_id
), ranked AS (
	SELECT u.id AS user_id,
		COALESCE(c.total_points, 0) AS total_points,
		RANK() OVER (ORDER BY COALESCE(c.total_points, 0) DESC) AS rank
	FROM users u
	LEFT JOIN c ON c.user_id = u.id
)
SELECT total_points, rank FROM ranked WHERE user_id = ?`, entity.StatusApproved, userID).Scan(&rankings).Error
	if err != nil {
		return dto.GlobalRanking{}, err
	}
	if len(rankings) == 0 {
		return dto.GlobalRanking{}, notFound(gorm.ErrRecordNotFound)
	}
	return rankings[0], nil
}

// KugRankings ranks the members of every KUG the user belongs to and returns
// the user's position in each.
func (s *LeaderboardStorage) KugRankings(ctx context.Context, userID string) ([]dto.KugRanking, error) {
	var rankings []dto.KugRanking
	err := s.db.WithContext(ctx).Raw(`WITH c AS (
	SELECT user_id, kug_id, SUM(points) AS total_points
	FROM contributions
	WHERE status = ?
	GROUP BY user_id, kug_id
), ranked AS (
	SELECT k.id AS kug_id, k.name AS kug_name, m.user_id,
		COALESCE(c.total_points, 0) AS total_points,
		RANK() OVER (PARTITION BY k.id ORDER BY COALESCE(c.total_points, 0) DESC) AS rank
	FROM kugs k
	JOIN memberships m ON m.kug_id = k.id
	LEFT JOIN c ON c.user_id = m.user_id AND c.kug_id = k.id
	WHERE k.id IN (SELECT kug_id FROM memberships WHERE user_id = ?)
)
SELECT kug_id, kug_name, total_points, rank FROM ranked WHERE user_id = ? ORDER BY kug_name ASC`,
		entity.StatusApproved, userID, userID).Scan(&rankings).Error
	return rankings, err
}

// Stats sums the user's approved contributions across all KUGs.
func (s *LeaderboardStorage) Stats(ctx context.Context, userID string) (dto.ContributionStats, error) {
	var stats dto.ContributionStats
	err := s.db.WithContext(ctx).
		Model(&entity.Contribution{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN type = 'talk' THEN 1 ELSE 0 END), 0) AS talks,
			COALESCE(SUM(CASE WHEN type = 'blog' THEN 1 ELSE 0 END), 0) AS blogs,
			COALESCE(SUM(CASE WHEN type = 'code' THEN 1 ELSE 0 END), 0) AS code,
			COALESCE(SUM(CASE WHEN type = 'event' THEN 1 ELSE 0 END), 0) AS events,
			COALESCE(SUM(points), 0) AS total_points`).
		Where("user_id = ? AND status = ?", userID, entity.StatusApproved).
		Scan(&stats).Error
	return stats, err
}
