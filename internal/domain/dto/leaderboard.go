package dto

import (
	"time"

	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
)

// LeaderboardQuery selects the approved contributions that are summed.
// Zero values disable a filter.
type LeaderboardQuery struct {
	KugID string
	Type  entity.ContributionType
	From  time.Time
	To    time.Time
	// ContributorsOnly drops users without a matching approved contribution.
	ContributorsOnly bool
	Limit            int
}

type LeaderboardEntry struct {
	UserID            string `json:"user_id"`
	Name              string `json:"name"`
	AvatarURL         string `json:"avatar_url"`
	TotalPoints       int64  `json:"total_points"`
	ContributionCount int64  `json:"contribution_count"`
	Talks             int64  `json:"talks"`
	Blogs             int64  `json:"blogs"`
	Code              int64  `json:"code"`
	Events            int64  `json:"events"`
	BadgeCount        int64  `json:"badge_count"`
	Rank              int64  `json:"rank"`
}

type MonthlyLeaderboard struct {
	Month       string             `json:"month"`
	Year        int                `json:"year"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

type GlobalRanking struct {
	TotalPoints int64 `json:"total_points"`
	Rank        int64 `json:"rank"`
	BadgeCount  int64 `json:"badge_count"`
}

type KugRanking struct {
	KugID       string `json:"kug_id"`
	KugName     string `json:"kug_name"`
	TotalPoints int64  `json:"total_points"`
	Rank        int64  `json:"rank"`
	BadgeCount  int64  `json:"badge_count"`
}

type ContributionStats struct {
	Total       int64 `json:"total"`
	Talks       int64 `json:"talks"`
	Blogs       int64 `json:"blogs"`
	Code        int64 `json:"code"`
	Events      int64 `json:"events"`
	TotalPoints int64 `json:"total_points"`
}

type AwardedBadge struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	KugID       string    `json:"kug_id"`
	KugName     string    `json:"kug_name"`
	AwardedAt   time.Time `json:"awarded_at"`
}

type RankedUser struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

type UserRanking struct {
	User              RankedUser        `json:"user"`
	GlobalRanking     GlobalRanking     `json:"global_ranking"`
	KugRankings       []KugRanking      `json:"kug_rankings"`
	ContributionStats ContributionStats `json:"contribution_stats"`
	Badges            []AwardedBadge    `json:"badges"`
}
