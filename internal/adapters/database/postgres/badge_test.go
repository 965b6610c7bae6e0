package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kug-advocacy/kug-platform/internal/domain/common/errorz"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
)

func TestBadgeStorage_GetByNames(t *testing.T) {
	f := newFixture(t)
	s := NewBadgeStorage(f.db)
	f.badge("speaker")
	f.badge("writer")

	badges, err := s.GetByNames(f.ctx, []string{"speaker", "kotlin_expert"})
	require.NoError(t, err)
	require.Len(t, badges, 1)
	assert.Equal(t, "speaker", badges[0].Name)

	none, err := s.GetByNames(f.ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUserBadgeStorage_AwardIsIdempotent(t *testing.T) {
	f := newFixture(t)
	s := NewUserBadgeStorage(f.db)
	ann := f.user("ann")
	berlin := f.kug("Berlin KUG")
	munich := f.kug("Munich KUG")
	speaker := f.badge("speaker")

	created, err := s.Award(f.ctx, &entity.UserBadge{UserID: ann.ID, BadgeID: speaker.ID, KugID: berlin.ID})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.Award(f.ctx, &entity.UserBadge{UserID: ann.ID, BadgeID: speaker.ID, KugID: berlin.ID})
	require.NoError(t, err)
	assert.False(t, created)

	// the same badge in another KUG is a separate award
	created, err = s.Award(f.ctx, &entity.UserBadge{UserID: ann.ID, BadgeID: speaker.ID, KugID: munich.ID})
	require.NoError(t, err)
	assert.True(t, created)

	total, err := s.CountByUser(f.ctx, ann.ID, "")
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	inBerlin, err := s.CountByUser(f.ctx, ann.ID, berlin.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, inBerlin)

	awarded, err := s.GetByUserID(f.ctx, ann.ID)
	require.NoError(t, err)
	require.Len(t, awarded, 2)
	assert.Equal(t, "speaker", awarded[0].Name)

	holders, err := NewBadgeStorage(f.db).GetHolders(f.ctx, speaker.ID)
	require.NoError(t, err)
	assert.Len(t, holders, 2)

	require.NoError(t, s.Delete(f.ctx, ann.ID, speaker.ID, berlin.ID))
	assert.ErrorIs(t, s.Delete(f.ctx, ann.ID, speaker.ID, berlin.ID), errorz.ErrNotFound)
	_, err = s.Get(f.ctx, ann.ID, speaker.ID, berlin.ID)
	assert.ErrorIs(t, err, errorz.ErrNotFound)
}
