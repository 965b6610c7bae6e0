package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kug-advocacy/kug-platform/internal/domain/common/errorz"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
)

func TestUserStorage(t *testing.T) {
	f := newFixture(t)
	s := NewUserStorage(f.db)

	created, err := s.Create(f.ctx, &entity.User{Name: "Ann", Email: "Ann@Example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, entity.RoleMember, created.Role)

	byEmail, err := s.GetByEmail(f.ctx, "ANN@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = s.Create(f.ctx, &entity.User{Name: "Other", Email: "ann@example.com"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	_, err = s.Get(f.ctx, "8a4f1a8e-0000-4000-8000-000000000000")
	assert.ErrorIs(t, err, errorz.ErrNotFound)

	count, err := s.Count(f.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestMembershipStorage(t *testing.T) {
	f := newFixture(t)
	s := NewMembershipStorage(f.db)
	kug := f.kug("Berlin KUG")
	ann := f.user("ann")
	bob := f.user("bob")

	role, err := s.Role(f.ctx, kug.ID, ann.ID)
	require.NoError(t, err)
	assert.Nil(t, role)

	_, err = s.Create(f.ctx, &entity.Membership{KugID: kug.ID, UserID: ann.ID})
	require.NoError(t, err)
	_, err = s.Create(f.ctx, &entity.Membership{KugID: kug.ID, UserID: ann.ID})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	role, err = s.Role(f.ctx, kug.ID, ann.ID)
	require.NoError(t, err)
	require.NotNil(t, role)
	assert.Equal(t, entity.MembershipMember, *role)

	require.NoError(t, s.UpdateRole(f.ctx, kug.ID, ann.ID, entity.MembershipLead))
	assert.ErrorIs(t, s.UpdateRole(f.ctx, kug.ID, bob.ID, entity.MembershipLead), errorz.ErrNotFound)

	members, err := s.GetMembers(f.ctx, kug.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "ann", members[0].Name)
	assert.Equal(t, entity.MembershipLead, members[0].Role)

	require.NoError(t, s.Delete(f.ctx, kug.ID, ann.ID))
	assert.ErrorIs(t, s.Delete(f.ctx, kug.ID, ann.ID), errorz.ErrNotFound)
}
