package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kug-advocacy/kug-platform/internal/domain/common/errorz"
	"github.com/kug-advocacy/kug-platform/internal/domain/dto"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
)

func TestKugService_Lifecycle(t *testing.T) {
	h := newHarness(t)
	admin := h.user("root", entity.RoleAdmin)
	ann := h.user("ann", entity.RoleMember)
	bob := h.user("bob", entity.RoleMember)

	_, err := h.kugs.Create(h.ctx, ann, dto.CreateKug{Name: "Berlin KUG", City: "Berlin"})
	assert.ErrorIs(t, err, errorz.ErrForbidden)

	kug, err := h.kugs.Create(h.ctx, admin, dto.CreateKug{Name: "Berlin KUG", City: "Berlin", SocialLinks: []string{"https://t.me/kugberlin"}})
	require.NoError(t, err)
	assert.Equal(t, entity.StringList{"https://t.me/kugberlin"}, kug.SocialLinks)

	_, err = h.kugs.Create(h.ctx, admin, dto.CreateKug{Name: "Berlin KUG", City: "Berlin"})
	assert.ErrorIs(t, err, errorz.ErrAlreadyExists)
	_, err = h.kugs.Create(h.ctx, admin, dto.CreateKug{Name: "B", City: "Berlin"})
	assert.ErrorIs(t, err, errorz.ErrValidation)

	_, err = h.kugs.Join(h.ctx, ann, kug.ID)
	require.NoError(t, err)
	_, err = h.kugs.Join(h.ctx, ann, kug.ID)
	assert.ErrorIs(t, err, errorz.ErrAlreadyExists)
	_, err = h.kugs.Join(h.ctx, bob, kug.ID)
	require.NoError(t, err)

	_, err = h.kugs.Update(h.ctx, ann, kug.ID, dto.UpdateKug{City: ptr("Potsdam")})
	assert.ErrorIs(t, err, errorz.ErrForbidden)

	require.NoError(t, h.kugs.ChangeMemberRole(h.ctx, admin, kug.ID, ann.UserID, dto.ChangeMemberRole{Role: "lead"}))
	updated, err := h.kugs.Update(h.ctx, ann, kug.ID, dto.UpdateKug{City: ptr("Potsdam")})
	require.NoError(t, err)
	assert.Equal(t, "Potsdam", updated.City)

	err = h.kugs.ChangeMemberRole(h.ctx, bob, kug.ID, ann.UserID, dto.ChangeMemberRole{Role: "member"})
	assert.ErrorIs(t, err, errorz.ErrForbidden)
	err = h.kugs.ChangeMemberRole(h.ctx, ann, kug.ID, bob.UserID, dto.ChangeMemberRole{Role: "owner"})
	assert.ErrorIs(t, err, errorz.ErrValidation)

	members, err := h.kugs.Members(h.ctx, kug.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	memberships, err := h.kugs.Memberships(h.ctx, ann.UserID)
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	assert.Equal(t, kug.ID, memberships[0].KugID)
	assert.Equal(t, entity.MembershipLead, memberships[0].Role)

	require.NoError(t, h.kugs.Leave(h.ctx, bob, kug.ID))
	assert.ErrorIs(t, h.kugs.Leave(h.ctx, bob, kug.ID), errorz.ErrNotFound)

	_, err = h.kugs.Join(h.ctx, bob, "8a4f1a8e-0000-4000-8000-000000000000")
	assert.ErrorIs(t, err, errorz.ErrNotFound)
}

func TestKugService_UpdateDuplicateName(t *testing.T) {
	h := newHarness(t)
	admin := h.user("root", entity.RoleAdmin)
	h.kug("Berlin KUG")
	munich := h.kug("Munich KUG")

	_, err := h.kugs.Update(h.ctx, admin, munich.ID, dto.UpdateKug{Name: ptr("Berlin KUG")})
	assert.ErrorIs(t, err, errorz.ErrAlreadyExists)
}
