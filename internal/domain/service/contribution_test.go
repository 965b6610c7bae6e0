package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kug-advocacy/kug-platform/internal/adapters/database/postgres"
	"github.com/kug-advocacy/kug-platform/internal/domain/common/errorz"
	"github.com/kug-advocacy/kug-platform/internal/domain/dto"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
	"github.com/kug-advocacy/kug-platform/internal/domain/policy"
	"github.com/kug-advocacy/kug-platform/pkg/logger"
)

func TestContributionService_CreateDefaults(t *testing.T) {
	h := newHarness(t)
	kug := h.kug("Berlin KUG")
	ann := h.user("ann", entity.RoleMember)
	h.join(kug, ann, entity.MembershipMember)

	tests := []struct {
		typ    entity.ContributionType
		points int
	}{
		{entity.ContributionTalk, 50},
		{entity.ContributionBlog, 30},
		{entity.ContributionCode, 40},
		{entity.ContributionEvent, 60},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			before := time.Now().Add(-time.Second)
			c := h.submit(ann, kug, tt.typ)
			assert.Equal(t, entity.StatusPending, c.Status)
			assert.Equal(t, tt.points, c.Points)
			assert.Equal(t, ann.UserID, c.UserID)
			assert.True(t, c.Date.After(before))
		})
	}

	date := time.Date(2024, time.January, 2, 10, 0, 0, 0, time.UTC)
	c, err := h.contributions.Create(h.ctx, ann, dto.CreateContribution{
		Title:  "Custom",
		Type:   "talk",
		KugID:  kug.ID,
		Points: ptr(75),
		Date:   &date,
		Status: "pending",
	})
	require.NoError(t, err)
	assert.Equal(t, 75, c.Points)
	assert.True(t, c.Date.Equal(date))

	zero, err := h.contributions.Create(h.ctx, ann, dto.CreateContribution{Title: "Zero", Type: "blog", KugID: kug.ID, Points: ptr(0)})
	require.NoError(t, err)
	assert.Equal(t, 30, zero.Points)
}

func TestContributionService_CreateRejects(t *testing.T) {
	h := newHarness(t)
	kug := h.kug("Berlin KUG")
	other := h.kug("Munich KUG")
	ann := h.user("ann", entity.RoleMember)
	admin := h.user("root", entity.RoleAdmin)
	h.join(kug, ann, entity.MembershipMember)

	cases := []struct {
		name string
		in   dto.CreateContribution
		err  error
	}{
		{"unknown type", dto.CreateContribution{Title: "x", Type: "podcast", KugID: kug.ID}, errorz.ErrValidation},
		{"missing title", dto.CreateContribution{Type: "talk", KugID: kug.ID}, errorz.ErrValidation},
		{"approved on submit", dto.CreateContribution{Title: "x", Type: "talk", KugID: kug.ID, Status: "approved"}, errorz.ErrValidation},
		{"unknown kug", dto.CreateContribution{Title: "x", Type: "talk", KugID: "8a4f1a8e-0000-4000-8000-000000000000"}, errorz.ErrNotFound},
		{"not a member", dto.CreateContribution{Title: "x", Type: "talk", KugID: other.ID}, errorz.ErrForbidden},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.contributions.Create(h.ctx, ann, tt.in)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	_, err := h.contributions.Create(h.ctx, admin, dto.CreateContribution{Title: "x", Type: "talk", KugID: kug.ID})
	assert.ErrorIs(t, err, errorz.ErrForbidden)

	var count int64
	require.NoError(t, h.db.Model(&entity.Contribution{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestContributionService_ApproveRequiresReviewer(t *testing.T) {
	h := newHarness(t)
	kug := h.kug("Berlin KUG")
	ann := h.user("ann", entity.RoleMember)
	bob := h.user("bob", entity.RoleMember)
	organizer := h.user("olga", entity.RoleMember)
	platformLead := h.user("lena", entity.RoleLead)
	h.join(kug, ann, entity.MembershipMember)
	h.join(kug, bob, entity.MembershipMember)
	h.join(kug, organizer, entity.MembershipOrganizer)
	c := h.submit(ann, kug, entity.ContributionTalk)

	reviewers := []struct {
		name  string
		actor policy.Actor
	}{
		{"author", ann},
		{"member", bob},
		{"organizer", organizer},
		{"platform lead without membership", platformLead},
	}
	for _, tt := range reviewers {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.contributions.Approve(h.ctx, tt.actor, c.ID)
			assert.ErrorIs(t, err, errorz.ErrForbidden)
			_, err = h.contributions.Reject(h.ctx, tt.actor, c.ID, dto.ReviewContribution{})
			assert.ErrorIs(t, err, errorz.ErrForbidden)
		})
	}

	got, err := h.contributions.Get(h.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, got.Status)
	assert.Empty(t, h.published.events)

	_, err = h.contributions.Approve(h.ctx, bob, "8a4f1a8e-0000-4000-8000-000000000000")
	assert.ErrorIs(t, err, errorz.ErrNotFound)
}

func TestContributionService_Approve(t *testing.T) {
	h := newHarness(t)
	kug := h.kug("Berlin KUG")
	ann := h.user("ann", entity.RoleMember)
	lead := h.user("lead", entity.RoleMember)
	h.join(kug, ann, entity.MembershipMember)
	h.join(kug, lead, entity.MembershipLead)
	c := h.submit(ann, kug, entity.ContributionTalk)

	approved, err := h.contributions.Approve(h.ctx, lead, c.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, lead.UserID, *approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovedAt)

	require.Len(t, h.published.events, 1)
	assert.Equal(t, dto.ContributionApproved{
		ContributionID: c.ID,
		UserID:         ann.UserID,
		KugID:          kug.ID,
		ApprovedBy:     lead.UserID,
		ApprovedAt:     *approved.ApprovedAt,
	}, h.published.events[0])

	assert.Equal(t, []string{"first_contribution"}, h.badgeNames(ann.UserID))
	assert.EqualValues(t, 1, h.awardCount(ann.UserID))

	// approving again re-runs evaluation without duplicating awards
	_, err = h.contributions.Approve(h.ctx, lead, c.ID)
	require.NoError(t, err)
	assert.Len(t, h.published.events, 2)
	assert.EqualValues(t, 1, h.awardCount(ann.UserID))
	assert.Len(t, h.mail.sent, 1)
}

func TestContributionService_AdminReviewsAnyKug(t *testing.T) {
	h := newHarness(t)
	kug := h.kug("Berlin KUG")
	ann := h.user("ann", entity.RoleMember)
	admin := h.user("root", entity.RoleAdmin)
	h.join(kug, ann, entity.MembershipMember)

	c := h.approved(ann, admin, kug, entity.ContributionBlog)
	assert.Equal(t, entity.StatusApproved, c.Status)
}

func TestContributionService_Transitions(t *testing.T) {
	h := newHarness(t)
	kug := h.kug("Berlin KUG")
	ann := h.user("ann", entity.RoleMember)
	lead := h.user("lead", entity.RoleMember)
	h.join(kug, ann, entity.MembershipMember)
	h.join(kug, lead, entity.MembershipLead)

	rejected := h.submit(ann, kug, entity.ContributionBlog)
	got, err := h.contributions.Reject(h.ctx, lead, rejected.ID, dto.ReviewContribution{Reason: "duplicate"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRejected, got.Status)
	assert.Equal(t, "duplicate", got.RejectionReason)
	require.NotNil(t, got.RejectedBy)
	assert.Equal(t, lead.UserID, *got.RejectedBy)

	again, err := h.contributions.Reject(h.ctx, lead, rejected.ID, dto.ReviewContribution{Reason: "other"})
	require.NoError(t, err)
	assert.Equal(t, "duplicate", again.RejectionReason)

	_, err = h.contributions.Approve(h.ctx, lead, rejected.ID)
	assert.ErrorIs(t, err, errorz.ErrInvalidTransition)

	approved := h.approved(ann, lead, kug, entity.ContributionCode)
	_, err = h.contributions.Reject(h.ctx, lead, approved.ID, dto.ReviewContribution{})
	assert.ErrorIs(t, err, errorz.ErrInvalidTransition)

	assert.Len(t, h.published.events, 1)
}

func TestContributionService_Update(t *testing.T) {
	h := newHarness(t)
	kug := h.kug("Berlin KUG")
	ann := h.user("ann", entity.RoleMember)
	bob := h.user("bob", entity.RoleMember)
	lead := h.user("lead", entity.RoleMember)
	h.join(kug, ann, entity.MembershipMember)
	h.join(kug, bob, entity.MembershipMember)
	h.join(kug, lead, entity.MembershipLead)

	pending := h.submit(ann, kug, entity.ContributionTalk)
	updated, err := h.contributions.Update(h.ctx, ann, pending.ID, dto.UpdateContribution{
		Title:  ptr("Renamed"),
		Type:   ptr("blog"),
		Points: ptr(35),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, entity.ContributionBlog, updated.Type)
	assert.Equal(t, 35, updated.Points)

	_, err = h.contributions.Update(h.ctx, bob, pending.ID, dto.UpdateContribution{Title: ptr("Hijack")})
	assert.ErrorIs(t, err, errorz.ErrForbidden)

	_, err = h.contributions.Update(h.ctx, lead, pending.ID, dto.UpdateContribution{Description: ptr("Edited by lead")})
	require.NoError(t, err)

	_, err = h.contributions.Update(h.ctx, ann, pending.ID, dto.UpdateContribution{Status: ptr("approved")})
	assert.ErrorIs(t, err, errorz.ErrInvalidTransition)

	approved, err := h.contributions.Approve(h.ctx, lead, pending.ID)
	require.NoError(t, err)

	_, err = h.contributions.Update(h.ctx, ann, approved.ID, dto.UpdateContribution{Points: ptr(500)})
	assert.ErrorIs(t, err, errorz.ErrInvalidTransition)
	_, err = h.contributions.Update(h.ctx, ann, approved.ID, dto.UpdateContribution{Type: ptr("code")})
	assert.ErrorIs(t, err, errorz.ErrInvalidTransition)

	// resending unchanged frozen values is fine
	edited, err := h.contributions.Update(h.ctx, ann, approved.ID, dto.UpdateContribution{
		Title:  ptr("Final title"),
		URL:    ptr("https://example.com/talk"),
		Points: ptr(35),
		Status: ptr("approved"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Final title", edited.Title)
	assert.Equal(t, 35, edited.Points)
	assert.Equal(t, entity.StatusApproved, edited.Status)

	edited, err = h.contributions.Update(h.ctx, ann, approved.ID, dto.UpdateContribution{Points: ptr(0)})
	require.NoError(t, err)
	assert.Equal(t, 35, edited.Points)
}

// approveAfterRead approves the contribution right after its first read,
// like a reviewer acting while an edit is in flight.
type approveAfterRead struct {
	*postgres.ContributionStorage
	reviewerID string
	once       sync.Once
}

func (s *approveAfterRead) Get(ctx context.Context, id string) (*entity.Contribution, error) {
	c, err := s.ContributionStorage.Get(ctx, id)
	if err == nil {
		s.once.Do(func() {
			_, _ = s.ContributionStorage.Transition(ctx, id, entity.StatusApproved, map[string]interface{}{
				"approved_by": s.reviewerID,
				"approved_at": time.Now().UTC(),
			})
		})
	}
	return c, err
}

func TestContributionService_UpdateDuringReview(t *testing.T) {
	h := newHarness(t)
	kug := h.kug("Berlin KUG")
	ann := h.user("ann", entity.RoleMember)
	lead := h.user("lead", entity.RoleMember)
	h.join(kug, ann, entity.MembershipMember)
	h.join(kug, lead, entity.MembershipLead)

	racing := func() *ContributionService {
		storage := &approveAfterRead{ContributionStorage: postgres.NewContributionStorage(h.db), reviewerID: lead.UserID}
		return NewContributionService(logger.Nop(), storage, postgres.NewKugStorage(h.db), postgres.NewMembershipStorage(h.db), h.published)
	}

	c := h.submit(ann, kug, entity.ContributionTalk)
	edited, err := racing().Update(h.ctx, ann, c.ID, dto.UpdateContribution{Title: ptr("typo fix")})
	require.NoError(t, err)
	assert.Equal(t, "typo fix", edited.Title)
	assert.Equal(t, entity.StatusApproved, edited.Status)
	require.NotNil(t, edited.ApprovedBy)
	assert.Equal(t, lead.UserID, *edited.ApprovedBy)

	c = h.submit(ann, kug, entity.ContributionTalk)
	_, err = racing().Update(h.ctx, ann, c.ID, dto.UpdateContribution{Points: ptr(500)})
	assert.ErrorIs(t, err, errorz.ErrInvalidTransition)

	var stored entity.Contribution
	require.NoError(t, h.db.First(&stored, "id = ?", c.ID).Error)
	assert.Equal(t, 50, stored.Points)
	assert.Equal(t, entity.StatusApproved, stored.Status)
}

type failingCounter struct{}

func (failingCounter) CountApproved(context.Context, string, string) (dto.ContributionCounts, error) {
	return dto.ContributionCounts{}, errors.New("connection reset by peer")
}

func TestContributionService_ApproveSurvivesSubscriberFailures(t *testing.T) {
	h := newHarness(t)
	kug := h.kug("Berlin KUG")
	ann := h.user("ann", entity.RoleMember)
	lead := h.user("lead", entity.RoleMember)
	h.join(kug, ann, entity.MembershipMember)
	h.join(kug, lead, entity.MembershipLead)

	broken := NewBadgeService(logger.Nop(), postgres.NewBadgeStorage(h.db), postgres.NewUserBadgeStorage(h.db), failingCounter{},
		postgres.NewUserStorage(h.db), postgres.NewKugStorage(h.db), postgres.NewMembershipStorage(h.db), NewNotifyService(logger.Nop(), h.mail, true))
	dispatcher := NewApprovalDispatcher(logger.Nop())
	dispatcher.Subscribe("badges", broken.HandleContributionApproved)
	dispatcher.Subscribe("audit", func(context.Context, dto.ContributionApproved) error {
		return errors.New("audit sink unavailable")
	})
	dispatcher.Subscribe("panicky", func(context.Context, dto.ContributionApproved) error {
		panic("nil map")
	})
	h.published.next = dispatcher

	c := h.submit(ann, kug, entity.ContributionTalk)
	approved, err := h.contributions.Approve(h.ctx, lead, c.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, approved.Status)

	var stored entity.Contribution
	require.NoError(t, h.db.First(&stored, "id = ?", c.ID).Error)
	assert.Equal(t, entity.StatusApproved, stored.Status)
	assert.Zero(t, h.awardCount(ann.UserID))
	assert.Len(t, h.published.events, 1)
}

func TestContributionService_List(t *testing.T) {
	h := newHarness(t)
	kug := h.kug("Berlin KUG")
	ann := h.user("ann", entity.RoleMember)
	lead := h.user("lead", entity.RoleMember)
	h.join(kug, ann, entity.MembershipMember)
	h.join(kug, lead, entity.MembershipLead)

	h.submit(ann, kug, entity.ContributionTalk)
	h.approved(ann, lead, kug, entity.ContributionBlog)

	all, err := h.contributions.List(h.ctx, dto.ContributionFilter{KugID: kug.ID})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "ann", all[0].UserName)
	assert.Equal(t, "Berlin KUG", all[0].KugName)

	approved, err := h.contributions.List(h.ctx, dto.ContributionFilter{Status: entity.StatusApproved})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, entity.ContributionBlog, approved[0].Type)

	_, err = h.contributions.List(h.ctx, dto.ContributionFilter{Status: "archived"})
	assert.ErrorIs(t, err, errorz.ErrValidation)
	_, err = h.contributions.List(h.ctx, dto.ContributionFilter{Type: "podcast"})
	assert.ErrorIs(t, err, errorz.ErrValidation)
}
