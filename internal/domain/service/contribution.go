package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kug-advocacy/kug-platform/internal/domain/common/errorz"
	"github.com/kug-advocacy/kug-platform/internal/domain/dto"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
	"github.com/kug-advocacy/kug-platform/internal/domain/policy"
	"github.com/kug-advocacy/kug-platform/internal/domain/utils/validator"
	"github.com/kug-advocacy/kug-platform/pkg/logger/types"
)

const maxListLimit = 100

type ContributionStorage interface {
	Create(ctx context.Context, contribution *entity.Contribution) (*entity.Contribution, error)
	Get(ctx context.Context, id string) (*entity.Contribution, error)
	Edit(ctx context.Context, id string, columns map[string]interface{}, pendingOnly bool) (bool, error)
	Transition(ctx context.Context, id string, to entity.ContributionStatus, columns map[string]interface{}) (bool, error)
	GetDetailed(ctx context.Context, id string) (*dto.Contribution, error)
	GetDetailedMany(ctx context.Context, filter dto.ContributionFilter) ([]dto.Contribution, error)
}

type kugGetter interface {
	Get(ctx context.Context, id string) (*entity.Kug, error)
}

type membershipRoleGetter interface {
	Role(ctx context.Context, kugID, userID string) (*entity.MembershipRole, error)
}

// ApprovalPublisher hands approval events to their consumers. Implementations
// must not fail the approval: errors are theirs to log.
type ApprovalPublisher interface {
	PublishApproved(ctx context.Context, event dto.ContributionApproved) error
}

type ContributionService struct {
	contributionStorage ContributionStorage
	kugStorage          kugGetter
	membershipStorage   membershipRoleGetter
	publisher           ApprovalPublisher

	logger *types.Logger
}

func NewContributionService(
	logger *types.Logger,
	contributionStorage ContributionStorage,
	kugStorage kugGetter,
	membershipStorage membershipRoleGetter,
	publisher ApprovalPublisher,
) *ContributionService {
	return &ContributionService{
		contributionStorage: contributionStorage,
		kugStorage:          kugStorage,
		membershipStorage:   membershipStorage,
		publisher:           publisher,
		logger:              logger,
	}
}

// Create submits a new contribution on behalf of actor. It is always stored
// as pending.
func (s *ContributionService) Create(ctx context.Context, actor policy.Actor, in dto.CreateContribution) (*entity.Contribution, error) {
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
	if !policy.Authorize(actor, policy.ContributionCreate, policy.Resource{OwnerID: actor.UserID, KugID: in.KugID, Membership: membership}) {
		return nil, errorz.ErrForbidden
	}

	contributionType := entity.ContributionType(in.Type)
	date := time.Now()
	if in.Date != nil {
		date = *in.Date
	}
	points := contributionType.DefaultPoints()
	// zero means unset and falls back to the type default
	if in.Points != nil && *in.Points > 0 {
		points = *in.Points
	}

	contribution, err := s.contributionStorage.Create(ctx, &entity.Contribution{
		UserID:      actor.UserID,
		KugID:       in.KugID,
		Type:        contributionType,
		Title:       in.Title,
		Description: in.Description,
		URL:         in.URL,
		Date:        date.UTC(),
		Points:      points,
		Status:      entity.StatusPending,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("(user: %s) submitted contribution (contribution_id=%s, kug_id=%s)", actor.UserID, contribution.ID, contribution.KugID)
	return contribution, nil
}

func (s *ContributionService) authorize(ctx context.Context, actor policy.Actor, action policy.Action, contribution *entity.Contribution) error {
	membership, err := s.membershipStorage.Role(ctx, contribution.KugID, actor.UserID)
	if err != nil {
		return err
	}
	res := policy.Resource{OwnerID: contribution.UserID, KugID: contribution.KugID, Membership: membership}
	if !policy.Authorize(actor, action, res) {
		return errorz.ErrForbidden
	}
	return nil
}

// Approve marks a pending contribution approved and publishes a
// ContributionApproved event. Approving an approved contribution succeeds
// and publishes again, since badge evaluation is idempotent.
func (s *ContributionService) Approve(ctx context.Context, actor policy.Actor, id string) (*entity.Contribution, error) {
	contribution, err := s.contributionStorage.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = s.authorize(ctx, actor, policy.ContributionReview, contribution); err != nil {
		return nil, err
	}

	switch contribution.Status {
	case entity.StatusRejected:
		return nil, fmt.Errorf("%w: contribution %s is rejected", errorz.ErrInvalidTransition, id)
	case entity.StatusPending:
		_, err = s.contributionStorage.Transition(ctx, id, entity.StatusApproved, map[string]interface{}{
			"approved_by": actor.UserID,
			"approved_at": time.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}
		// a concurrent review may have won; re-read to see the final state
		contribution, err = s.contributionStorage.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if contribution.Status != entity.StatusApproved {
			return nil, fmt.Errorf("%w: contribution %s is %s", errorz.ErrInvalidTransition, id, contribution.Status)
		}
		s.logger.Infof("(user: %s) approved contribution (contribution_id=%s)", actor.UserID, id)
	}

	s.publish(ctx, contribution)
	return contribution, nil
}

func (s *ContributionService) publish(ctx context.Context, contribution *entity.Contribution) {
	event := dto.ContributionApproved{
		ContributionID: contribution.ID,
		UserID:         contribution.UserID,
		KugID:          contribution.KugID,
	}
	if contribution.ApprovedBy != nil {
		event.ApprovedBy = *contribution.ApprovedBy
	}
	if contribution.ApprovedAt != nil {
		event.ApprovedAt = *contribution.ApprovedAt
	}

	if err := s.publisher.PublishApproved(ctx, event); err != nil {
		s.logger.Errorf("failed to publish approval (contribution_id=%s): %v", contribution.ID, err)
	}
}

// Reject marks a pending contribution rejected. Rejecting twice is a no-op.
func (s *ContributionService) Reject(ctx context.Context, actor policy.Actor, id string, in dto.ReviewContribution) (*entity.Contribution, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	contribution, err := s.contributionStorage.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = s.authorize(ctx, actor, policy.ContributionReview, contribution); err != nil {
		return nil, err
	}

	switch contribution.Status {
	case entity.StatusRejected:
		return contribution, nil
	case entity.StatusApproved:
		return nil, fmt.Errorf("%w: contribution %s is approved", errorz.ErrInvalidTransition, id)
	}

	_, err = s.contributionStorage.Transition(ctx, id, entity.StatusRejected, map[string]interface{}{
		"rejected_by":      actor.UserID,
		"rejected_at":      time.Now().UTC(),
		"rejection_reason": in.Reason,
	})
	if err != nil {
		return nil, err
	}
	contribution, err = s.contributionStorage.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if contribution.Status != entity.StatusRejected {
		return nil, fmt.Errorf("%w: contribution %s is %s", errorz.ErrInvalidTransition, id, contribution.Status)
	}

	s.logger.Infof("(user: %s) rejected contribution (contribution_id=%s)", actor.UserID, id)
	return contribution, nil
}

// Update edits a contribution. Content fields stay editable after review;
// type, points and date are frozen once the contribution left pending so
// that recorded rankings and awarded badges keep matching the data.
func (s *ContributionService) Update(ctx context.Context, actor policy.Actor, id string, in dto.UpdateContribution) (*entity.Contribution, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	contribution, err := s.contributionStorage.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = s.authorize(ctx, actor, policy.ContributionUpdate, contribution); err != nil {
		return nil, err
	}

	if in.Status != nil && entity.ContributionStatus(*in.Status) != contribution.Status {
		return nil, fmt.Errorf("%w: status changes go through approve or reject", errorz.ErrInvalidTransition)
	}

	typeChanged := in.Type != nil && entity.ContributionType(*in.Type) != contribution.Type
	pointsChanged := in.Points != nil && *in.Points > 0 && *in.Points != contribution.Points
	dateChanged := in.Date != nil && !in.Date.Equal(contribution.Date)
	if !contribution.IsPending() && (typeChanged || pointsChanged || dateChanged) {
		return nil, fmt.Errorf("%w: type, points and date are frozen once reviewed", errorz.ErrInvalidTransition)
	}

	columns := make(map[string]interface{})
	if in.Title != nil {
		columns["title"] = *in.Title
	}
	if in.Description != nil {
		columns["description"] = *in.Description
	}
	if in.URL != nil {
		columns["url"] = *in.URL
	}
	if typeChanged {
		columns["type"] = entity.ContributionType(*in.Type)
	}
	if pointsChanged {
		columns["points"] = *in.Points
	}
	if dateChanged {
		columns["date"] = in.Date.UTC()
	}
	if len(columns) == 0 {
		return contribution, nil
	}

	// review state is never written here, and scoring fields only land while
	// the row is still pending
	scoring := typeChanged || pointsChanged || dateChanged
	ok, err := s.contributionStorage.Edit(ctx, id, columns, scoring)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: contribution %s was reviewed meanwhile", errorz.ErrInvalidTransition, id)
	}

	s.logger.Infof("(user: %s) edited contribution (contribution_id=%s)", actor.UserID, id)
	return s.contributionStorage.Get(ctx, id)
}

func (s *ContributionService) Get(ctx context.Context, id string) (*dto.Contribution, error) {
	return s.contributionStorage.GetDetailed(ctx, id)
}

// List returns contributions matching the filter, newest first.
func (s *ContributionService) List(ctx context.Context, filter dto.ContributionFilter) ([]dto.Contribution, error) {
	if filter.Status != "" && filter.Status != entity.StatusPending && filter.Status != entity.StatusApproved && filter.Status != entity.StatusRejected {
		return nil, fmt.Errorf("%w: unknown status %q", errorz.ErrValidation, filter.Status)
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown contribution type %q", errorz.ErrValidation, filter.Type)
	}
	if filter.Limit <= 0 || filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.contributionStorage.GetDetailedMany(ctx, filter)
}
