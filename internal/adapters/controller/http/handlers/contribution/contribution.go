package contribution

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kug-advocacy/kug-platform/cmd/server"
	"github.com/kug-advocacy/kug-platform/internal/adapters/controller/http/handlers/middlewares"
	"github.com/kug-advocacy/kug-platform/internal/adapters/controller/http/respond"
	"github.com/kug-advocacy/kug-platform/internal/adapters/database/postgres"
	"github.com/kug-advocacy/kug-platform/internal/domain/dto"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
	"github.com/kug-advocacy/kug-platform/internal/domain/policy"
	"github.com/kug-advocacy/kug-platform/internal/domain/service"
	"github.com/kug-advocacy/kug-platform/pkg/logger/types"
)

type contributionService interface {
	Create(ctx context.Context, actor policy.Actor, in dto.CreateContribution) (*entity.Contribution, error)
	Approve(ctx context.Context, actor policy.Actor, id string) (*entity.Contribution, error)
	Reject(ctx context.Context, actor policy.Actor, id string, in dto.ReviewContribution) (*entity.Contribution, error)
	Update(ctx context.Context, actor policy.Actor, id string, in dto.UpdateContribution) (*entity.Contribution, error)
	Get(ctx context.Context, id string) (*dto.Contribution, error)
	List(ctx context.Context, filter dto.ContributionFilter) ([]dto.Contribution, error)
}

type Handler struct {
	logger *types.Logger

	contributionService contributionService
}

func New(s *server.Server) *Handler {
	return &Handler{
		logger: s.Named("contributions"),
		contributionService: service.NewContributionService(
			s.Named("contributions"),
			postgres.NewContributionStorage(s.DB),
			postgres.NewKugStorage(s.DB),
			postgres.NewMembershipStorage(s.DB),
			s.Approvals,
		),
	}
}

func (h Handler) Setup(r chi.Router, middle *middlewares.Handler) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)

	r.Group(func(r chi.Router) {
		r.Use(middle.Authenticated)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Put("/{id}/approve", h.approve)
		r.Put("/{id}/reject", h.reject)
	})
}

func (h Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, err := respond.QueryInt(r, "limit", 50)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	offset, err := respond.QueryInt(r, "offset", 0)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	kugID, err := respond.QueryID(r, "kug_id")
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	userID, err := respond.QueryID(r, "user_id")
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	query := r.URL.Query()
	contributions, err := h.contributionService.List(r.Context(), dto.ContributionFilter{
		KugID:  kugID,
		UserID: userID,
		Status: entity.ContributionStatus(query.Get("status")),
		Type:   entity.ContributionType(query.Get("type")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, contributions)
}

func (h Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	contribution, err := h.contributionService.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, contribution)
}

func (h Handler) create(w http.ResponseWriter, r *http.Request) {
	var in dto.CreateContribution
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	contribution, err := h.contributionService.Create(r.Context(), middlewares.Actor(r), in)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.Created(w, contribution)
}

func (h Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	var in dto.UpdateContribution
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	contribution, err := h.contributionService.Update(r.Context(), middlewares.Actor(r), id, in)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, contribution)
}

func (h Handler) approve(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	contribution, err := h.contributionService.Approve(r.Context(), middlewares.Actor(r), id)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, contribution)
}

func (h Handler) reject(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}

	var in dto.ReviewContribution
	if err := respond.DecodeOptional(r, &in); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	contribution, err := h.contributionService.Reject(r.Context(), middlewares.Actor(r), id, in)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, contribution)
}
