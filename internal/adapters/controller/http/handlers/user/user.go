package user

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

type userService interface {
	Get(ctx context.Context, id string) (*entity.User, error)
	Count(ctx context.Context) (int64, error)
	GetWithPagination(ctx context.Context, offset, limit int) ([]entity.User, error)
	UpdateProfile(ctx context.Context, actor policy.Actor, id string, in dto.UpdateProfile) (*entity.User, error)
	ChangeRole(ctx context.Context, actor policy.Actor, id string, in dto.ChangeRole) (*entity.User, error)
}

type contributionService interface {
	List(ctx context.Context, filter dto.ContributionFilter) ([]dto.Contribution, error)
}

type badgeService interface {
	UserBadges(ctx context.Context, userID string) ([]dto.AwardedBadge, error)
}

type Handler struct {
	logger *types.Logger

	userService         userService
	contributionService contributionService
	badgeService        badgeService
}

func New(s *server.Server) *Handler {
	return &Handler{
		logger:      s.Named("users"),
		userService: service.NewUserService(s.Named("users"), postgres.NewUserStorage(s.DB)),
		contributionService: service.NewContributionService(
			s.Named("contributions"),
			postgres.NewContributionStorage(s.DB),
			postgres.NewKugStorage(s.DB),
			postgres.NewMembershipStorage(s.DB),
			s.Approvals,
		),
		badgeService: s.BadgeService(),
	}
}

func (h Handler) Setup(r chi.Router, middle *middlewares.Handler) {
	r.With(middle.Authenticated).Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/contributions", h.contributions)
	r.Get("/{id}/badges", h.badges)

	r.Group(func(r chi.Router) {
		r.Use(middle.Authenticated)
		r.Put("/{id}", h.updateProfile)
		r.Put("/{id}/role", h.changeRole)
	})
}

type usersPage struct {
	Users  []entity.User `json:"users"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
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

	users, err := h.userService.GetWithPagination(r.Context(), offset, limit)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	total, err := h.userService.Count(r.Context())
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, usersPage{Users: users, Total: total, Limit: limit, Offset: offset})
}

func (h Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	user, err := h.userService.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, user)
}

func (h Handler) contributions(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.userService.Get(r.Context(), id); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	contributions, err := h.contributionService.List(r.Context(), dto.ContributionFilter{
		UserID: id,
		Status: entity.ContributionStatus(r.URL.Query().Get("status")),
	})
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, contributions)
}

func (h Handler) badges(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	badges, err := h.badgeService.UserBadges(r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, badges)
}

func (h Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	var in dto.UpdateProfile
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	user, err := h.userService.UpdateProfile(r.Context(), middlewares.Actor(r), id, in)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, user)
}

func (h Handler) changeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	var in dto.ChangeRole
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	user, err := h.userService.ChangeRole(r.Context(), middlewares.Actor(r), id, in)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, user)
}
