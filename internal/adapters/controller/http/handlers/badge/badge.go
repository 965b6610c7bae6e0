package badge

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kug-advocacy/kug-platform/cmd/server"
	"github.com/kug-advocacy/kug-platform/internal/adapters/controller/http/handlers/middlewares"
	"github.com/kug-advocacy/kug-platform/internal/adapters/controller/http/respond"
	"github.com/kug-advocacy/kug-platform/internal/domain/dto"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
	"github.com/kug-advocacy/kug-platform/internal/domain/policy"
	"github.com/kug-advocacy/kug-platform/pkg/logger/types"
)

type badgeService interface {
	List(ctx context.Context) ([]entity.Badge, error)
	Get(ctx context.Context, id string) (*entity.Badge, error)
	Holders(ctx context.Context, id string) ([]dto.BadgeHolder, error)
	Create(ctx context.Context, actor policy.Actor, in dto.CreateBadge) (*entity.Badge, error)
	Update(ctx context.Context, actor policy.Actor, id string, in dto.UpdateBadge) (*entity.Badge, error)
	Award(ctx context.Context, actor policy.Actor, in dto.AwardBadge) (*entity.UserBadge, error)
	Revoke(ctx context.Context, actor policy.Actor, in dto.AwardBadge) error
}

type Handler struct {
	logger *types.Logger

	badgeService badgeService
}

func New(s *server.Server) *Handler {
	return &Handler{
		logger:       s.Named("badges"),
		badgeService: s.BadgeService(),
	}
}

func (h Handler) Setup(r chi.Router, middle *middlewares.Handler) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/users", h.holders)

	r.Group(func(r chi.Router) {
		r.Use(middle.Authenticated)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Post("/award", h.award)
		r.Delete("/revoke", h.revoke)
	})
}

func (h Handler) list(w http.ResponseWriter, r *http.Request) {
	badges, err := h.badgeService.List(r.Context())
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, badges)
}

func (h Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	badge, err := h.badgeService.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, badge)
}

func (h Handler) holders(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	holders, err := h.badgeService.Holders(r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, holders)
}

func (h Handler) create(w http.ResponseWriter, r *http.Request) {
	var in dto.CreateBadge
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	badge, err := h.badgeService.Create(r.Context(), middlewares.Actor(r), in)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.Created(w, badge)
}

func (h Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	var in dto.UpdateBadge
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	badge, err := h.badgeService.Update(r.Context(), middlewares.Actor(r), id, in)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, badge)
}

func (h Handler) award(w http.ResponseWriter, r *http.Request) {
	var in dto.AwardBadge
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	award, err := h.badgeService.Award(r.Context(), middlewares.Actor(r), in)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.Created(w, award)
}

func (h Handler) revoke(w http.ResponseWriter, r *http.Request) {
	var in dto.AwardBadge
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	if err := h.badgeService.Revoke(r.Context(), middlewares.Actor(r), in); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, nil)
}
