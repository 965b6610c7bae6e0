package kug

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

type kugService interface {
	List(ctx context.Context) ([]entity.Kug, error)
	Get(ctx context.Context, id string) (*entity.Kug, error)
	Create(ctx context.Context, actor policy.Actor, in dto.CreateKug) (*entity.Kug, error)
	Update(ctx context.Context, actor policy.Actor, id string, in dto.UpdateKug) (*entity.Kug, error)
	Members(ctx context.Context, kugID string) ([]dto.KugMember, error)
	Join(ctx context.Context, actor policy.Actor, kugID string) (*entity.Membership, error)
	Leave(ctx context.Context, actor policy.Actor, kugID string) error
	ChangeMemberRole(ctx context.Context, actor policy.Actor, kugID, userID string, in dto.ChangeMemberRole) error
}

type contributionService interface {
	List(ctx context.Context, filter dto.ContributionFilter) ([]dto.Contribution, error)
}

type eventService interface {
	List(ctx context.Context, kugID, viewerID string) ([]dto.Event, error)
}

type Handler struct {
	logger *types.Logger

	kugService          kugService
	contributionService contributionService
	eventService        eventService
}

func New(s *server.Server) *Handler {
	kugStorage := postgres.NewKugStorage(s.DB)
	membershipStorage := postgres.NewMembershipStorage(s.DB)

	return &Handler{
		logger:     s.Named("kugs"),
		kugService: service.NewKugService(s.Named("kugs"), kugStorage, membershipStorage),
		contributionService: service.NewContributionService(
			s.Named("contributions"),
			postgres.NewContributionStorage(s.DB),
			kugStorage,
			membershipStorage,
			s.Approvals,
		),
		eventService: service.NewEventService(
			s.Named("events"),
			postgres.NewEventStorage(s.DB),
			postgres.NewEventAttendeeStorage(s.DB),
			kugStorage,
			membershipStorage,
			s.QR,
		),
	}
}

func (h Handler) Setup(r chi.Router, middle *middlewares.Handler) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/members", h.members)
	r.Get("/{id}/contributions", h.contributions)
	r.With(middle.OptionalAuth).Get("/{id}/events", h.events)

	r.Group(func(r chi.Router) {
		r.Use(middle.Authenticated)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Post("/{id}/members", h.join)
		r.Delete("/{id}/members", h.leave)
		r.Put("/{id}/members/{userID}", h.changeMemberRole)
	})
}

func (h Handler) list(w http.ResponseWriter, r *http.Request) {
	kugs, err := h.kugService.List(r.Context())
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, kugs)
}

func (h Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	kug, err := h.kugService.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, kug)
}

func (h Handler) members(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	members, err := h.kugService.Members(r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, members)
}

func (h Handler) contributions(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.kugService.Get(r.Context(), id); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	contributions, err := h.contributionService.List(r.Context(), dto.ContributionFilter{
		KugID:  id,
		Status: entity.ContributionStatus(r.URL.Query().Get("status")),
		Type:   entity.ContributionType(r.URL.Query().Get("type")),
	})
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, contributions)
}

func (h Handler) events(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	events, err := h.eventService.List(r.Context(), id, middlewares.Actor(r).UserID)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, events)
}

func (h Handler) create(w http.ResponseWriter, r *http.Request) {
	var in dto.CreateKug
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	kug, err := h.kugService.Create(r.Context(), middlewares.Actor(r), in)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.Created(w, kug)
}

func (h Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	var in dto.UpdateKug
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	kug, err := h.kugService.Update(r.Context(), middlewares.Actor(r), id, in)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, kug)
}

func (h Handler) join(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	membership, err := h.kugService.Join(r.Context(), middlewares.Actor(r), id)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.Created(w, membership)
}

func (h Handler) leave(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	if err := h.kugService.Leave(r.Context(), middlewares.Actor(r), id); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, nil)
}

func (h Handler) changeMemberRole(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := respond.ID(w, r, "userID")
	if !ok {
		return
	}
	var in dto.ChangeMemberRole
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	if err := h.kugService.ChangeMemberRole(r.Context(), middlewares.Actor(r), id, userID, in); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, nil)
}
