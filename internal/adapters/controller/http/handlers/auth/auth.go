package auth

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
	"github.com/kug-advocacy/kug-platform/internal/domain/service"
	"github.com/kug-advocacy/kug-platform/pkg/logger/types"
)

type authService interface {
	Register(ctx context.Context, in dto.Register) (*dto.AuthResult, error)
	Login(ctx context.Context, in dto.Login) (*dto.AuthResult, error)
}

type membershipLister interface {
	Memberships(ctx context.Context, userID string) ([]entity.Membership, error)
}

type Handler struct {
	logger *types.Logger

	authService authService
	kugService  membershipLister
}

func New(s *server.Server) *Handler {
	userStorage := postgres.NewUserStorage(s.DB)

	return &Handler{
		logger:      s.Named("auth"),
		authService: service.NewAuthService(s.Named("auth"), userStorage, s.Tokens),
		kugService:  service.NewKugService(s.Named("kugs"), postgres.NewKugStorage(s.DB), postgres.NewMembershipStorage(s.DB)),
	}
}

func (h Handler) Setup(r chi.Router, middle *middlewares.Handler) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.With(middle.Authenticated).Get("/me", h.me)
}

func (h Handler) register(w http.ResponseWriter, r *http.Request) {
	var in dto.Register
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	res, err := h.authService.Register(r.Context(), in)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.Created(w, res)
}

func (h Handler) login(w http.ResponseWriter, r *http.Request) {
	var in dto.Login
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	res, err := h.authService.Login(r.Context(), in)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, res)
}

type meResponse struct {
	*entity.User
	Memberships []entity.Membership `json:"memberships"`
}

func (h Handler) me(w http.ResponseWriter, r *http.Request) {
	user, _ := middlewares.UserFromContext(r.Context())
	memberships, err := h.kugService.Memberships(r.Context(), user.ID)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	if memberships == nil {
		memberships = []entity.Membership{}
	}
	respond.OK(w, meResponse{User: user, Memberships: memberships})
}
