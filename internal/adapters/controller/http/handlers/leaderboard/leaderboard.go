package leaderboard

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kug-advocacy/kug-platform/cmd/server"
	"github.com/kug-advocacy/kug-platform/internal/adapters/controller/http/handlers/middlewares"
	"github.com/kug-advocacy/kug-platform/internal/adapters/controller/http/respond"
	"github.com/kug-advocacy/kug-platform/internal/domain/dto"
	"github.com/kug-advocacy/kug-platform/pkg/logger/types"
)

type leaderboardService interface {
	Global(ctx context.Context) ([]dto.LeaderboardEntry, error)
	Kug(ctx context.Context, kugID string) ([]dto.LeaderboardEntry, error)
	ByType(ctx context.Context, contributionType string) ([]dto.LeaderboardEntry, error)
	Monthly(ctx context.Context) (dto.MonthlyLeaderboard, error)
	User(ctx context.Context, userID string) (*dto.UserRanking, error)
}

type Handler struct {
	logger *types.Logger

	leaderboardService leaderboardService
}

func New(s *server.Server) *Handler {
	return &Handler{
		logger:             s.Named("leaderboards"),
		leaderboardService: s.LeaderboardService(),
	}
}

func (h Handler) Setup(r chi.Router, _ *middlewares.Handler) {
	r.Get("/global", h.global)
	r.Get("/kug/{id}", h.kug)
	r.Get("/type/{type}", h.byType)
	r.Get("/user/{id}", h.user)
	r.Get("/monthly", h.monthly)
}

func (h Handler) global(w http.ResponseWriter, r *http.Request) {
	rows, err := h.leaderboardService.Global(r.Context())
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, rows)
}

func (h Handler) kug(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	rows, err := h.leaderboardService.Kug(r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, rows)
}

func (h Handler) byType(w http.ResponseWriter, r *http.Request) {
	rows, err := h.leaderboardService.ByType(r.Context(), chi.URLParam(r, "type"))
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, rows)
}

func (h Handler) user(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	ranking, err := h.leaderboardService.User(r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, ranking)
}

func (h Handler) monthly(w http.ResponseWriter, r *http.Request) {
	board, err := h.leaderboardService.Monthly(r.Context())
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, board)
}
