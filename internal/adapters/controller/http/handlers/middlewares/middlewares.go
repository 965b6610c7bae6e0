package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/kug-advocacy/kug-platform/cmd/server"
	"github.com/kug-advocacy/kug-platform/internal/adapters/controller/http/respond"
	"github.com/kug-advocacy/kug-platform/internal/adapters/database/postgres"
	"github.com/kug-advocacy/kug-platform/internal/domain/common/errorz"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
	"github.com/kug-advocacy/kug-platform/internal/domain/policy"
	"github.com/kug-advocacy/kug-platform/internal/domain/service"
	"github.com/kug-advocacy/kug-platform/pkg/logger/types"
	"github.com/kug-advocacy/kug-platform/pkg/token"
)

type contextKey struct{}

var userKey = contextKey{}

type userService interface {
	Get(ctx context.Context, id string) (*entity.User, error)
}

type tokenParser interface {
	Parse(tokenString string) (*token.Claims, error)
}

type Handler struct {
	logger      *types.Logger
	tokens      tokenParser
	userService userService
}

func New(s *server.Server) *Handler {
	return &Handler{
		logger:      s.Named("http"),
		tokens:      s.Tokens,
		userService: service.NewUserService(s.Named("users"), postgres.NewUserStorage(s.DB)),
	}
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*entity.User, bool) {
	user, ok := ctx.Value(userKey).(*entity.User)
	return user, ok && user != nil
}

// Actor returns the policy actor of the request. Anonymous requests get the
// zero Actor, which policy rejects for every action.
func Actor(r *http.Request) policy.Actor {
	user, _ := UserFromContext(r.Context())
	return policy.ActorOf(user)
}

func bearer(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	tokenString := strings.TrimPrefix(header, "Bearer ")
	if header == "" || tokenString == header || tokenString == "" {
		return "", false
	}
	return tokenString, true
}

// authenticate resolves the token to a fresh user row so role changes and
// deletions apply to tokens issued earlier.
func (h Handler) authenticate(r *http.Request) (*entity.User, error) {
	tokenString, ok := bearer(r)
	if !ok {
		return nil, errorz.ErrUnauthorized
	}
	claims, err := h.tokens.Parse(tokenString)
	if err != nil {
		return nil, errorz.ErrUnauthorized
	}
	user, err := h.userService.Get(r.Context(), claims.UserID)
	if errors.Is(err, errorz.ErrNotFound) {
		return nil, errorz.ErrUnauthorized
	}
	return user, err
}

// Authenticated rejects requests without a valid bearer token.
func (h Handler) Authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := h.authenticate(r)
		if err != nil {
			respond.Error(w, r, h.logger, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

// OptionalAuth attaches the user when a valid token is present and ignores
// missing or invalid ones.
func (h Handler) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, err := h.authenticate(r); err == nil {
			r = r.WithContext(context.WithValue(r.Context(), userKey, user))
		}
		next.ServeHTTP(w, r)
	})
}

// AccessLog logs one line per request.
func (h Handler) AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		h.logger.Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
