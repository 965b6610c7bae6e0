package setup

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"

	"github.com/kug-advocacy/kug-platform/cmd/server"
	"github.com/kug-advocacy/kug-platform/internal/adapters/controller/http/handlers/auth"
	"github.com/kug-advocacy/kug-platform/internal/adapters/controller/http/handlers/badge"
	"github.com/kug-advocacy/kug-platform/internal/adapters/controller/http/handlers/contribution"
	"github.com/kug-advocacy/kug-platform/internal/adapters/controller/http/handlers/event"
	"github.com/kug-advocacy/kug-platform/internal/adapters/controller/http/handlers/kug"
	"github.com/kug-advocacy/kug-platform/internal/adapters/controller/http/handlers/leaderboard"
	"github.com/kug-advocacy/kug-platform/internal/adapters/controller/http/handlers/middlewares"
	"github.com/kug-advocacy/kug-platform/internal/adapters/controller/http/handlers/user"
	"github.com/kug-advocacy/kug-platform/internal/adapters/controller/http/respond"
)

type health struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

func Setup(s *server.Server) {
	middle := middlewares.New(s)

	s.Router.Use(middleware.RequestID)
	s.Router.Use(middleware.RealIP)
	s.Router.Use(middle.AccessLog)
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   viper.GetStringSlice("server.cors.allowed-origins"),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	s.Router.Use(middleware.Timeout(30 * time.Second))

	s.Router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Fail(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})
	s.Router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Fail(w, http.StatusNotFound, "NOT_FOUND", "route not found")
	})

	s.Router.Route("/api", func(r chi.Router) {
		r.Get("/health", healthCheck(s))

		r.Route("/auth", func(r chi.Router) { auth.New(s).Setup(r, middle) })
		r.Route("/users", func(r chi.Router) { user.New(s).Setup(r, middle) })
		r.Route("/kugs", func(r chi.Router) { kug.New(s).Setup(r, middle) })
		r.Route("/contributions", func(r chi.Router) { contribution.New(s).Setup(r, middle) })
		r.Route("/badges", func(r chi.Router) { badge.New(s).Setup(r, middle) })
		r.Route("/leaderboards", func(r chi.Router) { leaderboard.New(s).Setup(r, middle) })
		r.Route("/events", func(r chi.Router) { event.New(s).Setup(r, middle) })
	})
}

func healthCheck(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := health{Status: "OK", Database: "up", Timestamp: time.Now().UTC()}
		sqlDB, err := s.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			s.Named("http").Errorf("health check failed: %v", err)
			status.Status = "DEGRADED"
			status.Database = "down"
			respond.JSON(w, http.StatusServiceUnavailable, status)
			return
		}
		respond.OK(w, status)
	}
}
