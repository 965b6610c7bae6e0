package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"

	"github.com/kug-advocacy/kug-platform/internal/adapters/config"
	"github.com/kug-advocacy/kug-platform/internal/adapters/database/postgres"
	"github.com/kug-advocacy/kug-platform/internal/adapters/database/redis"
	"github.com/kug-advocacy/kug-platform/internal/domain/service"
	"github.com/kug-advocacy/kug-platform/pkg/logger"
	"github.com/kug-advocacy/kug-platform/pkg/logger/types"
	qr "github.com/kug-advocacy/kug-platform/pkg/qrcode"
	"github.com/kug-advocacy/kug-platform/pkg/smtp"
	"github.com/kug-advocacy/kug-platform/pkg/token"
)

type Server struct {
	*http.Server
	Router     chi.Router
	DB         *gorm.DB
	Redis      *redis.Client
	SMTPDialer *gomail.Dialer
	Logger     *types.Logger
	Tokens     *token.Service
	QR         qr.Config

	// Approvals receives ContributionApproved events from the lifecycle
	// manager. It dispatches inline or through the redis queue.
	Approvals  service.ApprovalPublisher
	dispatcher *service.ApprovalDispatcher
	worker     *service.ApprovalWorker
}

func New(cfg *config.Config) (*Server, error) {
	router := chi.NewRouter()
	s := &Server{
		Server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", viper.GetString("server.host"), viper.GetInt("server.port")),
			Handler:           router,
			ReadTimeout:       viper.GetDuration("server.read-timeout"),
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      viper.GetDuration("server.write-timeout"),
		},
		Router:     router,
		DB:         cfg.Database,
		Redis:      cfg.Redis,
		SMTPDialer: cfg.SMTPDialer,
		Logger:     logger.Log,
		Tokens:     token.NewService(viper.GetString("settings.auth.jwt-secret"), viper.GetDuration("settings.auth.token-ttl")),
		QR:         qr.Default,
	}
	s.QR.LogoPath = viper.GetString("settings.events.qr-logo")

	if err := s.SetupApprovals(); err != nil {
		return nil, err
	}
	return s, nil
}

// LeaderboardCache returns the redis leaderboard cache, or nil without redis.
func (s *Server) LeaderboardCache() service.LeaderboardCache {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Leaderboards
}

// Named derives a component logger from the server logger.
func (s *Server) Named(name string) *types.Logger {
	return &types.Logger{
		SugaredLogger: s.Logger.SugaredLogger.Named(name),
		LogsPath:      s.Logger.LogsPath,
		Name:          name,
	}
}

func (s *Server) Notifier() *service.NotifyService {
	var mailer *smtp.Client
	if s.SMTPDialer != nil {
		mailer = smtp.NewClient(s.SMTPDialer)
	}
	if mailer == nil || !viper.GetBool("settings.notifications.email") {
		return service.NewNotifyService(s.Named("notify"), nil, false)
	}
	return service.NewNotifyService(s.Named("notify"), mailer, true)
}

func (s *Server) BadgeService() *service.BadgeService {
	return service.NewBadgeService(
		s.Named("badges"),
		postgres.NewBadgeStorage(s.DB),
		postgres.NewUserBadgeStorage(s.DB),
		postgres.NewContributionStorage(s.DB),
		postgres.NewUserStorage(s.DB),
		postgres.NewKugStorage(s.DB),
		postgres.NewMembershipStorage(s.DB),
		s.Notifier(),
	)
}

func (s *Server) EventService() *service.EventService {
	return service.NewEventService(
		s.Named("events"),
		postgres.NewEventStorage(s.DB),
		postgres.NewEventAttendeeStorage(s.DB),
		postgres.NewKugStorage(s.DB),
		postgres.NewMembershipStorage(s.DB),
		s.QR,
	)
}

func (s *Server) LeaderboardService() *service.LeaderboardService {
	return service.NewLeaderboardService(
		s.Named("leaderboards"),
		postgres.NewLeaderboardStorage(s.DB),
		postgres.NewUserStorage(s.DB),
		postgres.NewKugStorage(s.DB),
		postgres.NewUserBadgeStorage(s.DB),
		s.LeaderboardCache(),
		viper.GetInt("settings.leaderboards.limit"),
		viper.GetDuration("settings.leaderboards.cache-ttl"),
	)
}

// SetupApprovals wires badge evaluation and leaderboard invalidation to
// approval events.
func (s *Server) SetupApprovals() error {
	approvalLogger := s.Named("approvals")
	badges := s.BadgeService()
	leaderboards := s.LeaderboardService()

	if viper.GetBool("settings.badges.seed-catalog") {
		if err := badges.SeedCatalog(context.Background()); err != nil {
			return fmt.Errorf("failed to seed badge catalog: %w", err)
		}
	}

	s.dispatcher = service.NewApprovalDispatcher(approvalLogger)
	s.dispatcher.Subscribe("badges", badges.HandleContributionApproved)
	s.dispatcher.Subscribe("leaderboards", leaderboards.HandleContributionApproved)
	s.Approvals = s.dispatcher

	if s.Redis != nil && viper.GetBool("settings.approvals.async") {
		s.Approvals = service.NewQueuedApprovalPublisher(approvalLogger, s.Redis.Approvals, s.dispatcher)
		s.worker = service.NewApprovalWorker(approvalLogger, s.Redis.Approvals, s.dispatcher, viper.GetDuration("settings.approvals.poll-timeout"))
	}
	return nil
}

// Start serves HTTP until ctx is cancelled, then drains in-flight requests,
// the approval worker and the event status scheduler.
func (s *Server) Start(ctx context.Context) error {
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	var workerDone <-chan struct{}
	if s.worker != nil {
		workerDone = s.worker.Start(workerCtx)
	}
	var schedulerDone <-chan struct{}
	if interval := viper.GetDuration("settings.events.status-interval"); interval > 0 {
		schedulerDone = s.EventService().StartStatusScheduler(workerCtx, interval)
	}

	serveErr := make(chan error, 1)
	go func() {
		s.Logger.Infof("Server starting on %s", s.Addr)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
	}

	s.Logger.Info("Server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if shutdownErr := s.Shutdown(shutdownCtx); shutdownErr != nil && err == nil {
		err = shutdownErr
	}

	stopWorker()
	if workerDone != nil {
		<-workerDone
	}
	if schedulerDone != nil {
		<-schedulerDone
	}
	if s.Redis != nil {
		if closeErr := s.Redis.Close(); closeErr != nil {
			s.Logger.Errorf("Failed to close redis: %v", closeErr)
		}
	}
	if sqlDB, dbErr := s.DB.DB(); dbErr == nil {
		_ = sqlDB.Close()
	}
	return err
}
