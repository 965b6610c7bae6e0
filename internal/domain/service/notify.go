package service

import (
	"context"
	"fmt"

	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
	"github.com/kug-advocacy/kug-platform/pkg/logger/types"
)

type mailer interface {
	Send(to, subject, text, html string) error
}

type NotifyService struct {
	mailer  mailer
	enabled bool

	logger *types.Logger
}

func NewNotifyService(logger *types.Logger, mailer mailer, enabled bool) *NotifyService {
	return &NotifyService{
		mailer:  mailer,
		enabled: enabled && mailer != nil,
		logger:  logger,
	}
}

// BadgeAwarded emails the user about a new badge. Delivery failures are
// logged only.
func (s *NotifyService) BadgeAwarded(_ context.Context, user *entity.User, badge *entity.Badge, kug *entity.Kug) {
	if !s.enabled || user.Email == "" {
		return
	}

	subject := fmt.Sprintf("You earned the %s badge", badge.Name)
	text := fmt.Sprintf("Hi %s,\n\nyou earned the %s badge in %s: %s\n", user.Name, badge.Name, kug.Name, badge.Description)
	html := fmt.Sprintf("<p>Hi %s,</p><p>you earned the <b>%s</b> badge in %s: %s</p>", user.Name, badge.Name, kug.Name, badge.Description)

	if err := s.mailer.Send(user.Email, subject, text, html); err != nil {
		s.logger.Errorf("(user: %s) failed to send badge email (badge=%s): %v", user.ID, badge.Name, err)
		return
	}
	s.logger.Infof("(user: %s) badge email sent (badge=%s)", user.ID, badge.Name)
}
