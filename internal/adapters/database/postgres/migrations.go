package postgres

import "github.com/kug-advocacy/kug-platform/internal/domain/entity"

// Migrations is a list of all gorm migrations for the database.
var Migrations = []interface{}{
	&entity.User{},
	&entity.Kug{},
	&entity.Membership{},
	&entity.Contribution{},
	&entity.Badge{},
	&entity.UserBadge{},
	&entity.Event{},
	&entity.EventAttendee{},
}
