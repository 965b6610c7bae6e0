package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/kug-advocacy/kug-platform/internal/domain/common/errorz"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("contribution_type", func(fl validator.FieldLevel) bool {
			return entity.ContributionType(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("membership_role", func(fl validator.FieldLevel) bool {
			return entity.MembershipRole(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
			return entity.Role(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("attendee_status", func(fl validator.FieldLevel) bool {
			return entity.AttendeeStatus(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("kug_name", func(fl validator.FieldLevel) bool {
			return KugName(fl.Field().String())
		})
		instance = v
	})
	return instance
}

// Struct validates a request payload and reports every failing field in a
// single ErrValidation.
func Struct(s interface{}) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("%w: %v", errorz.ErrValidation, err)
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		if fe.Param() != "" {
			messages = append(messages, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			messages = append(messages, fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", errorz.ErrValidation, strings.Join(messages, "; "))
}

func KugName(name string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	return n >= 3 && n <= 60
}
