package location

import (
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	once     sync.Once
	location *time.Location
)

// Location returns the configured settings.timezone, loaded once.
// An unset or unknown zone falls back to UTC.
func Location() *time.Location {
	once.Do(func() {
		loc, err := time.LoadLocation(viper.GetString("settings.timezone"))
		if err != nil {
			loc = time.UTC
		}
		location = loc
	})
	return location
}
