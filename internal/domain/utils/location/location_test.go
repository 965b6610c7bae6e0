package location

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocationDefaultsToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, Location())
}
