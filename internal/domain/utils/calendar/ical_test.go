package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kug-advocacy/kug-platform/internal/domain/dto"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
)

func TestExportEventsToICS(t *testing.T) {
	start := time.Date(2024, time.May, 10, 18, 0, 0, 0, time.UTC)

	meetup := dto.Event{KugName: "Berlin KUG"}
	meetup.ID = "e1"
	meetup.Title = "Coroutines deep dive"
	meetup.Location = "Alexanderplatz 1"
	meetup.StartTime = start
	meetup.Status = entity.EventUpcoming
	meetup.Tags = entity.StringList{"coroutines", "jvm"}

	cancelled := dto.Event{}
	cancelled.ID = "e2"
	cancelled.Title = "Compose workshop"
	cancelled.StartTime = start.Add(24 * time.Hour)
	cancelled.EndTime = start.Add(26 * time.Hour)
	cancelled.Status = entity.EventCancelled

	data, err := ExportEventsToICS([]dto.Event{meetup, cancelled})
	require.NoError(t, err)

	out := string(data)
	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
	assert.Contains(t, out, "UID:e1@kug-platform")
	assert.Contains(t, out, "SUMMARY:Coroutines deep dive (Berlin KUG)")
	assert.Contains(t, out, "DTEND:20240510T190000Z")
	assert.Contains(t, out, "STATUS:CANCELLED")
	assert.Contains(t, out, "CATEGORIES:coroutines")
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
}
