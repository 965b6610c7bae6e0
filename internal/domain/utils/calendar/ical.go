package calendar

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/kug-advocacy/kug-platform/internal/domain/dto"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
)

// ExportEventsToICS renders events as an iCalendar feed. Events without an
// end time last one hour; cancelled events keep their UID and are marked
// CANCELLED so subscribed calendars drop them.
func ExportEventsToICS(events []dto.Event) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//KUG Platform//EN")
	cal.SetVersion("2.0")
	cal.SetCalscale("GREGORIAN")

	now := time.Now()
	for _, event := range events {
		e := cal.AddEvent(fmt.Sprintf("%s@kug-platform", event.ID))
		e.SetDtStampTime(now)
		e.SetCreatedTime(event.CreatedAt)
		e.SetModifiedAt(event.UpdatedAt)

		e.SetStartAt(event.StartTime)
		if !event.EndTime.IsZero() {
			e.SetEndAt(event.EndTime)
		} else {
			e.SetEndAt(event.StartTime.Add(time.Hour))
		}

		summary := event.Title
		if event.KugName != "" {
			summary = fmt.Sprintf("%s (%s)", event.Title, event.KugName)
		}
		e.SetSummary(summary)
		e.SetDescription(event.Description)
		if event.IsOnline && event.MeetingLink != "" {
			e.SetLocation(event.MeetingLink)
			e.AddProperty(ics.ComponentPropertyUrl, event.MeetingLink)
		} else {
			e.SetLocation(event.Location)
		}
		if len(event.Tags) > 0 {
			e.AddProperty(ics.ComponentPropertyCategories, strings.Join(event.Tags, ","))
		}

		switch event.Status {
		case entity.EventCancelled:
			e.SetStatus(ics.ObjectStatusCancelled)
		default:
			e.SetStatus(ics.ObjectStatusConfirmed)
		}
		e.SetTimeTransparency(ics.TransparencyOpaque)
		e.SetClass(ics.ClassificationPublic)
		e.SetSequence(0)

		alarm := e.AddAlarm()
		alarm.SetAction(ics.ActionDisplay)
		alarm.AddProperty("TRIGGER;VALUE=DURATION", "-PT1H")
		alarm.SetDescription(fmt.Sprintf("Reminder: %s starts in an hour", event.Title))
	}

	var buf bytes.Buffer
	if err := cal.SerializeTo(&buf); err != nil {
		return nil, fmt.Errorf("error serializing calendar: %w", err)
	}
	return buf.Bytes(), nil
}
