package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kug-advocacy/kug-platform/internal/domain/common/errorz"
	"github.com/kug-advocacy/kug-platform/internal/domain/dto"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
	"github.com/kug-advocacy/kug-platform/internal/domain/policy"
	"github.com/kug-advocacy/kug-platform/internal/domain/utils/calendar"
	"github.com/kug-advocacy/kug-platform/internal/domain/utils/location"
	"github.com/kug-advocacy/kug-platform/internal/domain/utils/validator"
	"github.com/kug-advocacy/kug-platform/pkg/logger/types"
	qr "github.com/kug-advocacy/kug-platform/pkg/qrcode"
)

type EventStorage interface {
	Create(ctx context.Context, event *entity.Event) (*entity.Event, error)
	Get(ctx context.Context, id string) (*entity.Event, error)
	GetAll(ctx context.Context, kugID string) ([]entity.Event, error)
	Update(ctx context.Context, event *entity.Event) (*entity.Event, error)
	CompleteEnded(ctx context.Context, before time.Time) (int64, error)
}

type EventAttendeeStorage interface {
	Register(ctx context.Context, eventID, userID string) (*entity.EventAttendee, error)
	Get(ctx context.Context, eventID, userID string) (*entity.EventAttendee, error)
	UpdateStatus(ctx context.Context, eventID, userID string, status entity.AttendeeStatus) error
	Delete(ctx context.Context, eventID, userID string) error
	CountByEventID(ctx context.Context, eventID string) (int64, error)
	GetByEventID(ctx context.Context, eventID string) ([]dto.EventAttendee, error)
}

type kugLister interface {
	Get(ctx context.Context, id string) (*entity.Kug, error)
	GetAll(ctx context.Context) ([]entity.Kug, error)
}

type EventService struct {
	eventStorage      EventStorage
	attendeeStorage   EventAttendeeStorage
	kugStorage        kugLister
	membershipStorage membershipRoleGetter
	qrConfig          qr.Config

	logger *types.Logger
}

func NewEventService(
	logger *types.Logger,
	eventStorage EventStorage,
	attendeeStorage EventAttendeeStorage,
	kugStorage kugLister,
	membershipStorage membershipRoleGetter,
	qrConfig qr.Config,
) *EventService {
	return &EventService{
		eventStorage:      eventStorage,
		attendeeStorage:   attendeeStorage,
		kugStorage:        kugStorage,
		membershipStorage: membershipStorage,
		qrConfig:          qrConfig,
		logger:            logger,
	}
}

func (s *EventService) detail(ctx context.Context, event entity.Event, kugName, viewerID string) (dto.Event, error) {
	count, err := s.attendeeStorage.CountByEventID(ctx, event.ID)
	if err != nil {
		return dto.Event{}, err
	}

	registered := false
	if viewerID != "" {
		attendee, err := s.attendeeStorage.Get(ctx, event.ID, viewerID)
		switch {
		case err == nil:
			registered = attendee.Status != entity.AttendeeCancelled
		case !errors.Is(err, errorz.ErrNotFound):
			return dto.Event{}, err
		}
	}
	return dto.NewEventFromEntity(event, kugName, count, registered), nil
}

// List returns events ordered by start time. viewerID, when set, fills
// IsRegistered.
func (s *EventService) List(ctx context.Context, kugID, viewerID string) ([]dto.Event, error) {
	if kugID != "" {
		if _, err := s.kugStorage.Get(ctx, kugID); err != nil {
			return nil, err
		}
	}

	events, err := s.eventStorage.GetAll(ctx, kugID)
	if err != nil {
		return nil, err
	}
	kugs, err := s.kugStorage.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(kugs))
	for _, k := range kugs {
		names[k.ID] = k.Name
	}

	result := make([]dto.Event, 0, len(events))
	for _, event := range events {
		detailed, err := s.detail(ctx, event, names[event.KugID], viewerID)
		if err != nil {
			return nil, err
		}
		result = append(result, detailed)
	}
	return result, nil
}

func (s *EventService) Get(ctx context.Context, id, viewerID string) (*dto.Event, error) {
	event, err := s.eventStorage.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	kug, err := s.kugStorage.Get(ctx, event.KugID)
	if err != nil {
		return nil, err
	}
	detailed, err := s.detail(ctx, *event, kug.Name, viewerID)
	if err != nil {
		return nil, err
	}
	return &detailed, nil
}

func (s *EventService) authorizeManage(ctx context.Context, actor policy.Actor, kugID string) error {
	membership, err := s.membershipStorage.Role(ctx, kugID, actor.UserID)
	if err != nil {
		return err
	}
	if !policy.Authorize(actor, policy.EventManage, policy.Resource{KugID: kugID, Membership: membership}) {
		return errorz.ErrForbidden
	}
	return nil
}

func (s *EventService) Create(ctx context.Context, actor policy.Actor, in dto.CreateEvent) (*entity.Event, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.kugStorage.Get(ctx, in.KugID); err != nil {
		return nil, err
	}
	if err := s.authorizeManage(ctx, actor, in.KugID); err != nil {
		return nil, err
	}

	event, err := s.eventStorage.Create(ctx, &entity.Event{
		KugID:        in.KugID,
		Title:        in.Title,
		Description:  in.Description,
		Location:     in.Location,
		Type:         in.Type,
		IsOnline:     in.IsOnline,
		MeetingLink:  in.MeetingLink,
		StartTime:    in.StartTime.UTC(),
		EndTime:      in.EndTime.UTC(),
		MaxAttendees: in.MaxAttendees,
		Status:       entity.EventUpcoming,
		Tags:         entity.StringList(in.Tags),
		CreatedBy:    actor.UserID,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("(user: %s) created event (event_id=%s, kug_id=%s)", actor.UserID, event.ID, event.KugID)
	return event, nil
}

func (s *EventService) Update(ctx context.Context, actor policy.Actor, id string, in dto.UpdateEvent) (*entity.Event, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	event, err := s.eventStorage.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = s.authorizeManage(ctx, actor, event.KugID); err != nil {
		return nil, err
	}

	if in.Title != nil {
		event.Title = *in.Title
	}
	if in.Description != nil {
		event.Description = *in.Description
	}
	if in.Location != nil {
		event.Location = *in.Location
	}
	if in.Type != nil {
		event.Type = *in.Type
	}
	if in.IsOnline != nil {
		event.IsOnline = *in.IsOnline
	}
	if in.MeetingLink != nil {
		event.MeetingLink = *in.MeetingLink
	}
	if in.StartTime != nil {
		event.StartTime = in.StartTime.UTC()
	}
	if in.EndTime != nil {
		event.EndTime = in.EndTime.UTC()
	}
	if in.MaxAttendees != nil {
		event.MaxAttendees = *in.MaxAttendees
	}
	if in.Status != nil {
		event.Status = entity.EventStatus(*in.Status)
	}
	if in.Tags != nil {
		event.Tags = entity.StringList(in.Tags)
	}
	if !event.EndTime.IsZero() && event.EndTime.Before(event.StartTime) {
		return nil, fmt.Errorf("%w: end_time is before start_time", errorz.ErrValidation)
	}

	return s.eventStorage.Update(ctx, event)
}

// Register RSVPs actor to an upcoming event.
func (s *EventService) Register(ctx context.Context, actor policy.Actor, id string) (*entity.EventAttendee, error) {
	event, err := s.eventStorage.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Status != entity.EventUpcoming || event.IsOver(0) {
		return nil, fmt.Errorf("%w: event is not open for registration", errorz.ErrValidation)
	}

	attendee, err := s.attendeeStorage.Register(ctx, id, actor.UserID)
	if err != nil {
		return nil, err
	}
	s.logger.Infof("(user: %s) registered for event (event_id=%s)", actor.UserID, id)
	return attendee, nil
}

func (s *EventService) Unregister(ctx context.Context, actor policy.Actor, id string) error {
	if err := s.attendeeStorage.Delete(ctx, id, actor.UserID); err != nil {
		return err
	}
	s.logger.Infof("(user: %s) unregistered from event (event_id=%s)", actor.UserID, id)
	return nil
}

func (s *EventService) Attendees(ctx context.Context, id string) ([]dto.EventAttendee, error) {
	if _, err := s.eventStorage.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.attendeeStorage.GetByEventID(ctx, id)
}

func (s *EventService) MarkAttendance(ctx context.Context, actor policy.Actor, eventID, userID string, in dto.MarkAttendance) error {
	if err := validator.Struct(in); err != nil {
		return err
	}
	event, err := s.eventStorage.Get(ctx, eventID)
	if err != nil {
		return err
	}
	if err = s.authorizeManage(ctx, actor, event.KugID); err != nil {
		return err
	}
	return s.attendeeStorage.UpdateStatus(ctx, eventID, userID, entity.AttendeeStatus(in.Status))
}

// ExportICS renders the events of one KUG, or of all KUGs, as iCalendar.
func (s *EventService) ExportICS(ctx context.Context, kugID string) ([]byte, error) {
	events, err := s.List(ctx, kugID, "")
	if err != nil {
		return nil, err
	}
	return calendar.ExportEventsToICS(events)
}

// ExportAttendees renders the attendee list as an XLSX workbook.
func (s *EventService) ExportAttendees(ctx context.Context, actor policy.Actor, id string) (*bytes.Buffer, error) {
	event, err := s.eventStorage.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = s.authorizeManage(ctx, actor, event.KugID); err != nil {
		return nil, err
	}
	attendees, err := s.attendeeStorage.GetByEventID(ctx, id)
	if err != nil {
		return nil, err
	}
	return attendeesToXLSX(event, attendees)
}

func attendeesToXLSX(event *entity.Event, attendees []dto.EventAttendee) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Sheet1"
	_ = f.SetCellValue(sheet, "A1", event.Title)
	_ = f.SetCellValue(sheet, "A2", "Name")
	_ = f.SetCellValue(sheet, "B2", "Email")
	_ = f.SetCellValue(sheet, "C2", "Status")
	_ = f.SetCellValue(sheet, "D2", "Registered at")
	for i, attendee := range attendees {
		row := strconv.Itoa(i + 3)
		_ = f.SetCellValue(sheet, "A"+row, attendee.Name)
		_ = f.SetCellValue(sheet, "B"+row, attendee.Email)
		_ = f.SetCellValue(sheet, "C"+row, string(attendee.Status))
		_ = f.SetCellValue(sheet, "D"+row, attendee.RegisteredAt.In(location.Location()).Format("2006-01-02 15:04"))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}

// CheckInQR renders the actor's check-in code for an event they registered for.
func (s *EventService) CheckInQR(ctx context.Context, actor policy.Actor, id string) ([]byte, error) {
	attendee, err := s.attendeeStorage.Get(ctx, id, actor.UserID)
	if err != nil {
		return nil, err
	}
	if attendee.Status == entity.AttendeeCancelled {
		return nil, errorz.ErrNotFound
	}

	cfg := s.qrConfig
	cfg.Content = fmt.Sprintf("kug-checkin:%s:%s", id, actor.UserID)
	return cfg.Generate()
}

// CompleteEnded closes every upcoming event whose end time has passed.
func (s *EventService) CompleteEnded(ctx context.Context) (int64, error) {
	n, err := s.eventStorage.CompleteEnded(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Infof("Marked %d events completed", n)
	}
	return n, nil
}

// StartStatusScheduler runs CompleteEnded every interval until ctx is done.
// The returned channel is closed once the scheduler has exited.
func (s *EventService) StartStatusScheduler(ctx context.Context, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	s.logger.Info("Starting event status scheduler")
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := s.CompleteEnded(ctx); err != nil && ctx.Err() == nil {
					s.logger.Errorf("failed to complete ended events: %v", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return done
}
