package event

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kug-advocacy/kug-platform/cmd/server"
	"github.com/kug-advocacy/kug-platform/internal/adapters/controller/http/handlers/middlewares"
	"github.com/kug-advocacy/kug-platform/internal/adapters/controller/http/respond"
	"github.com/kug-advocacy/kug-platform/internal/domain/dto"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
	"github.com/kug-advocacy/kug-platform/internal/domain/policy"
	"github.com/kug-advocacy/kug-platform/pkg/logger/types"
)

type eventService interface {
	List(ctx context.Context, kugID, viewerID string) ([]dto.Event, error)
	Get(ctx context.Context, id, viewerID string) (*dto.Event, error)
	Create(ctx context.Context, actor policy.Actor, in dto.CreateEvent) (*entity.Event, error)
	Update(ctx context.Context, actor policy.Actor, id string, in dto.UpdateEvent) (*entity.Event, error)
	Register(ctx context.Context, actor policy.Actor, id string) (*entity.EventAttendee, error)
	Unregister(ctx context.Context, actor policy.Actor, id string) error
	Attendees(ctx context.Context, id string) ([]dto.EventAttendee, error)
	MarkAttendance(ctx context.Context, actor policy.Actor, eventID, userID string, in dto.MarkAttendance) error
	ExportICS(ctx context.Context, kugID string) ([]byte, error)
	ExportAttendees(ctx context.Context, actor policy.Actor, id string) (*bytes.Buffer, error)
	CheckInQR(ctx context.Context, actor policy.Actor, id string) ([]byte, error)
}

type Handler struct {
	logger *types.Logger

	eventService eventService
}

func New(s *server.Server) *Handler {
	return &Handler{
		logger:       s.Named("events"),
		eventService: s.EventService(),
	}
}

func (h Handler) Setup(r chi.Router, middle *middlewares.Handler) {
	r.Get("/calendar.ics", h.calendar)
	r.Get("/{id}/attendees", h.attendees)

	r.Group(func(r chi.Router) {
		r.Use(middle.OptionalAuth)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})

	r.Group(func(r chi.Router) {
		r.Use(middle.Authenticated)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Post("/{id}/register", h.register)
		r.Delete("/{id}/register", h.unregister)
		r.Put("/{id}/attendees/{userID}", h.markAttendance)
		r.Get("/{id}/attendees.xlsx", h.exportAttendees)
		r.Get("/{id}/qr", h.checkInQR)
	})
}

func (h Handler) list(w http.ResponseWriter, r *http.Request) {
	kugID, err := respond.QueryID(r, "kug_id")
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	events, err := h.eventService.List(r.Context(), kugID, middlewares.Actor(r).UserID)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, events)
}

func (h Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	event, err := h.eventService.Get(r.Context(), id, middlewares.Actor(r).UserID)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, event)
}

func (h Handler) create(w http.ResponseWriter, r *http.Request) {
	var in dto.CreateEvent
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	event, err := h.eventService.Create(r.Context(), middlewares.Actor(r), in)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.Created(w, event)
}

func (h Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	var in dto.UpdateEvent
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	event, err := h.eventService.Update(r.Context(), middlewares.Actor(r), id, in)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, event)
}

func (h Handler) register(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	attendee, err := h.eventService.Register(r.Context(), middlewares.Actor(r), id)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.Created(w, attendee)
}

func (h Handler) unregister(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	if err := h.eventService.Unregister(r.Context(), middlewares.Actor(r), id); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, nil)
}

func (h Handler) attendees(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	attendees, err := h.eventService.Attendees(r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, attendees)
}

func (h Handler) markAttendance(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := respond.ID(w, r, "userID")
	if !ok {
		return
	}
	var in dto.MarkAttendance
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	if err := h.eventService.MarkAttendance(r.Context(), middlewares.Actor(r), id, userID, in); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, nil)
}

func (h Handler) calendar(w http.ResponseWriter, r *http.Request) {
	kugID, err := respond.QueryID(r, "kug_id")
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	ics, err := h.eventService.ExportICS(r.Context(), kugID)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.Attachment(w, "text/calendar; charset=utf-8", "events.ics", ics)
}

func (h Handler) exportAttendees(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	buf, err := h.eventService.ExportAttendees(r.Context(), middlewares.Actor(r), id)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.Attachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", fmt.Sprintf("attendees-%s.xlsx", id), buf.Bytes())
}

func (h Handler) checkInQR(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.ID(w, r, "id")
	if !ok {
		return
	}
	png, err := h.eventService.CheckInQR(r.Context(), middlewares.Actor(r), id)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.Attachment(w, "image/png", "", png)
}
