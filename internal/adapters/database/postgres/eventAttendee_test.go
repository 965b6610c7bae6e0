package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kug-advocacy/kug-platform/internal/domain/common/errorz"
	"github.com/kug-advocacy/kug-platform/internal/domain/entity"
)

func TestEventAttendeeStorage_Register(t *testing.T) {
	f := newFixture(t)
	events := NewEventStorage(f.db)
	s := NewEventAttendeeStorage(f.db)
	kug := f.kug("Berlin KUG")
	ann := f.user("ann")
	bob := f.user("bob")

	event, err := events.Create(f.ctx, &entity.Event{
		KugID:        kug.ID,
		Title:        "Kotlin night",
		StartTime:    time.Now().Add(24 * time.Hour),
		EndTime:      time.Now().Add(26 * time.Hour),
		MaxAttendees: 1,
		Status:       entity.EventUpcoming,
	})
	require.NoError(t, err)

	_, err = s.Register(f.ctx, event.ID, ann.ID)
	require.NoError(t, err)

	_, err = s.Register(f.ctx, event.ID, ann.ID)
	assert.ErrorIs(t, err, errorz.ErrAlreadyExists)

	_, err = s.Register(f.ctx, event.ID, bob.ID)
	assert.ErrorIs(t, err, errorz.ErrEventFull)

	_, err = s.Register(f.ctx, "8a4f1a8e-0000-4000-8000-000000000000", bob.ID)
	assert.ErrorIs(t, err, errorz.ErrNotFound)

	require.NoError(t, s.UpdateStatus(f.ctx, event.ID, ann.ID, entity.AttendeeCancelled))
	count, err := s.CountByEventID(f.ctx, event.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	attendee, err := s.Register(f.ctx, event.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AttendeeRegistered, attendee.Status)

	list, err := s.GetByEventID(f.ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, s.Delete(f.ctx, event.ID, bob.ID))
	assert.ErrorIs(t, s.Delete(f.ctx, event.ID, bob.ID), errorz.ErrNotFound)
}
