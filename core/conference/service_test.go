package conference_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-reussite/backend/core"
	"github.com/nexus-reussite/backend/core/conference"
	"github.com/nexus-reussite/backend/core/content"
	"github.com/nexus-reussite/backend/core/notification"
	inmemdb "github.com/nexus-reussite/backend/storage/database/inmem"
)

func newTestService(t *testing.T) (*conference.Service, *notification.Hub) {
	db, err := inmemdb.Open()
	require.NoError(t, err)
	hub := notification.NewHub()
	svc := conference.NewService(inmemdb.NewRoomRepository(db), conference.NewHMACSigner("secret"), hub)
	return svc, hub
}

func newRoom(start, end time.Time) conference.NewRoom {
	return conference.NewRoom{
		Name:           "Révisions bac blanc",
		Subject:        content.SubjectMathematics,
		ScheduledStart: start,
		ScheduledEnd:   end,
	}
}

func TestService_Schedule(t *testing.T) {
	svc, _ := newTestService(t)
	start := time.Now().UTC().Add(time.Hour)
	end := start.Add(time.Hour)

	room, err := svc.Schedule("host-1", newRoom(start, end))
	require.NoError(t, err)
	assert.NotEmpty(t, room.ID)
	assert.Equal(t, conference.StatusScheduled, room.Status)
	assert.Equal(t, "host-1", room.HostID)

	t.Run("overlapping window is refused", func(t *testing.T) {
		_, err := svc.Schedule("host-1", newRoom(start.Add(30*time.Minute), end.Add(30*time.Minute)))
		vErr, ok := err.(*core.ValidationError)
		require.True(t, ok, "expected a validation error, got %v", err)
		assert.Equal(t, conference.ErrOverlap, vErr.Err)
	})

	t.Run("adjacent window is fine", func(t *testing.T) {
		_, err := svc.Schedule("host-1", newRoom(end, end.Add(time.Hour)))
		assert.NoError(t, err)
	})

	t.Run("other hosts are unaffected", func(t *testing.T) {
		_, err := svc.Schedule("host-2", newRoom(start, end))
		assert.NoError(t, err)
	})

	t.Run("ended rooms do not block the window", func(t *testing.T) {
		_, err := svc.End(room.ID, "host-1")
		require.NoError(t, err)

		_, err = svc.Schedule("host-1", newRoom(start, end))
		assert.NoError(t, err)
	})
}

func TestService_Join(t *testing.T) {
	svc, _ := newTestService(t)
	start := time.Now().UTC().Add(time.Hour)
	room, err := svc.Schedule("host-1", newRoom(start, start.Add(time.Hour)))
	require.NoError(t, err)

	joined, token, err := svc.Join(room.ID, "student-1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, []string{"student-1"}, joined.ParticipantIDs)

	// joining twice does not duplicate the participant
	joined, token2, err := svc.Join(room.ID, "student-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"student-1"}, joined.ParticipantIDs)
	assert.Equal(t, token, token2, "join tokens are deterministic per room and user")

	_, _, err = svc.Join("nope", "student-1")
	assert.Equal(t, conference.ErrNotFound, err)

	t.Run("ended room refuses joins", func(t *testing.T) {
		_, err := svc.End(room.ID, "host-1")
		require.NoError(t, err)

		_, _, err = svc.Join(room.ID, "student-2")
		assert.Equal(t, conference.ErrRoomEnded, err)
	})
}

func TestService_StartEnd(t *testing.T) {
	svc, hub := newTestService(t)
	start := time.Now().UTC().Add(time.Hour)
	room, err := svc.Schedule("host-1", newRoom(start, start.Add(time.Hour)))
	require.NoError(t, err)
	_, _, err = svc.Join(room.ID, "student-1")
	require.NoError(t, err)

	_, err = svc.Start(room.ID, "intruder")
	assert.Equal(t, conference.ErrNotHost, err)

	live, err := svc.Start(room.ID, "host-1")
	require.NoError(t, err)
	assert.Equal(t, conference.StatusLive, live.Status)
	assert.False(t, live.StartedAt.IsZero())

	// participants were notified
	recent := hub.Recent("student-1", 0)
	require.Len(t, recent, 1)
	assert.Equal(t, notification.KindRoomStarted, recent[0].Kind)
	assert.Equal(t, room.ID, recent[0].Data["room_id"])

	_, err = svc.End(room.ID, "intruder")
	assert.Equal(t, conference.ErrNotHost, err)

	ended, err := svc.End(room.ID, "host-1")
	require.NoError(t, err)
	assert.Equal(t, conference.StatusEnded, ended.Status)
	assert.False(t, ended.EndedAt.IsZero())

	_, err = svc.Start(room.ID, "host-1")
	assert.Equal(t, conference.ErrRoomEnded, err)
}

func TestService_Filter(t *testing.T) {
	svc, _ := newTestService(t)
	now := time.Now().UTC()

	early, err := svc.Schedule("host-1", newRoom(now.Add(time.Hour), now.Add(2*time.Hour)))
	require.NoError(t, err)
	late, err := svc.Schedule("host-1", newRoom(now.Add(5*time.Hour), now.Add(6*time.Hour)))
	require.NoError(t, err)
	_, err = svc.Schedule("host-2", newRoom(now.Add(time.Hour), now.Add(2*time.Hour)))
	require.NoError(t, err)
	_, _, err = svc.Join(late.ID, "student-1")
	require.NoError(t, err)

	byHost, err := svc.Filter(conference.QueryFilter{HostID: "host-1"})
	require.NoError(t, err)
	require.Len(t, byHost, 2)
	// sorted by scheduled start
	assert.Equal(t, early.ID, byHost[0].ID)
	assert.Equal(t, late.ID, byHost[1].ID)

	byParticipant, err := svc.Filter(conference.QueryFilter{ParticipantID: "student-1"})
	require.NoError(t, err)
	require.Len(t, byParticipant, 1)
	assert.Equal(t, late.ID, byParticipant[0].ID)

	window, err := svc.Filter(conference.QueryFilter{From: now.Add(4 * time.Hour), To: now.Add(7 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, late.ID, window[0].ID)
}
