package conference

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/nexus-reussite/backend/core"
	"github.com/nexus-reussite/backend/core/content"
)

// Status tracks a room through its lifecycle.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusLive      Status = "live"
	StatusEnded     Status = "ended"
)

// Room is the bookkeeping record of one video-conference session. The actual
// media transport and token signing live outside this core.
type Room struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	HostID         string          `json:"host_id"` // teacher account
	Subject        content.Subject `json:"subject"`
	ScheduledStart time.Time       `json:"scheduled_start"` // UTC
	ScheduledEnd   time.Time       `json:"scheduled_end"`   // UTC
	Status         Status          `json:"status"`
	ParticipantIDs []string        `json:"participant_ids"`
	StartedAt      time.Time       `json:"started_at,omitempty"`
	EndedAt        time.Time       `json:"ended_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"` // UTC
	UpdatedAt      time.Time       `json:"updated_at"` // UTC
}

func (r *Room) HasParticipant(userID string) bool {
	for _, id := range r.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Overlaps reports whether two scheduled windows intersect.
func (r *Room) Overlaps(start, end time.Time) bool {
	return r.ScheduledStart.Before(end) && start.Before(r.ScheduledEnd)
}

// NewRoom contains information needed to schedule a new Room.
type NewRoom struct {
	Name           string          `json:"name" validate:"required"`
	Subject        content.Subject `json:"subject" validate:"required,subject"`
	ScheduledStart time.Time       `json:"scheduled_start" validate:"required"`
	ScheduledEnd   time.Time       `json:"scheduled_end" validate:"required,gtfield=ScheduledStart"`
}

func (nr *NewRoom) Validate(validate *validator.Validate, translator ut.Translator) error {
	nr.Name = core.CleanString(nr.Name)
	return validate.Struct(nr)
}

// QueryFilter narrows a room search; set fields combine with AND.
type QueryFilter struct {
	HostID        string          `query:"host_id"`
	ParticipantID string          `query:"participant_id"`
	Subject       content.Subject `query:"subject"`
	Status        Status          `query:"status"`
	From          time.Time       `query:"from"` // ScheduledStart >= From
	To            time.Time       `query:"to"`   // ScheduledStart <= To
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.HostID == "" && qf.ParticipantID == "" && qf.Subject == "" &&
		qf.Status == "" && qf.From.IsZero() && qf.To.IsZero()
}
