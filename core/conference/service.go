package conference

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/nexus-reussite/backend/core"
	"github.com/nexus-reussite/backend/core/notification"
)

var (
	// errors
	ErrNotFound  = errors.New("room not found")
	ErrOverlap   = errors.New("host already has a room scheduled in this time window")
	ErrRoomEnded = errors.New("room has ended")
	ErrNotHost   = errors.New("only the host may do this")
)

type (
	// TokenSigner issues join tokens for the external conference provider.
	TokenSigner interface {
		SignJoinToken(room Room, userID string) (string, error)
	}

	Repository interface {
		CreateRoom(room Room) (Room, error)
		GetRoomByID(id string) (Room, error)
		// FilterRooms applies AND operation on available QueryFilter fields.
		FilterRooms(filter QueryFilter) ([]Room, error)
		UpdateRoom(room Room) (Room, error)
		DeleteRoomsByID(ids ...string) error
	}

	Service struct {
		repo     Repository
		signer   TokenSigner
		notifier notification.Notifier
	}
)

func NewService(repo Repository, signer TokenSigner, notifier notification.Notifier) *Service {
	return &Service{repo: repo, signer: signer, notifier: notifier}
}

// Schedule books a room for a host, refusing windows that overlap one of the
// host's other non-ended rooms.
func (svc *Service) Schedule(hostID string, nr NewRoom) (Room, error) {
	existing, err := svc.repo.FilterRooms(QueryFilter{HostID: hostID})
	if err != nil {
		return Room{}, err
	}
	for _, room := range existing {
		if room.Status != StatusEnded && room.Overlaps(nr.ScheduledStart, nr.ScheduledEnd) {
			return Room{}, core.NewValidationError(ErrOverlap)
		}
	}

	now := time.Now().UTC()
	return svc.repo.CreateRoom(Room{
		Name:           nr.Name,
		HostID:         hostID,
		Subject:        nr.Subject,
		ScheduledStart: nr.ScheduledStart.UTC(),
		ScheduledEnd:   nr.ScheduledEnd.UTC(),
		Status:         StatusScheduled,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

func (svc *Service) GetByID(id string) (Room, error) {
	return svc.repo.GetRoomByID(id)
}

func (svc *Service) Filter(filter QueryFilter) ([]Room, error) {
	return svc.repo.FilterRooms(filter)
}

// Join records the participant and returns a signed join token.
func (svc *Service) Join(roomID, userID string) (Room, string, error) {
	room, err := svc.repo.GetRoomByID(roomID)
	if err != nil {
		return Room{}, "", err
	}
	if room.Status == StatusEnded {
		return Room{}, "", ErrRoomEnded
	}

	if !room.HasParticipant(userID) {
		room.ParticipantIDs = append(room.ParticipantIDs, userID)
		room.UpdatedAt = time.Now().UTC()
		if room, err = svc.repo.UpdateRoom(room); err != nil {
			return Room{}, "", err
		}
	}

	token, err := svc.signer.SignJoinToken(room, userID)
	if err != nil {
		return Room{}, "", errors.Wrap(err, "signing join token")
	}
	return room, token, nil
}

// Start marks the room live and notifies its participants.
func (svc *Service) Start(roomID, hostID string) (Room, error) {
	room, err := svc.repo.GetRoomByID(roomID)
	if err != nil {
		return Room{}, err
	}
	if room.HostID != hostID {
		return Room{}, ErrNotHost
	}
	if room.Status == StatusEnded {
		return Room{}, ErrRoomEnded
	}

	now := time.Now().UTC()
	room.Status = StatusLive
	room.StartedAt = now
	room.UpdatedAt = now
	if room, err = svc.repo.UpdateRoom(room); err != nil {
		return Room{}, err
	}

	for _, pid := range room.ParticipantIDs {
		svc.notifier.Publish(notification.Notification{
			UserID: pid,
			Kind:   notification.KindRoomStarted,
			Title:  "Votre séance commence",
			Body:   fmt.Sprintf("La salle « %s » est ouverte.", room.Name),
			Data:   map[string]string{"room_id": room.ID},
		})
	}
	return room, nil
}

func (svc *Service) End(roomID, hostID string) (Room, error) {
	room, err := svc.repo.GetRoomByID(roomID)
	if err != nil {
		return Room{}, err
	}
	if room.HostID != hostID {
		return Room{}, ErrNotHost
	}

	now := time.Now().UTC()
	room.Status = StatusEnded
	room.EndedAt = now
	room.UpdatedAt = now
	return svc.repo.UpdateRoom(room)
}

// hmacSigner is a development TokenSigner; production deployments plug the
// conference provider's own signer in.
type hmacSigner struct {
	secret []byte
}

func NewHMACSigner(secret string) TokenSigner {
	return &hmacSigner{secret: []byte(secret)}
}

func (s *hmacSigner) SignJoinToken(room Room, userID string) (string, error) {
	h := hmac.New(sha256.New, s.secret)
	if _, err := fmt.Fprintf(h, "%s:%s", room.ID, userID); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}
