package inmemdb

import (
	"sort"

	"github.com/google/uuid"

	"github.com/nexus-reussite/backend/core/conference"
)

type roomRepository struct {
	db *roomTable
}

var _ conference.Repository = (*roomRepository)(nil)

func NewRoomRepository(db *DB) conference.Repository {
	return &roomRepository{db: db.room}
}

func (repo *roomRepository) CreateRoom(room conference.Room) (conference.Room, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if room.ID == "" {
		room.ID = uuid.New().String()
	}
	repo.db.table[room.ID] = &room
	return room, nil
}

func (repo *roomRepository) GetRoomByID(id string) (conference.Room, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if room, ok := repo.db.table[id]; ok {
		return *room, nil
	}
	return conference.Room{}, conference.ErrNotFound
}

func (repo *roomRepository) FilterRooms(filter conference.QueryFilter) ([]conference.Room, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var rooms []conference.Room
	for _, room := range repo.db.table {
		if filter.HostID != "" && room.HostID != filter.HostID {
			continue
		}
		if filter.ParticipantID != "" && !room.HasParticipant(filter.ParticipantID) {
			continue
		}
		if filter.Subject != "" && room.Subject != filter.Subject {
			continue
		}
		if filter.Status != "" && room.Status != filter.Status {
			continue
		}
		if !filter.From.IsZero() && room.ScheduledStart.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && room.ScheduledStart.After(filter.To) {
			continue
		}
		rooms = append(rooms, *room)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ScheduledStart.Before(rooms[j].ScheduledStart) })
	return rooms, nil
}

func (repo *roomRepository) UpdateRoom(room conference.Room) (conference.Room, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[room.ID]; !ok {
		return conference.Room{}, conference.ErrNotFound
	}
	repo.db.table[room.ID] = &room
	return room, nil
}

func (repo *roomRepository) DeleteRoomsByID(ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
