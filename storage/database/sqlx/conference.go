package sqlxrepos

import (
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/nexus-reussite/backend/core"
	"github.com/nexus-reussite/backend/core/conference"
	"github.com/nexus-reussite/backend/core/content"
)

const roomTable = "room"

var roomColumns = []string{
	"id", "name", "host_id", "subject", "scheduled_start", "scheduled_end",
	"status", "participant_ids", "started_at", "ended_at", "created_at", "updated_at",
}

type roomRow struct {
	ID             string         `db:"id"`
	Name           string         `db:"name"`
	HostID         string         `db:"host_id"`
	Subject        string         `db:"subject"`
	ScheduledStart time.Time      `db:"scheduled_start"`
	ScheduledEnd   time.Time      `db:"scheduled_end"`
	Status         string         `db:"status"`
	ParticipantIDs pq.StringArray `db:"participant_ids"`
	StartedAt      null.Time      `db:"started_at"`
	EndedAt        null.Time      `db:"ended_at"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (r *roomRow) toRoom() conference.Room {
	return conference.Room{
		ID:             r.ID,
		Name:           r.Name,
		HostID:         r.HostID,
		Subject:        content.Subject(r.Subject),
		ScheduledStart: r.ScheduledStart,
		ScheduledEnd:   r.ScheduledEnd,
		Status:         conference.Status(r.Status),
		ParticipantIDs: r.ParticipantIDs,
		StartedAt:      r.StartedAt.Time,
		EndedAt:        r.EndedAt.Time,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type roomRepository struct {
	db *sqlx.DB
}

var _ conference.Repository = (*roomRepository)(nil) // interface compliance check

func NewRoomRepository(db *sqlx.DB) *roomRepository {
	return &roomRepository{db: db}
}

func (repo roomRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return conference.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo roomRepository) CreateRoom(room conference.Room) (conference.Room, error) {
	if room.ID == "" {
		room.ID = uuid.New().String()
	}

	query, args, err := psql.Insert(roomTable).
		Columns(roomColumns...).
		Values(
			room.ID, room.Name, room.HostID, string(room.Subject),
			room.ScheduledStart.UTC(), room.ScheduledEnd.UTC(), string(room.Status),
			pq.StringArray(room.ParticipantIDs),
			null.NewTime(room.StartedAt.UTC(), !room.StartedAt.IsZero()),
			null.NewTime(room.EndedAt.UTC(), !room.EndedAt.IsZero()),
			room.CreatedAt.UTC(), room.UpdatedAt.UTC(),
		).
		ToSql()
	if err != nil {
		return conference.Room{}, errors.Wrap(err, "building room insert")
	}
	if _, err = repo.db.Exec(query, args...); err != nil {
		return conference.Room{}, core.NewStorageError("inserting room", err)
	}
	return room, nil
}

func (repo roomRepository) GetRoomByID(id string) (conference.Room, error) {
	query, args, err := psql.Select(roomColumns...).From(roomTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return conference.Room{}, errors.Wrap(err, "building room query")
	}
	var row roomRow
	if err = repo.db.Get(&row, query, args...); err != nil {
		return conference.Room{}, repo.trapNoRowsErr(err, "getting room by id")
	}
	return row.toRoom(), nil
}

func (repo roomRepository) FilterRooms(filter conference.QueryFilter) ([]conference.Room, error) {
	qb := psql.Select(roomColumns...).From(roomTable)
	if filter.HostID != "" {
		qb = qb.Where(sq.Eq{"host_id": filter.HostID})
	}
	if filter.ParticipantID != "" {
		qb = qb.Where("participant_ids @> ?", pq.StringArray{filter.ParticipantID})
	}
	if filter.Subject != "" {
		qb = qb.Where(sq.Eq{"subject": string(filter.Subject)})
	}
	if filter.Status != "" {
		qb = qb.Where(sq.Eq{"status": string(filter.Status)})
	}
	if !filter.From.IsZero() {
		qb = qb.Where(sq.GtOrEq{"scheduled_start": filter.From.UTC()})
	}
	if !filter.To.IsZero() {
		qb = qb.Where(sq.LtOrEq{"scheduled_start": filter.To.UTC()})
	}

	query, args, err := qb.OrderBy("scheduled_start ASC", "id ASC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building room filter")
	}
	var rows []roomRow
	if err = repo.db.Select(&rows, query, args...); err != nil {
		return nil, core.NewStorageError("filtering rooms", err)
	}
	rooms := make([]conference.Room, 0, len(rows))
	for i := range rows {
		rooms = append(rooms, rows[i].toRoom())
	}
	return rooms, nil
}

func (repo roomRepository) UpdateRoom(room conference.Room) (conference.Room, error) {
	query, args, err := psql.Update(roomTable).
		Set("name", room.Name).
		Set("status", string(room.Status)).
		Set("participant_ids", pq.StringArray(room.ParticipantIDs)).
		Set("scheduled_start", room.ScheduledStart.UTC()).
		Set("scheduled_end", room.ScheduledEnd.UTC()).
		Set("started_at", null.NewTime(room.StartedAt.UTC(), !room.StartedAt.IsZero())).
		Set("ended_at", null.NewTime(room.EndedAt.UTC(), !room.EndedAt.IsZero())).
		Set("updated_at", room.UpdatedAt.UTC()).
		Where(sq.Eq{"id": room.ID}).
		ToSql()
	if err != nil {
		return conference.Room{}, errors.Wrap(err, "building room update")
	}
	res, err := repo.db.Exec(query, args...)
	if err != nil {
		return conference.Room{}, core.NewStorageError("updating room", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return conference.Room{}, conference.ErrNotFound
	}
	return repo.GetRoomByID(room.ID)
}

func (repo roomRepository) DeleteRoomsByID(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := psql.Delete(roomTable).Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building room delete")
	}
	if _, err = repo.db.Exec(query, args...); err != nil {
		return core.NewStorageError("deleting rooms", err)
	}
	return nil
}
