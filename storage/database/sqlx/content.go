package sqlxrepos

import (
	"database/sql"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/nexus-reussite/backend/core"
	"github.com/nexus-reussite/backend/core/content"
)

const brickTable = "brick"

var brickColumns = []string{
	"id", "title", "content", "type", "subject", "chapter", "difficulty",
	"target_profiles", "learning_steps", "tags", "prerequisites",
	"duration_minutes", "author_id", "author_name",
	"usage_count", "average_rating", "total_ratings", "created_at", "updated_at",
}

type brickRow struct {
	ID              string         `db:"id"`
	Title           string         `db:"title"`
	Content         string         `db:"content"`
	Type            string         `db:"type"`
	Subject         string         `db:"subject"`
	Chapter         string         `db:"chapter"`
	Difficulty      int            `db:"difficulty"`
	TargetProfiles  pq.StringArray `db:"target_profiles"`
	LearningSteps   pq.StringArray `db:"learning_steps"`
	Tags            pq.StringArray `db:"tags"`
	Prerequisites   pq.StringArray `db:"prerequisites"`
	DurationMinutes int            `db:"duration_minutes"`
	AuthorID        string         `db:"author_id"`
	AuthorName      string         `db:"author_name"`
	UsageCount      int            `db:"usage_count"`
	AverageRating   float64        `db:"average_rating"`
	TotalRatings    int            `db:"total_ratings"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (r *brickRow) toBrick() content.Brick {
	profiles := make([]content.Profile, 0, len(r.TargetProfiles))
	for _, p := range r.TargetProfiles {
		profiles = append(profiles, content.Profile(p))
	}
	steps := make([]content.LearningStep, 0, len(r.LearningSteps))
	for _, s := range r.LearningSteps {
		steps = append(steps, content.LearningStep(s))
	}
	return content.Brick{
		ID:              r.ID,
		Title:           r.Title,
		Content:         r.Content,
		Type:            content.BrickType(r.Type),
		Subject:         content.Subject(r.Subject),
		Chapter:         r.Chapter,
		Difficulty:      r.Difficulty,
		TargetProfiles:  profiles,
		LearningSteps:   steps,
		Tags:            r.Tags,
		Prerequisites:   r.Prerequisites,
		DurationMinutes: r.DurationMinutes,
		AuthorID:        r.AuthorID,
		AuthorName:      r.AuthorName,
		UsageCount:      r.UsageCount,
		AverageRating:   r.AverageRating,
		TotalRatings:    r.TotalRatings,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func profileStrings(profiles []content.Profile) pq.StringArray {
	out := make(pq.StringArray, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, string(p))
	}
	return out
}

func stepStrings(steps []content.LearningStep) pq.StringArray {
	out := make(pq.StringArray, 0, len(steps))
	for _, s := range steps {
		out = append(out, string(s))
	}
	return out
}

type brickRepository struct {
	db *sqlx.DB
}

var _ content.Repository = (*brickRepository)(nil) // interface compliance check

func NewBrickRepository(db *sqlx.DB) *brickRepository {
	return &brickRepository{db: db}
}

func (repo brickRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return content.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo brickRepository) CreateBrick(brick content.Brick) (content.Brick, error) {
	if brick.ID == "" {
		brick.ID = uuid.New().String()
	}

	query, args, err := psql.Insert(brickTable).
		Columns(brickColumns...).
		Values(
			brick.ID, brick.Title, brick.Content, string(brick.Type), string(brick.Subject),
			brick.Chapter, brick.Difficulty,
			profileStrings(brick.TargetProfiles), stepStrings(brick.LearningSteps),
			pq.StringArray(brick.Tags), pq.StringArray(brick.Prerequisites),
			brick.DurationMinutes, brick.AuthorID, brick.AuthorName,
			brick.UsageCount, brick.AverageRating, brick.TotalRatings,
			brick.CreatedAt.UTC(), brick.UpdatedAt.UTC(),
		).
		ToSql()
	if err != nil {
		return content.Brick{}, errors.Wrap(err, "building brick insert")
	}
	if _, err = repo.db.Exec(query, args...); err != nil {
		return content.Brick{}, core.NewStorageError("inserting brick", err)
	}
	return brick, nil
}

func (repo brickRepository) GetBrickByID(id string) (content.Brick, error) {
	query, args, err := psql.Select(brickColumns...).From(brickTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return content.Brick{}, errors.Wrap(err, "building brick query")
	}
	var row brickRow
	if err = repo.db.Get(&row, query, args...); err != nil {
		return content.Brick{}, repo.trapNoRowsErr(err, "getting brick by id")
	}
	return row.toBrick(), nil
}

func (repo brickRepository) FilterBricks(filter content.QueryFilter) ([]content.Brick, error) {
	qb := psql.Select(brickColumns...).From(brickTable)
	if filter.Subject != "" {
		qb = qb.Where(sq.Eq{"subject": string(filter.Subject)})
	}
	if filter.Chapter != "" {
		qb = qb.Where(sq.Eq{"lower(chapter)": strings.ToLower(filter.Chapter)})
	}
	if filter.Type != "" {
		qb = qb.Where(sq.Eq{"type": string(filter.Type)})
	}
	if filter.DifficultyMin > 0 {
		qb = qb.Where(sq.GtOrEq{"difficulty": filter.DifficultyMin})
	}
	if filter.DifficultyMax > 0 {
		qb = qb.Where(sq.LtOrEq{"difficulty": filter.DifficultyMax})
	}
	if filter.TargetProfile != "" {
		qb = qb.Where("target_profiles @> ?", pq.StringArray{string(filter.TargetProfile)})
	}
	if filter.LearningStep != "" {
		qb = qb.Where("learning_steps @> ?", pq.StringArray{string(filter.LearningStep)})
	}
	if len(filter.Tags) > 0 {
		// overlap: brick matches if it carries any of the requested tags
		qb = qb.Where("tags && ?", pq.StringArray(filter.Tags))
	}

	// created_at/id break (rating, usage) ties so that equal pools always
	// come back in the same order.
	qb = qb.OrderBy("average_rating DESC", "usage_count DESC", "created_at ASC", "id ASC")
	if filter.Limit > 0 {
		qb = qb.Limit(uint64(filter.Limit))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building brick filter")
	}
	var rows []brickRow
	if err = repo.db.Select(&rows, query, args...); err != nil {
		return nil, core.NewStorageError("filtering bricks", err)
	}
	bricks := make([]content.Brick, 0, len(rows))
	for i := range rows {
		bricks = append(bricks, rows[i].toBrick())
	}
	return bricks, nil
}

func (repo brickRepository) UpdateBrick(id string, up content.UpdateBrick, updatedAt time.Time) (content.Brick, error) {
	qb := psql.Update(brickTable).Where(sq.Eq{"id": id}).Set("updated_at", updatedAt.UTC())
	if up.Title != "" {
		qb = qb.Set("title", up.Title)
	}
	if up.Content != "" {
		qb = qb.Set("content", up.Content)
	}
	if up.Chapter != "" {
		qb = qb.Set("chapter", up.Chapter)
	}
	if up.Type != "" {
		qb = qb.Set("type", string(up.Type))
	}
	if up.Difficulty != nil {
		qb = qb.Set("difficulty", *up.Difficulty)
	}
	if up.TargetProfiles != nil {
		qb = qb.Set("target_profiles", profileStrings(up.TargetProfiles))
	}
	if up.LearningSteps != nil {
		qb = qb.Set("learning_steps", stepStrings(up.LearningSteps))
	}
	if up.Tags != nil {
		qb = qb.Set("tags", pq.StringArray(up.Tags))
	}
	if up.Prerequisites != nil {
		qb = qb.Set("prerequisites", pq.StringArray(up.Prerequisites))
	}
	if up.DurationMinutes != nil {
		qb = qb.Set("duration_minutes", *up.DurationMinutes)
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return content.Brick{}, errors.Wrap(err, "building brick update")
	}
	res, err := repo.db.Exec(query, args...)
	if err != nil {
		return content.Brick{}, core.NewStorageError("updating brick", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return content.Brick{}, content.ErrNotFound
	}
	return repo.GetBrickByID(id)
}

func (repo brickRepository) DeleteBricksByID(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := psql.Delete(brickTable).Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building brick delete")
	}
	if _, err = repo.db.Exec(query, args...); err != nil {
		return core.NewStorageError("deleting bricks", err)
	}
	return nil
}

func (repo brickRepository) IncrementUsage(id string) error {
	// unknown ids simply affect zero rows
	query, args, err := psql.Update(brickTable).
		Set("usage_count", sq.Expr("usage_count + 1")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building usage update")
	}
	if _, err = repo.db.Exec(query, args...); err != nil {
		return core.NewStorageError("incrementing brick usage", err)
	}
	return nil
}

func (repo brickRepository) UpdateRating(id string, rating float64) (content.Brick, error) {
	query, args, err := psql.Update(brickTable).
		Set("average_rating", sq.Expr("(average_rating + ?) / 2", rating)).
		Set("total_ratings", sq.Expr("total_ratings + 1")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return content.Brick{}, errors.Wrap(err, "building rating update")
	}
	res, err := repo.db.Exec(query, args...)
	if err != nil {
		return content.Brick{}, core.NewStorageError("updating brick rating", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return content.Brick{}, content.ErrNotFound
	}
	return repo.GetBrickByID(id)
}

func (repo brickRepository) Stats() (content.Stats, error) {
	stats := content.Stats{
		BySubject:    make(map[content.Subject]int),
		ByType:       make(map[content.BrickType]int),
		ByDifficulty: make(map[int]int),
	}

	var aggs []struct {
		Subject    string `db:"subject"`
		Type       string `db:"type"`
		Difficulty int    `db:"difficulty"`
		Count      int    `db:"count"`
	}
	query, args, err := psql.Select("subject", "type", "difficulty", "COUNT(*) AS count").
		From(brickTable).
		GroupBy("subject", "type", "difficulty").
		ToSql()
	if err != nil {
		return content.Stats{}, errors.Wrap(err, "building stats query")
	}
	if err = repo.db.Select(&aggs, query, args...); err != nil {
		return content.Stats{}, core.NewStorageError("querying brick stats", err)
	}

	for _, agg := range aggs {
		stats.Total += agg.Count
		stats.BySubject[content.Subject(agg.Subject)] += agg.Count
		stats.ByType[content.BrickType(agg.Type)] += agg.Count
		stats.ByDifficulty[agg.Difficulty] += agg.Count
	}
	return stats, nil
}
