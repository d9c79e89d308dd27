package content

import (
	"time"

	"github.com/pkg/errors"

	"github.com/nexus-reussite/backend/core"
)

var (
	// errors
	ErrNotFound = errors.New("brick not found")
)

type (
	// Repository gives durable storage and criteria-based retrieval of Bricks.
	Repository interface {
		// CreateBrick persists a new brick, assigning an ID if absent.
		CreateBrick(brick Brick) (Brick, error)
		GetBrickByID(id string) (Brick, error)
		// FilterBricks applies AND operation on available QueryFilter fields
		// (QueryFilter.Tags does an OR within itself). Results are sorted by
		// (average_rating, usage_count) descending before any limit applies.
		FilterBricks(filter QueryFilter) ([]Brick, error)
		// UpdateBrick merges set fields of `up` into the stored brick.
		UpdateBrick(id string, up UpdateBrick, updatedAt time.Time) (Brick, error)
		DeleteBricksByID(ids ...string) error
		// IncrementUsage bumps a brick's usage counter; unknown ids are a no-op.
		IncrementUsage(id string) error
		// UpdateRating folds a new rating halfway into the brick's
		// average, (old + new) / 2, and bumps TotalRatings.
		UpdateRating(id string, rating float64) (Brick, error)
		Stats() (Stats, error)
	}

	Service struct {
		repo   Repository
		conf   *core.Config
		logger core.Logger
	}
)

func NewService(repo Repository, conf *core.Config, logger core.Logger) *Service {
	return &Service{repo: repo, conf: conf, logger: logger}
}

func (svc *Service) Create(authorID, authorName string, nb NewBrick) (Brick, error) {
	now := time.Now().UTC()
	brick := Brick{
		Title:           nb.Title,
		Content:         nb.Content,
		Type:            nb.Type,
		Subject:         nb.Subject,
		Chapter:         nb.Chapter,
		Difficulty:      nb.Difficulty,
		TargetProfiles:  nb.TargetProfiles,
		LearningSteps:   nb.LearningSteps,
		Tags:            nb.Tags,
		Prerequisites:   nb.Prerequisites,
		DurationMinutes: nb.DurationMinutes,
		AuthorID:        authorID,
		AuthorName:      authorName,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return svc.repo.CreateBrick(brick)
}

func (svc *Service) GetByID(id string) (Brick, error) {
	return svc.repo.GetBrickByID(id)
}

func (svc *Service) Filter(filter QueryFilter) ([]Brick, error) {
	filter.Clean()
	return svc.repo.FilterBricks(filter)
}

func (svc *Service) Update(id string, ub UpdateBrick) (Brick, error) {
	return svc.repo.UpdateBrick(id, ub, time.Now().UTC())
}

func (svc *Service) Delete(ids ...string) error {
	return svc.repo.DeleteBricksByID(ids...)
}

func (svc *Service) Rate(id string, nr NewRating) (Brick, error) {
	return svc.repo.UpdateRating(id, nr.Rating)
}

func (svc *Service) Stats() (Stats, error) {
	return svc.repo.Stats()
}
