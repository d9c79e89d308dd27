package inmemdb

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nexus-reussite/backend/core/content"
)

type brickRepository struct {
	db *brickTable
}

var _ content.Repository = (*brickRepository)(nil)

func NewBrickRepository(db *DB) content.Repository {
	return &brickRepository{db: db.brick}
}

// query returns all bricks sorted by (average_rating, usage_count) descending,
// with (created_at, id) as deterministic tie-breakers.
func (repo *brickRepository) query() []content.Brick {
	bricks := make([]content.Brick, 0, len(repo.db.table))
	for _, b := range repo.db.table {
		bricks = append(bricks, *b)
	}
	sort.Slice(bricks, func(i, j int) bool {
		bi, bj := bricks[i], bricks[j]
		if bi.AverageRating != bj.AverageRating {
			return bi.AverageRating > bj.AverageRating
		}
		if bi.UsageCount != bj.UsageCount {
			return bi.UsageCount > bj.UsageCount
		}
		if !bi.CreatedAt.Equal(bj.CreatedAt) {
			return bi.CreatedAt.Before(bj.CreatedAt)
		}
		return bi.ID < bj.ID
	})
	return bricks
}

func (repo *brickRepository) CreateBrick(brick content.Brick) (content.Brick, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if brick.ID == "" {
		brick.ID = uuid.New().String()
	}
	repo.db.table[brick.ID] = &brick
	return brick, nil
}

func (repo *brickRepository) GetBrickByID(id string) (content.Brick, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if b, ok := repo.db.table[id]; ok {
		return *b, nil
	}
	return content.Brick{}, content.ErrNotFound
}

func (repo *brickRepository) FilterBricks(filter content.QueryFilter) ([]content.Brick, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var bricks []content.Brick
	for _, b := range repo.query() {
		if !matchesFilter(b, filter) {
			continue
		}
		bricks = append(bricks, b)
		if filter.Limit > 0 && len(bricks) >= filter.Limit {
			break
		}
	}
	return bricks, nil
}

func matchesFilter(b content.Brick, filter content.QueryFilter) bool {
	if filter.Subject != "" && b.Subject != filter.Subject {
		return false
	}
	if filter.Chapter != "" && !strings.EqualFold(b.Chapter, filter.Chapter) {
		return false
	}
	if filter.Type != "" && b.Type != filter.Type {
		return false
	}
	if filter.DifficultyMin > 0 && b.Difficulty < filter.DifficultyMin {
		return false
	}
	if filter.DifficultyMax > 0 && b.Difficulty > filter.DifficultyMax {
		return false
	}
	if filter.TargetProfile != "" && !b.HasProfile(filter.TargetProfile) {
		return false
	}
	if filter.LearningStep != "" && !b.HasLearningStep(filter.LearningStep) {
		return false
	}
	if len(filter.Tags) > 0 {
		// OR within the tags filter
		var hit bool
		for _, tag := range filter.Tags {
			if b.HasTag(tag) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func (repo *brickRepository) UpdateBrick(id string, up content.UpdateBrick, updatedAt time.Time) (content.Brick, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[id]
	if !ok {
		return content.Brick{}, content.ErrNotFound
	}
	// only save set fields
	if up.Title != "" {
		orig.Title = up.Title
	}
	if up.Content != "" {
		orig.Content = up.Content
	}
	if up.Chapter != "" {
		orig.Chapter = up.Chapter
	}
	if up.Type != "" {
		orig.Type = up.Type
	}
	if up.Difficulty != nil {
		orig.Difficulty = *up.Difficulty
	}
	if up.TargetProfiles != nil {
		orig.TargetProfiles = up.TargetProfiles
	}
	if up.LearningSteps != nil {
		orig.LearningSteps = up.LearningSteps
	}
	if up.Tags != nil {
		orig.Tags = up.Tags
	}
	if up.Prerequisites != nil {
		orig.Prerequisites = up.Prerequisites
	}
	if up.DurationMinutes != nil {
		orig.DurationMinutes = *up.DurationMinutes
	}
	orig.UpdatedAt = updatedAt

	repo.db.table[id] = orig
	return *orig, nil
}

func (repo *brickRepository) DeleteBricksByID(ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func (repo *brickRepository) IncrementUsage(id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if b, ok := repo.db.table[id]; ok {
		b.UsageCount++
	}
	return nil
}

func (repo *brickRepository) UpdateRating(id string, rating float64) (content.Brick, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	b, ok := repo.db.table[id]
	if !ok {
		return content.Brick{}, content.ErrNotFound
	}
	// documented fold: each new rating halves into the previous average
	b.AverageRating = (b.AverageRating + rating) / 2
	b.TotalRatings++
	return *b, nil
}

func (repo *brickRepository) Stats() (content.Stats, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	stats := content.Stats{
		BySubject:    make(map[content.Subject]int),
		ByType:       make(map[content.BrickType]int),
		ByDifficulty: make(map[int]int),
	}
	for _, b := range repo.db.table {
		stats.Total++
		stats.BySubject[b.Subject]++
		stats.ByType[b.Type]++
		stats.ByDifficulty[b.Difficulty]++
	}
	return stats, nil
}
