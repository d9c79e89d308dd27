package assembly

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/nexus-reussite/backend/core"
	"github.com/nexus-reussite/backend/core/content"
)

// Engine turns a Request into a GeneratedDocument by selecting, ranking and
// rendering content bricks against a named template.
//
// The engine is synchronous and stateless across calls; it holds no locks.
// Concurrent generations against a shared repository may observe slightly
// stale usage counters, which is acceptable: usage counts are advisory.
type Engine struct {
	repo      content.Repository
	templates map[string]Template

	NowFunc func() time.Time // mockable
}

func NewEngine(repo content.Repository) *Engine {
	return &Engine{
		repo:      repo,
		templates: builtinTemplates(),
		NowFunc:   time.Now,
	}
}

// Templates returns the archetype table, keyed by document type.
func (e *Engine) Templates() map[string]Template {
	out := make(map[string]Template, len(e.templates))
	for name, tmpl := range e.templates {
		out[name] = tmpl
	}
	return out
}

// SuggestDocumentType recommends an archetype for a learner situation.
func (e *Engine) SuggestDocumentType(profile content.Profile, step content.LearningStep) string {
	if doc, ok := documentSuggestions[suggestionKey{profile, step}]; ok {
		return doc
	}
	return DocFicheRevision
}

// GenerateDocument selects bricks slot by slot, ranks them, renders the
// document and records usage on every selected brick.
//
// Partial slot fulfillment is not an error: the engine always returns some
// document, and reports shortfalls via Completeness/UnfulfilledSlots.
func (e *Engine) GenerateDocument(req Request) (GeneratedDocument, error) {
	start := e.NowFunc()

	tmpl, ok := e.templates[req.DocumentType]
	if !ok {
		return GeneratedDocument{}, errors.Wrap(ErrUnsupportedDocumentType, req.DocumentType)
	}
	if err := req.checkShape(); err != nil {
		return GeneratedDocument{}, err
	}

	var (
		selected    []content.Brick
		unfulfilled []string
	)
	for _, slot := range tmpl.Slots {
		bricks, err := e.fillSlot(slot, req)
		if err != nil {
			return GeneratedDocument{}, err
		}
		if len(bricks) < slot.Count {
			unfulfilled = append(unfulfilled, fmt.Sprintf("%s (%d/%d)", slot.Type, len(bricks), slot.Count))
		}
		selected = append(selected, bricks...)
	}

	doc := GeneratedDocument{
		ID:               uuid.New().String(),
		Request:          req,
		Title:            fmt.Sprintf("%s — %s", tmpl.Title, req.Chapter),
		GeneratedAt:      start.UTC(),
		TemplateUsed:     tmpl.Name,
		UnfulfilledSlots: unfulfilled,
	}

	doc.EstimatedDuration = totalDuration(selected)
	doc.DifficultyLevel = meanDifficulty(selected)
	if ideal := tmpl.IdealBrickCount(); ideal > 0 {
		doc.Completeness = float64(len(selected)) / float64(ideal)
	} else {
		doc.Completeness = 1.0
	}

	ordered := orderForDisplay(selected)
	for _, b := range ordered {
		doc.BricksUsed = append(doc.BricksUsed, b.ID)
	}

	doc.ContentMarkdown = e.renderMarkdown(doc, ordered)
	html, err := renderHTML(doc.ContentMarkdown)
	if err != nil {
		return GeneratedDocument{}, errors.Wrap(err, "rendering html")
	}
	doc.ContentHTML = html

	// Usage is recorded only once the whole document rendered, so counters
	// cannot run ahead of documents that never materialized. Increments are
	// still not transactional with each other.
	for _, b := range ordered {
		if err := e.repo.IncrementUsage(b.ID); err != nil {
			return GeneratedDocument{}, errors.Wrapf(err, "incrementing usage of brick %s", b.ID)
		}
	}

	doc.GenerationTimeMS = e.NowFunc().Sub(start).Milliseconds()
	return doc, nil
}

// fillSlot queries, filters and ranks candidates for one template slot,
// returning at most slot.Count bricks. A mandatory slot that matches nothing
// retries with a relaxed query (subject + type + profile only).
func (e *Engine) fillSlot(slot Slot, req Request) ([]content.Brick, error) {
	filter := content.QueryFilter{
		Subject:       req.Subject,
		Chapter:       req.Chapter,
		Type:          slot.Type,
		DifficultyMin: req.DifficultyMin,
		DifficultyMax: req.DifficultyMax,
		TargetProfile: req.StudentProfile,
		LearningStep:  req.LearningStep,
	}
	if len(req.SpecificTopics) > 0 {
		filter.Tags = req.SpecificTopics
	}

	candidates, err := e.repo.FilterBricks(filter)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s bricks", slot.Type)
	}
	candidates = dropExcluded(candidates, req.ExcludeTopics)

	if len(candidates) == 0 && slot.Mandatory {
		fallback := content.QueryFilter{
			Subject:       req.Subject,
			Type:          slot.Type,
			TargetProfile: req.StudentProfile,
		}
		if candidates, err = e.repo.FilterBricks(fallback); err != nil {
			return nil, errors.Wrapf(err, "fallback querying %s bricks", slot.Type)
		}
		candidates = dropExcluded(candidates, req.ExcludeTopics)
	}

	e.rank(candidates, req)
	if len(candidates) > slot.Count {
		candidates = candidates[:slot.Count]
	}
	return candidates, nil
}

// rank orders candidates by descending relevance score. The sort is stable so
// ties keep the repository's (rating, usage) ordering, which makes selection
// deterministic for a fixed repository state.
func (e *Engine) rank(candidates []content.Brick, req Request) {
	scores := make(map[string]float64, len(candidates))
	for _, b := range candidates {
		scores[b.ID] = scoreBrick(b, req)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return scores[candidates[i].ID] > scores[candidates[j].ID]
	})
}

// scoreBrick computes the composite relevance of one brick for a request:
// quality (rating), popularity (capped), difficulty proximity, topic matches
// and profile/step affinity.
func scoreBrick(b content.Brick, req Request) float64 {
	score := b.AverageRating * 2

	score += math.Min(float64(b.UsageCount)/10, 2)

	mid := req.difficultyMidpoint()
	score += math.Max(0, 3-math.Abs(float64(b.Difficulty)-mid))

	if len(req.SpecificTopics) > 0 {
		var matches int
		for _, topic := range req.SpecificTopics {
			topic = core.CleanString(topic, true /* lower */)
			for _, tag := range b.Tags {
				if strings.Contains(strings.ToLower(tag), topic) {
					matches++
					break
				}
			}
		}
		score += 1.5 * float64(matches)
	}

	if b.HasLearningStep(req.LearningStep) {
		score += 2
	}
	if b.HasProfile(req.StudentProfile) {
		score += 1.5
	}
	return score
}

// dropExcluded removes candidates whose tag set intersects excluded topics
// (case-insensitive).
func dropExcluded(candidates []content.Brick, excluded []string) []content.Brick {
	if len(excluded) == 0 {
		return candidates
	}
	kept := candidates[:0]
	for _, b := range candidates {
		var hit bool
		for _, topic := range excluded {
			if b.HasTag(topic) {
				hit = true
				break
			}
		}
		if !hit {
			kept = append(kept, b)
		}
	}
	return kept
}

// orderForDisplay regroups the selected pool by brick type in the fixed
// section order; within a type, selection order is preserved.
func orderForDisplay(selected []content.Brick) []content.Brick {
	byType := make(map[content.BrickType][]content.Brick, len(sectionOrder))
	for _, b := range selected {
		byType[b.Type] = append(byType[b.Type], b)
	}
	ordered := make([]content.Brick, 0, len(selected))
	for _, t := range sectionOrder {
		ordered = append(ordered, byType[t]...)
	}
	return ordered
}

func totalDuration(bricks []content.Brick) int {
	var total int
	for _, b := range bricks {
		total += b.DurationMinutes
	}
	return total
}

func meanDifficulty(bricks []content.Brick) float64 {
	if len(bricks) == 0 {
		return 1.0
	}
	var sum int
	for _, b := range bricks {
		sum += b.Difficulty
	}
	return float64(sum) / float64(len(bricks))
}

// AnalyzeContentGaps reports thin coverage for a subject/chapter scope:
// brick types with fewer than 2 bricks and difficulty levels with none.
func (e *Engine) AnalyzeContentGaps(subject content.Subject, chapter string) (GapReport, error) {
	bricks, err := e.repo.FilterBricks(content.QueryFilter{Subject: subject, Chapter: chapter})
	if err != nil {
		return GapReport{}, errors.Wrap(err, "querying scope bricks")
	}

	report := GapReport{
		Subject:      subject,
		Chapter:      chapter,
		TotalBricks:  len(bricks),
		ByType:       make(map[content.BrickType]int),
		ByDifficulty: make(map[int]int),
		ByProfile:    make(map[content.Profile]int),
	}
	for _, b := range bricks {
		report.ByType[b.Type]++
		report.ByDifficulty[b.Difficulty]++
		for _, p := range b.TargetProfiles {
			report.ByProfile[p]++
		}
	}

	for _, t := range sectionOrder {
		if report.ByType[t] < 2 {
			report.MissingTypes = append(report.MissingTypes, t)
		}
	}
	for d := 1; d <= 5; d++ {
		if report.ByDifficulty[d] == 0 {
			report.MissingDifficulties = append(report.MissingDifficulties, d)
		}
	}
	report.CoverageScore = math.Min(100, float64(report.TotalBricks)/20*100)
	return report, nil
}
