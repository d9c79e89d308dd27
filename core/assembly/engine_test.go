package assembly

import (
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-reussite/backend/core/content"
)

// stubRepo is an in-memory content.Repository that records every filter it
// receives and every usage increment it performs.
type stubRepo struct {
	bricks  []content.Brick
	filters []content.QueryFilter
	usage   map[string]int
}

var _ content.Repository = (*stubRepo)(nil)

func newStubRepo(bricks ...content.Brick) *stubRepo {
	return &stubRepo{bricks: bricks, usage: make(map[string]int)}
}

func (r *stubRepo) FilterBricks(filter content.QueryFilter) ([]content.Brick, error) {
	r.filters = append(r.filters, filter)

	var out []content.Brick
	for _, b := range r.bricks {
		if filter.Subject != "" && b.Subject != filter.Subject {
			continue
		}
		if filter.Chapter != "" && !strings.EqualFold(b.Chapter, filter.Chapter) {
			continue
		}
		if filter.Type != "" && b.Type != filter.Type {
			continue
		}
		if filter.DifficultyMin > 0 && b.Difficulty < filter.DifficultyMin {
			continue
		}
		if filter.DifficultyMax > 0 && b.Difficulty > filter.DifficultyMax {
			continue
		}
		if filter.TargetProfile != "" && !b.HasProfile(filter.TargetProfile) {
			continue
		}
		if filter.LearningStep != "" && !b.HasLearningStep(filter.LearningStep) {
			continue
		}
		if len(filter.Tags) > 0 {
			var hit bool
			for _, tag := range filter.Tags {
				if b.HasTag(tag) {
					hit = true
					break
				}
			}
			if !hit {
				continue
			}
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AverageRating != out[j].AverageRating {
			return out[i].AverageRating > out[j].AverageRating
		}
		return out[i].UsageCount > out[j].UsageCount
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *stubRepo) IncrementUsage(id string) error {
	r.usage[id]++
	return nil
}

func (r *stubRepo) CreateBrick(b content.Brick) (content.Brick, error) { return b, nil }
func (r *stubRepo) GetBrickByID(id string) (content.Brick, error) {
	return content.Brick{}, content.ErrNotFound
}
func (r *stubRepo) UpdateBrick(id string, up content.UpdateBrick, updatedAt time.Time) (content.Brick, error) {
	return content.Brick{}, content.ErrNotFound
}
func (r *stubRepo) DeleteBricksByID(ids ...string) error { return nil }
func (r *stubRepo) UpdateRating(id string, rating float64) (content.Brick, error) {
	return content.Brick{}, content.ErrNotFound
}
func (r *stubRepo) Stats() (content.Stats, error) { return content.Stats{}, nil }

func testBrick(id string, typ content.BrickType, mutators ...func(*content.Brick)) content.Brick {
	b := content.Brick{
		ID:              id,
		Title:           "Brique " + id,
		Content:         "Contenu de la brique " + id,
		Type:            typ,
		Subject:         content.SubjectMathematics,
		Chapter:         "Dérivation",
		Difficulty:      3,
		TargetProfiles:  []content.Profile{content.ProfileAverage},
		LearningSteps:   []content.LearningStep{content.StepRevision},
		DurationMinutes: 10,
		AuthorName:      "Prof A",
	}
	for _, mut := range mutators {
		mut(&b)
	}
	return b
}

func testRequest() Request {
	return Request{
		StudentProfile: content.ProfileAverage,
		Subject:        content.SubjectMathematics,
		Chapter:        "Dérivation",
		DocumentType:   DocFicheRevision,
		DifficultyMin:  1,
		DifficultyMax:  5,
		LearningStep:   content.StepRevision,
	}
}

func Test_GenerateDocument_unknownType(t *testing.T) {
	repo := newStubRepo()
	engine := NewEngine(repo)

	req := testRequest()
	req.DocumentType = "fiche_magique"

	_, err := engine.GenerateDocument(req)
	require.Error(t, err)
	assert.Equal(t, ErrUnsupportedDocumentType, errors.Cause(err))
	assert.Empty(t, repo.filters, "template check must fail before any repository access")
}

func Test_GenerateDocument_invalidDifficultyRange(t *testing.T) {
	tests := []struct {
		name     string
		min, max int
	}{
		{"min above max", 4, 2},
		{"min below 1", 0, 3},
		{"max above 5", 2, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newStubRepo()
			engine := NewEngine(repo)

			req := testRequest()
			req.DifficultyMin = tt.min
			req.DifficultyMax = tt.max

			_, err := engine.GenerateDocument(req)
			require.Error(t, err)
			assert.Equal(t, ErrInvalidRequest, errors.Cause(err))
			assert.Empty(t, repo.usage)
		})
	}
}

func Test_GenerateDocument_fullPool(t *testing.T) {
	// enough bricks for every fiche_revision slot: 2 def + 1 theorem + 2
	// example + 1 method tip + 3 exercises = 9
	repo := newStubRepo(
		testBrick("def-1", content.TypeDefinition),
		testBrick("def-2", content.TypeDefinition),
		testBrick("thm-1", content.TypeTheorem),
		testBrick("ex-1", content.TypeExample),
		testBrick("ex-2", content.TypeExample),
		testBrick("tip-1", content.TypeMethodTip),
		testBrick("exo-1", content.TypeExercise),
		testBrick("exo-2", content.TypeExercise),
		testBrick("exo-3", content.TypeExercise),
	)
	engine := NewEngine(repo)

	doc, err := engine.GenerateDocument(testRequest())
	require.NoError(t, err)

	assert.Equal(t, DocFicheRevision, doc.TemplateUsed)
	assert.Equal(t, "Fiche de révision — Dérivation", doc.Title)
	assert.Len(t, doc.BricksUsed, 9)
	assert.Equal(t, 1.0, doc.Completeness)
	assert.Empty(t, doc.UnfulfilledSlots)
	assert.Equal(t, 90, doc.EstimatedDuration)
	assert.Equal(t, 3.0, doc.DifficultyLevel)
	assert.NotEmpty(t, doc.ContentMarkdown)
	assert.NotEmpty(t, doc.ContentHTML)

	// every selected brick had its usage recorded exactly once
	assert.Len(t, repo.usage, 9)
	for id, n := range repo.usage {
		assert.Equalf(t, 1, n, "brick %s usage", id)
	}
}

func Test_GenerateDocument_displayOrder(t *testing.T) {
	// slots are declared def, theorem, example, tip, exercise but rendering
	// must regroup as def, theorem, example, exercise, tip
	repo := newStubRepo(
		testBrick("tip-1", content.TypeMethodTip),
		testBrick("exo-1", content.TypeExercise),
		testBrick("def-1", content.TypeDefinition),
		testBrick("thm-1", content.TypeTheorem),
		testBrick("ex-1", content.TypeExample),
	)
	engine := NewEngine(repo)

	doc, err := engine.GenerateDocument(testRequest())
	require.NoError(t, err)
	assert.Equal(t, []string{"def-1", "thm-1", "ex-1", "exo-1", "tip-1"}, doc.BricksUsed)

	// sections appear in the fixed order in the rendered markdown
	md := doc.ContentMarkdown
	iDef := strings.Index(md, "## Définitions")
	iThm := strings.Index(md, "## Théorèmes")
	iEx := strings.Index(md, "## Exemples")
	iExo := strings.Index(md, "## Exercices")
	iTip := strings.Index(md, "## Méthodes et astuces")
	for _, i := range []int{iDef, iThm, iEx, iExo, iTip} {
		require.GreaterOrEqual(t, i, 0)
	}
	assert.True(t, iDef < iThm && iThm < iEx && iEx < iExo && iExo < iTip)
}

func Test_GenerateDocument_partialPool(t *testing.T) {
	// only 1 definition and 1 exercise exist; generation must still succeed
	repo := newStubRepo(
		testBrick("def-1", content.TypeDefinition),
		testBrick("exo-1", content.TypeExercise),
	)
	engine := NewEngine(repo)

	doc, err := engine.GenerateDocument(testRequest())
	require.NoError(t, err)

	assert.Len(t, doc.BricksUsed, 2)
	assert.InDelta(t, 2.0/9.0, doc.Completeness, 1e-9)
	assert.Contains(t, doc.UnfulfilledSlots, "definition (1/2)")
	assert.Contains(t, doc.UnfulfilledSlots, "theorem (0/1)")
	assert.Contains(t, doc.UnfulfilledSlots, "example (0/2)")
	assert.Contains(t, doc.UnfulfilledSlots, "exercise (1/3)")
	// optional method tip slot is still reported when short
	assert.Contains(t, doc.UnfulfilledSlots, "method_tip (0/1)")
}

func Test_GenerateDocument_emptyPool(t *testing.T) {
	repo := newStubRepo()
	engine := NewEngine(repo)

	doc, err := engine.GenerateDocument(testRequest())
	require.NoError(t, err)

	assert.Empty(t, doc.BricksUsed)
	assert.Equal(t, 0.0, doc.Completeness)
	assert.Equal(t, 1.0, doc.DifficultyLevel)
	assert.Equal(t, 0, doc.EstimatedDuration)
	assert.Empty(t, repo.usage)
	assert.NotEmpty(t, doc.ContentMarkdown, "an empty document still renders header and footer")
}

func Test_GenerateDocument_mandatoryFallback(t *testing.T) {
	// the only theorem lives in another chapter: the strict query misses it,
	// the relaxed query (subject + type + profile) must find it
	thm := testBrick("thm-other", content.TypeTheorem, func(b *content.Brick) {
		b.Chapter = "Continuité"
	})
	repo := newStubRepo(thm)
	engine := NewEngine(repo)

	doc, err := engine.GenerateDocument(testRequest())
	require.NoError(t, err)
	assert.Contains(t, doc.BricksUsed, "thm-other")

	// find the fallback query issued for the theorem slot
	var fallback *content.QueryFilter
	for i := range repo.filters {
		f := repo.filters[i]
		if f.Type == content.TypeTheorem && f.Chapter == "" {
			fallback = &f
			break
		}
	}
	require.NotNil(t, fallback, "mandatory slot must retry with a relaxed query")
	assert.Equal(t, content.SubjectMathematics, fallback.Subject)
	assert.Equal(t, content.ProfileAverage, fallback.TargetProfile)
	assert.Empty(t, fallback.LearningStep)
	assert.Zero(t, fallback.DifficultyMin)
	assert.Zero(t, fallback.DifficultyMax)
}

func Test_GenerateDocument_optionalSlotNoFallback(t *testing.T) {
	// the only method tip lives in another chapter; the optional slot must
	// NOT retry with a relaxed query
	tip := testBrick("tip-other", content.TypeMethodTip, func(b *content.Brick) {
		b.Chapter = "Continuité"
	})
	repo := newStubRepo(tip)
	engine := NewEngine(repo)

	doc, err := engine.GenerateDocument(testRequest())
	require.NoError(t, err)
	assert.NotContains(t, doc.BricksUsed, "tip-other")

	for _, f := range repo.filters {
		if f.Type == content.TypeMethodTip {
			assert.Equal(t, "Dérivation", f.Chapter, "optional slots only query strictly")
		}
	}
}

func Test_GenerateDocument_excludeTopics(t *testing.T) {
	// excluded topics drop candidates from the strict query AND the fallback
	exoTagged := testBrick("exo-trig", content.TypeExercise, func(b *content.Brick) {
		b.Tags = []string{"trigonométrie"}
	})
	thmTagged := testBrick("thm-trig", content.TypeTheorem, func(b *content.Brick) {
		b.Chapter = "Continuité" // only reachable through the fallback
		b.Tags = []string{"trigonométrie"}
	})
	exoClean := testBrick("exo-clean", content.TypeExercise)
	repo := newStubRepo(exoTagged, thmTagged, exoClean)
	engine := NewEngine(repo)

	req := testRequest()
	req.ExcludeTopics = []string{"trigonométrie"}

	doc, err := engine.GenerateDocument(req)
	require.NoError(t, err)
	assert.Contains(t, doc.BricksUsed, "exo-clean")
	assert.NotContains(t, doc.BricksUsed, "exo-trig")
	assert.NotContains(t, doc.BricksUsed, "thm-trig")
}

func Test_GenerateDocument_slotTruncation(t *testing.T) {
	// 5 theorems compete for a single slot: the best-scored one wins
	best := testBrick("thm-best", content.TypeTheorem, func(b *content.Brick) {
		b.AverageRating = 5
	})
	repo := newStubRepo(
		testBrick("thm-1", content.TypeTheorem),
		testBrick("thm-2", content.TypeTheorem),
		best,
		testBrick("thm-3", content.TypeTheorem),
		testBrick("thm-4", content.TypeTheorem),
	)
	engine := NewEngine(repo)

	doc, err := engine.GenerateDocument(testRequest())
	require.NoError(t, err)

	var thms []string
	for _, id := range doc.BricksUsed {
		if strings.HasPrefix(id, "thm-") {
			thms = append(thms, id)
		}
	}
	assert.Equal(t, []string{"thm-best"}, thms)
	assert.Len(t, repo.usage, 1)
}

func Test_scoreBrick(t *testing.T) {
	req := Request{
		StudentProfile: content.ProfileAverage,
		Subject:        content.SubjectMathematics,
		DifficultyMin:  2,
		DifficultyMax:  4, // midpoint 3
		LearningStep:   content.StepRevision,
		SpecificTopics: []string{"dérivée"},
	}

	tests := []struct {
		name  string
		brick content.Brick
		want  float64
	}{
		{
			// rating 8 + capped usage 2 + proximity 3 + topic 1.5 + step 2 + profile 1.5
			name: "all components",
			brick: content.Brick{
				AverageRating:  4,
				UsageCount:     30,
				Difficulty:     3,
				Tags:           []string{"dérivée", "limite"},
				LearningSteps:  []content.LearningStep{content.StepRevision},
				TargetProfiles: []content.Profile{content.ProfileAverage},
			},
			want: 8 + 2 + 3 + 1.5 + 2 + 1.5,
		},
		{
			name:  "zero brick",
			brick: content.Brick{Difficulty: 1}, // 3 - |1-3| = 1
			want:  1,
		},
		{
			name: "partial tag match counts",
			brick: content.Brick{
				Difficulty: 3,
				Tags:       []string{"dérivées composées"}, // contains "dérivée"
			},
			want: 3 + 1.5,
		},
		{
			name: "usage below cap",
			brick: content.Brick{
				Difficulty: 3,
				UsageCount: 5, // 0.5
			},
			want: 3 + 0.5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scoreBrick(tt.brick, req), 1e-9)
		})
	}
}

func Test_rank_deterministic(t *testing.T) {
	// identical scores: the repository's incoming order must be preserved
	req := testRequest()
	mk := func(id string) content.Brick {
		return testBrick(id, content.TypeExercise)
	}
	engine := NewEngine(newStubRepo())

	candidates := []content.Brick{mk("a"), mk("b"), mk("c")}
	engine.rank(candidates, req)

	got := []string{candidates[0].ID, candidates[1].ID, candidates[2].ID}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func Test_SuggestDocumentType(t *testing.T) {
	engine := NewEngine(newStubRepo())

	tests := []struct {
		profile content.Profile
		step    content.LearningStep
		want    string
	}{
		{content.ProfileStruggling, content.StepDiscovery, DocCoursComplet},
		{content.ProfileStruggling, content.StepTraining, DocFicheMethode},
		{content.ProfileAverage, content.StepTraining, DocExercicesEntrainement},
		{content.ProfileExcellence, content.StepDeepening, DocCoursComplet},
		{content.ProfileRemediation, content.StepEvaluation, DocEvaluationDiagnostique},
		// unmapped combinations fall back to the revision sheet
		{content.ProfileExcellence, content.StepDiscovery, DocFicheRevision},
		{"", "", DocFicheRevision},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, engine.SuggestDocumentType(tt.profile, tt.step))
	}
}

func Test_Templates_isolatedCopy(t *testing.T) {
	engine := NewEngine(newStubRepo())

	tmpls := engine.Templates()
	require.Len(t, tmpls, 5)
	delete(tmpls, DocFicheRevision)
	assert.Len(t, engine.Templates(), 5, "callers must not mutate the engine's table")
}

func Test_AnalyzeContentGaps(t *testing.T) {
	repo := newStubRepo(
		testBrick("exo-1", content.TypeExercise, func(b *content.Brick) {
			b.Difficulty = 2
		}),
	)
	engine := NewEngine(repo)

	report, err := engine.AnalyzeContentGaps(content.SubjectMathematics, "Dérivation")
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalBricks)
	assert.Equal(t, 1, report.ByType[content.TypeExercise])
	assert.Equal(t, 1, report.ByDifficulty[2])
	assert.Equal(t, 1, report.ByProfile[content.ProfileAverage])
	assert.InDelta(t, 5.0, report.CoverageScore, 1e-9)

	// a single exercise is still below the 2-brick threshold
	assert.Contains(t, report.MissingTypes, content.TypeExercise)
	assert.Contains(t, report.MissingTypes, content.TypeDefinition)
	assert.Len(t, report.MissingTypes, 10)
	assert.Equal(t, []int{1, 3, 4, 5}, report.MissingDifficulties)
}

func Test_AnalyzeContentGaps_richChapter(t *testing.T) {
	var bricks []content.Brick
	for i := 0; i < 25; i++ {
		bricks = append(bricks, testBrick("b", content.TypeExercise, func(b *content.Brick) {
			b.Difficulty = i%5 + 1
		}))
	}
	engine := NewEngine(newStubRepo(bricks...))

	report, err := engine.AnalyzeContentGaps(content.SubjectMathematics, "Dérivation")
	require.NoError(t, err)
	assert.Equal(t, 100.0, report.CoverageScore, "coverage is capped at 100")
	assert.Empty(t, report.MissingDifficulties)
}

func Test_meanDifficulty(t *testing.T) {
	assert.Equal(t, 1.0, meanDifficulty(nil))
	assert.Equal(t, 2.5, meanDifficulty([]content.Brick{
		{Difficulty: 2},
		{Difficulty: 3},
	}))
}
