package content

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/nexus-reussite/backend/core"
)

// BrickType identifies the pedagogical nature of a content brick.
type BrickType string

const (
	TypeDefinition     BrickType = "definition"
	TypeTheorem        BrickType = "theorem"
	TypeProperty       BrickType = "property"
	TypeExample        BrickType = "example"
	TypeExercise       BrickType = "exercise"
	TypeCorrection     BrickType = "correction"
	TypeMethodTip      BrickType = "method_tip"
	TypeHistoricalNote BrickType = "historical_note"
	TypeDiagram        BrickType = "diagram"
	TypeFormula        BrickType = "formula"
)

var AllBrickTypes = []BrickType{
	TypeDefinition,
	TypeTheorem,
	TypeProperty,
	TypeExample,
	TypeExercise,
	TypeCorrection,
	TypeMethodTip,
	TypeHistoricalNote,
	TypeDiagram,
	TypeFormula,
}

func (t BrickType) Valid() bool {
	for _, bt := range AllBrickTypes {
		if t == bt {
			return true
		}
	}
	return false
}

// Subject is one of the academic subjects taught on the platform.
type Subject string

const (
	SubjectMathematics Subject = "mathematics"
	SubjectPhysChem    Subject = "physics_chemistry"
	SubjectNSI         Subject = "nsi"
	SubjectFrench      Subject = "french"
	SubjectPhilosophy  Subject = "philosophy"
	SubjectEnglish     Subject = "english"
	SubjectSpanish     Subject = "spanish"
	SubjectHistoryGeo  Subject = "history_geo"
	SubjectSES         Subject = "ses"
)

var AllSubjects = []Subject{
	SubjectMathematics,
	SubjectPhysChem,
	SubjectNSI,
	SubjectFrench,
	SubjectPhilosophy,
	SubjectEnglish,
	SubjectSpanish,
	SubjectHistoryGeo,
	SubjectSES,
}

func (s Subject) Valid() bool {
	for _, sub := range AllSubjects {
		if s == sub {
			return true
		}
	}
	return false
}

// Profile tags the learner situation a brick targets.
type Profile string

const (
	ProfileStruggling  Profile = "struggling"
	ProfileAverage     Profile = "average"
	ProfileExcellence  Profile = "excellence"
	ProfileRemediation Profile = "remediation"
)

var AllProfiles = []Profile{ProfileStruggling, ProfileAverage, ProfileExcellence, ProfileRemediation}

func (p Profile) Valid() bool {
	for _, prof := range AllProfiles {
		if p == prof {
			return true
		}
	}
	return false
}

// LearningStep tags the pedagogical phase a brick is meant for.
type LearningStep string

const (
	StepDiscovery  LearningStep = "discovery"
	StepTraining   LearningStep = "training"
	StepDeepening  LearningStep = "deepening"
	StepRevision   LearningStep = "revision"
	StepEvaluation LearningStep = "evaluation"
)

var AllLearningSteps = []LearningStep{StepDiscovery, StepTraining, StepDeepening, StepRevision, StepEvaluation}

func (s LearningStep) Valid() bool {
	for _, step := range AllLearningSteps {
		if s == step {
			return true
		}
	}
	return false
}

// Brick is an atomic, reusable pedagogical content unit.
type Brick struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Content         string         `json:"content"` // markdown body
	Type            BrickType      `json:"type"`
	Subject         Subject        `json:"subject"`
	Chapter         string         `json:"chapter"`
	Difficulty      int            `json:"difficulty"` // 1..5
	TargetProfiles  []Profile      `json:"target_profiles"`
	LearningSteps   []LearningStep `json:"learning_steps"`
	Tags            []string       `json:"tags"` // lowercase
	Prerequisites   []string       `json:"prerequisites"`
	DurationMinutes int            `json:"duration_minutes"`
	AuthorID        string         `json:"author_id"`
	AuthorName      string         `json:"author_name"`
	UsageCount      int            `json:"usage_count"`
	AverageRating   float64        `json:"average_rating"`
	TotalRatings    int            `json:"total_ratings"`
	CreatedAt       time.Time      `json:"created_at"` // UTC
	UpdatedAt       time.Time      `json:"updated_at"` // UTC
}

func (b *Brick) HasProfile(p Profile) bool {
	for _, prof := range b.TargetProfiles {
		if prof == p {
			return true
		}
	}
	return false
}

func (b *Brick) HasLearningStep(s LearningStep) bool {
	for _, step := range b.LearningSteps {
		if step == s {
			return true
		}
	}
	return false
}

func (b *Brick) HasTag(tag string) bool {
	tag = core.CleanString(tag, true /* lower */)
	for _, t := range b.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// NewBrick contains information needed to author a new Brick.
type NewBrick struct {
	Title           string         `json:"title" validate:"required"`
	Content         string         `json:"content" validate:"required"`
	Type            BrickType      `json:"type" validate:"required,bricktype"`
	Subject         Subject        `json:"subject" validate:"required,subject"`
	Chapter         string         `json:"chapter" validate:"required"`
	Difficulty      int            `json:"difficulty" validate:"min=1,max=5"`
	TargetProfiles  []Profile      `json:"target_profiles" validate:"required,min=1,dive,profile"`
	LearningSteps   []LearningStep `json:"learning_steps" validate:"required,min=1,dive,learningstep"`
	Tags            []string       `json:"tags"`
	Prerequisites   []string       `json:"prerequisites"`
	DurationMinutes int            `json:"duration_minutes" validate:"min=1"`
}

func (nb *NewBrick) Validate(validate *validator.Validate, translator ut.Translator) error {
	nb.Title = core.CleanString(nb.Title)
	nb.Chapter = core.CleanString(nb.Chapter)
	nb.Tags = core.CleanStrings(nb.Tags, true /* lower */)
	return validate.Struct(nb)
}

// UpdateBrick defines what information may be provided to modify an existing Brick.
// Zero-valued fields are left untouched.
type UpdateBrick struct {
	Title           string         `json:"title"`
	Content         string         `json:"content"`
	Chapter         string         `json:"chapter"`
	Type            BrickType      `json:"type" validate:"omitempty,bricktype"`
	Difficulty      *int           `json:"difficulty" validate:"omitempty,min=1,max=5"`
	TargetProfiles  []Profile      `json:"target_profiles" validate:"omitempty,min=1,dive,profile"`
	LearningSteps   []LearningStep `json:"learning_steps" validate:"omitempty,min=1,dive,learningstep"`
	Tags            []string       `json:"tags"`
	Prerequisites   []string       `json:"prerequisites"`
	DurationMinutes *int           `json:"duration_minutes" validate:"omitempty,min=1"`
}

func (ub *UpdateBrick) Validate(validate *validator.Validate, translator ut.Translator) error {
	ub.Title = core.CleanString(ub.Title)
	ub.Chapter = core.CleanString(ub.Chapter)
	ub.Tags = core.CleanStrings(ub.Tags, true /* lower */)
	return validate.Struct(ub)
}

// NewRating is a rating submission for a brick.
type NewRating struct {
	Rating float64 `json:"rating" validate:"min=0,max=5"`
}

func (nr NewRating) Validate(validate *validator.Validate, translator ut.Translator) error {
	return validate.Struct(nr)
}

// QueryFilter narrows a brick search. All fields are optional; set fields
// combine with AND semantics, except Tags which matches if ANY tag is present.
type QueryFilter struct {
	Subject       Subject      `query:"subject"`
	Chapter       string       `query:"chapter"` // case-insensitive exact match
	Type          BrickType    `query:"type"`
	DifficultyMin int          `query:"difficulty_min"` // inclusive; 0 = unset
	DifficultyMax int          `query:"difficulty_max"` // inclusive; 0 = unset
	TargetProfile Profile      `query:"target_profile"`
	LearningStep  LearningStep `query:"learning_step"`
	Tags          []string     `query:"tag"` // case-insensitive, OR within
	Limit         int          `query:"limit"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Subject == "" && qf.Chapter == "" && qf.Type == "" &&
		qf.DifficultyMin == 0 && qf.DifficultyMax == 0 &&
		qf.TargetProfile == "" && qf.LearningStep == "" && qf.Tags == nil
}

func (qf *QueryFilter) Clean() {
	qf.Chapter = core.CleanString(qf.Chapter)
	qf.Tags = core.CleanStrings(qf.Tags, true /* lower */)
}

// Stats summarizes the brick bank.
type Stats struct {
	Total        int               `json:"total"`
	BySubject    map[Subject]int   `json:"by_subject"`
	ByType       map[BrickType]int `json:"by_type"`
	ByDifficulty map[int]int       `json:"by_difficulty"`
}
