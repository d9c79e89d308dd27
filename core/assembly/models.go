package assembly

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/nexus-reussite/backend/core"
	"github.com/nexus-reussite/backend/core/content"
)

var (
	// errors
	ErrUnsupportedDocumentType = errors.New("unsupported document type")
	ErrInvalidRequest          = errors.New("invalid document request")
)

// Request specifies the desired shape of a generated document.
type Request struct {
	StudentProfile content.Profile      `json:"student_profile" validate:"required,profile"`
	Subject        content.Subject      `json:"subject" validate:"required,subject"`
	Chapter        string               `json:"chapter" validate:"required"`
	DocumentType   string               `json:"document_type" validate:"required"`
	DifficultyMin  int                  `json:"difficulty_min" validate:"min=1,max=5"`
	DifficultyMax  int                  `json:"difficulty_max" validate:"min=1,max=5,gtefield=DifficultyMin"`
	LearningStep   content.LearningStep `json:"learning_step" validate:"required,learningstep"`
	SpecificTopics []string             `json:"specific_topics"`
	ExcludeTopics  []string             `json:"exclude_topics"`
}

func (r *Request) Validate(validate *validator.Validate, translator ut.Translator) error {
	r.Chapter = core.CleanString(r.Chapter)
	r.DocumentType = core.CleanString(r.DocumentType, true /* lower */)
	return validate.Struct(r)
}

// checkShape guards the engine against un-validated callers. Violations abort
// loudly instead of being clamped, so caller bugs stay visible.
func (r *Request) checkShape() error {
	if r.DifficultyMin < 1 || r.DifficultyMax > 5 || r.DifficultyMin > r.DifficultyMax {
		return errors.Wrapf(ErrInvalidRequest, "difficulty range [%d,%d]", r.DifficultyMin, r.DifficultyMax)
	}
	return nil
}

func (r *Request) difficultyMidpoint() float64 {
	return float64(r.DifficultyMin+r.DifficultyMax) / 2
}

// GeneratedDocument is the immutable output artifact of one generation call.
type GeneratedDocument struct {
	ID              string   `json:"id"`
	Request         Request  `json:"request"`
	BricksUsed      []string `json:"bricks_used"` // ids, display order
	Title           string   `json:"title"`
	ContentMarkdown string   `json:"content_markdown"`
	ContentHTML     string   `json:"content_html"`

	// EstimatedDuration is the sum of the constituent bricks' durations, in minutes.
	EstimatedDuration int `json:"estimated_duration"`
	// DifficultyLevel is the arithmetic mean of the constituent bricks'
	// difficulties; 1.0 when no brick was selected.
	DifficultyLevel float64 `json:"difficulty_level"`

	GeneratedAt      time.Time `json:"generated_at"`
	GenerationTimeMS int64     `json:"generation_time_ms"`
	TemplateUsed     string    `json:"template_used"`

	// Completeness is the ratio of selected bricks over the template's ideal
	// brick count. Partial fulfillment is tolerated, not failed; this field
	// makes it observable.
	Completeness     float64  `json:"completeness"`
	UnfulfilledSlots []string `json:"unfulfilled_slots,omitempty"`
}

// GapReport flags thin spots in the brick bank for a subject/chapter scope.
type GapReport struct {
	Subject             content.Subject           `json:"subject"`
	Chapter             string                    `json:"chapter"`
	TotalBricks         int                       `json:"total_bricks"`
	ByType              map[content.BrickType]int `json:"by_type"`
	ByDifficulty        map[int]int               `json:"by_difficulty"`
	ByProfile           map[content.Profile]int   `json:"by_profile"`
	MissingTypes        []content.BrickType       `json:"missing_types"`        // fewer than 2 bricks
	MissingDifficulties []int                     `json:"missing_difficulties"` // zero bricks
	CoverageScore       float64                   `json:"coverage_score"`       // 0..100
}
