package enrollment

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/nexus-reussite/backend/core"
	"github.com/nexus-reussite/backend/core/content"
)

// Status tracks an enrollment through its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Formula is a named tutoring package students enroll into.
type Formula struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	Subjects        []content.Subject `json:"subjects"`
	HoursPerWeek    int               `json:"hours_per_week"`
	MonthlyPriceTND float64           `json:"monthly_price_tnd"`
	IsActive        bool              `json:"is_active"`
	CreatedAt       time.Time         `json:"created_at"` // UTC
	UpdatedAt       time.Time         `json:"updated_at"` // UTC
}

// NewFormula contains information needed to create a new Formula.
type NewFormula struct {
	Name            string            `json:"name" validate:"required"`
	Description     string            `json:"description"`
	Subjects        []content.Subject `json:"subjects" validate:"required,min=1,dive,subject"`
	HoursPerWeek    int               `json:"hours_per_week" validate:"min=1"`
	MonthlyPriceTND float64           `json:"monthly_price_tnd" validate:"min=0"`
}

func (nf *NewFormula) Validate(validate *validator.Validate, translator ut.Translator) error {
	nf.Name = core.CleanString(nf.Name)
	nf.Description = core.CleanString(nf.Description)
	return validate.Struct(nf)
}

// Enrollment links a student to a formula.
type Enrollment struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	FormulaID string    `json:"formula_id"`
	Status    Status    `json:"status"`
	StartedAt time.Time `json:"started_at,omitempty"` // set on activation
	CreatedAt time.Time `json:"created_at"`           // UTC
	UpdatedAt time.Time `json:"updated_at"`           // UTC
}

// NewEnrollment is a student's (or parent's) enrollment request.
type NewEnrollment struct {
	StudentID string `json:"student_id" validate:"required"`
	FormulaID string `json:"formula_id" validate:"required"`
}

func (ne NewEnrollment) Validate(validate *validator.Validate, translator ut.Translator) error {
	return validate.Struct(ne)
}

// QueryFilter narrows an enrollment search; set fields combine with AND.
type QueryFilter struct {
	StudentID string `query:"student_id"`
	FormulaID string `query:"formula_id"`
	Status    Status `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.FormulaID == "" && qf.Status == ""
}
