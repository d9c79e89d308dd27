package enrollment

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/nexus-reussite/backend/core"
	"github.com/nexus-reussite/backend/core/notification"
	"github.com/nexus-reussite/backend/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("enrollment not found")
	ErrFormulaNotFound = errors.New("formula not found")
	ErrFormulaInactive = errors.New("this formula is no longer offered")
	ErrAlreadyEnrolled = errors.New("student already has an active enrollment for this formula")
)

type (
	Repository interface {
		CreateFormula(f Formula) (Formula, error)
		QueryAllFormulas() ([]Formula, error)
		GetFormulaByID(id string) (Formula, error)
		UpdateFormula(f Formula, isActive *bool) (Formula, error)
		DeleteFormulasByID(ids ...string) error

		CreateEnrollment(e Enrollment) (Enrollment, error)
		GetEnrollmentByID(id string) (Enrollment, error)
		// FilterEnrollments applies AND operation on available QueryFilter fields.
		FilterEnrollments(filter QueryFilter) ([]Enrollment, error)
		UpdateEnrollmentStatus(id string, status Status, startedAt, updatedAt time.Time) (Enrollment, error)
	}

	Service struct {
		repo     Repository
		usrSvc   user.ServiceInterface
		mailSvc  core.EmailService
		notifier notification.Notifier
		conf     *core.Config
	}
)

func NewService(
	repo Repository,
	usrSvc user.ServiceInterface,
	mailSvc core.EmailService,
	notifier notification.Notifier,
	conf *core.Config,
) *Service {
	return &Service{
		repo:     repo,
		usrSvc:   usrSvc,
		mailSvc:  mailSvc,
		notifier: notifier,
		conf:     conf,
	}
}

// Formulas

func (svc *Service) CreateFormula(nf NewFormula) (Formula, error) {
	now := time.Now().UTC()
	return svc.repo.CreateFormula(Formula{
		Name:            nf.Name,
		Description:     nf.Description,
		Subjects:        nf.Subjects,
		HoursPerWeek:    nf.HoursPerWeek,
		MonthlyPriceTND: nf.MonthlyPriceTND,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

func (svc *Service) QueryFormulas() ([]Formula, error) {
	return svc.repo.QueryAllFormulas()
}

func (svc *Service) GetFormula(id string) (Formula, error) {
	return svc.repo.GetFormulaByID(id)
}

func (svc *Service) SetFormulaActive(id string, isActive bool) (Formula, error) {
	return svc.repo.UpdateFormula(Formula{ID: id, UpdatedAt: time.Now().UTC()}, &isActive)
}

func (svc *Service) DeleteFormulas(ids ...string) error {
	return svc.repo.DeleteFormulasByID(ids...)
}

// Enrollments

// Enroll registers a pending enrollment for the student, guarding against
// duplicates and retired formulas.
func (svc *Service) Enroll(ne NewEnrollment) (Enrollment, error) {
	formula, err := svc.repo.GetFormulaByID(ne.FormulaID)
	if err != nil {
		if errors.Cause(err) == ErrFormulaNotFound {
			return Enrollment{}, core.NewValidationError(err, core.FieldError{Field: "formula_id", Error: err.Error()})
		}
		return Enrollment{}, err
	}
	if !formula.IsActive {
		return Enrollment{}, core.NewValidationError(ErrFormulaInactive, core.FieldError{Field: "formula_id", Error: ErrFormulaInactive.Error()})
	}

	existing, err := svc.repo.FilterEnrollments(QueryFilter{StudentID: ne.StudentID, FormulaID: ne.FormulaID})
	if err != nil {
		return Enrollment{}, err
	}
	for _, e := range existing {
		if e.Status == StatusPending || e.Status == StatusActive {
			return Enrollment{}, core.NewValidationError(ErrAlreadyEnrolled)
		}
	}

	now := time.Now().UTC()
	return svc.repo.CreateEnrollment(Enrollment{
		StudentID: ne.StudentID,
		FormulaID: ne.FormulaID,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) GetByID(id string) (Enrollment, error) {
	return svc.repo.GetEnrollmentByID(id)
}

func (svc *Service) Filter(filter QueryFilter) ([]Enrollment, error) {
	return svc.repo.FilterEnrollments(filter)
}

// Activate flips an enrollment to active, welcomes the student by email and
// notifies them.
func (svc *Service) Activate(id string) (Enrollment, error) {
	now := time.Now().UTC()
	enr, err := svc.repo.UpdateEnrollmentStatus(id, StatusActive, now, now)
	if err != nil {
		return Enrollment{}, err
	}

	formula, err := svc.repo.GetFormulaByID(enr.FormulaID)
	if err != nil {
		return enr, nil // enrollment is active; welcome extras are best-effort
	}

	if usr, err := svc.usrSvc.GetByID(enr.StudentID); err == nil && usr.Email != "" {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject: "Votre inscription est confirmée",
			BodyStr: fmt.Sprintf(
				"Bonjour %s,\n\nVotre inscription à la formule « %s » est active. Bon travail !",
				usr.Name, formula.Name,
			),
		})
	}

	svc.notifier.Publish(notification.Notification{
		UserID: enr.StudentID,
		Kind:   notification.KindEnrollmentActivated,
		Title:  "Inscription activée",
		Body:   fmt.Sprintf("Votre formule « %s » est maintenant active.", formula.Name),
		Data:   map[string]string{"enrollment_id": enr.ID, "formula_id": formula.ID},
	})
	return enr, nil
}

func (svc *Service) Cancel(id string) (Enrollment, error) {
	return svc.repo.UpdateEnrollmentStatus(id, StatusCancelled, time.Time{}, time.Now().UTC())
}

func (svc *Service) Complete(id string) (Enrollment, error) {
	return svc.repo.UpdateEnrollmentStatus(id, StatusCompleted, time.Time{}, time.Now().UTC())
}
