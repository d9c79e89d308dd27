package inmemdb

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/nexus-reussite/backend/core/enrollment"
)

type enrollmentRepository struct {
	formulas    *formulaTable
	enrollments *enrollmentTable
}

var _ enrollment.Repository = (*enrollmentRepository)(nil)

func NewEnrollmentRepository(db *DB) enrollment.Repository {
	return &enrollmentRepository{formulas: db.formula, enrollments: db.enrollment}
}

// Formulas

func (repo *enrollmentRepository) CreateFormula(f enrollment.Formula) (enrollment.Formula, error) {
	repo.formulas.Lock()
	defer repo.formulas.Unlock()

	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	repo.formulas.table[f.ID] = &f
	return f, nil
}

func (repo *enrollmentRepository) QueryAllFormulas() ([]enrollment.Formula, error) {
	repo.formulas.RLock()
	defer repo.formulas.RUnlock()

	formulas := make([]enrollment.Formula, 0, len(repo.formulas.table))
	for _, f := range repo.formulas.table {
		formulas = append(formulas, *f)
	}
	sort.Slice(formulas, func(i, j int) bool { return formulas[i].Name < formulas[j].Name })
	return formulas, nil
}

func (repo *enrollmentRepository) GetFormulaByID(id string) (enrollment.Formula, error) {
	repo.formulas.RLock()
	defer repo.formulas.RUnlock()

	if f, ok := repo.formulas.table[id]; ok {
		return *f, nil
	}
	return enrollment.Formula{}, enrollment.ErrFormulaNotFound
}

func (repo *enrollmentRepository) UpdateFormula(f enrollment.Formula, isActive *bool) (enrollment.Formula, error) {
	repo.formulas.Lock()
	defer repo.formulas.Unlock()

	orig, ok := repo.formulas.table[f.ID]
	if !ok {
		return enrollment.Formula{}, enrollment.ErrFormulaNotFound
	}
	if f.Name != "" {
		orig.Name = f.Name
	}
	if f.Description != "" {
		orig.Description = f.Description
	}
	if f.Subjects != nil {
		orig.Subjects = f.Subjects
	}
	if f.HoursPerWeek != 0 {
		orig.HoursPerWeek = f.HoursPerWeek
	}
	if f.MonthlyPriceTND != 0 {
		orig.MonthlyPriceTND = f.MonthlyPriceTND
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	if !f.UpdatedAt.IsZero() {
		orig.UpdatedAt = f.UpdatedAt
	}
	repo.formulas.table[f.ID] = orig
	return *orig, nil
}

func (repo *enrollmentRepository) DeleteFormulasByID(ids ...string) error {
	repo.formulas.Lock()
	defer repo.formulas.Unlock()
	for _, id := range ids {
		delete(repo.formulas.table, id)
	}
	return nil
}

// Enrollments

func (repo *enrollmentRepository) CreateEnrollment(e enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.enrollments.Lock()
	defer repo.enrollments.Unlock()

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	repo.enrollments.table[e.ID] = &e
	return e, nil
}

func (repo *enrollmentRepository) GetEnrollmentByID(id string) (enrollment.Enrollment, error) {
	repo.enrollments.RLock()
	defer repo.enrollments.RUnlock()

	if e, ok := repo.enrollments.table[id]; ok {
		return *e, nil
	}
	return enrollment.Enrollment{}, enrollment.ErrNotFound
}

func (repo *enrollmentRepository) FilterEnrollments(filter enrollment.QueryFilter) ([]enrollment.Enrollment, error) {
	repo.enrollments.RLock()
	defer repo.enrollments.RUnlock()

	var out []enrollment.Enrollment
	for _, e := range repo.enrollments.table {
		if filter.StudentID != "" && e.StudentID != filter.StudentID {
			continue
		}
		if filter.FormulaID != "" && e.FormulaID != filter.FormulaID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (repo *enrollmentRepository) UpdateEnrollmentStatus(id string, status enrollment.Status, startedAt, updatedAt time.Time) (enrollment.Enrollment, error) {
	repo.enrollments.Lock()
	defer repo.enrollments.Unlock()

	e, ok := repo.enrollments.table[id]
	if !ok {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	e.Status = status
	if !startedAt.IsZero() {
		e.StartedAt = startedAt
	}
	e.UpdatedAt = updatedAt
	return *e, nil
}
