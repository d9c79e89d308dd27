package sqlxrepos

import (
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/nexus-reussite/backend/core"
	"github.com/nexus-reussite/backend/core/content"
	"github.com/nexus-reussite/backend/core/enrollment"
)

const (
	formulaTable    = "formula"
	enrollmentTable = "enrollment"
)

var (
	formulaColumns = []string{
		"id", "name", "description", "subjects", "hours_per_week",
		"monthly_price_tnd", "is_active", "created_at", "updated_at",
	}
	enrollmentColumns = []string{
		"id", "student_id", "formula_id", "status", "started_at", "created_at", "updated_at",
	}
)

type formulaRow struct {
	ID              string         `db:"id"`
	Name            string         `db:"name"`
	Description     string         `db:"description"`
	Subjects        pq.StringArray `db:"subjects"`
	HoursPerWeek    int            `db:"hours_per_week"`
	MonthlyPriceTND float64        `db:"monthly_price_tnd"`
	IsActive        bool           `db:"is_active"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (r *formulaRow) toFormula() enrollment.Formula {
	subjects := make([]content.Subject, 0, len(r.Subjects))
	for _, s := range r.Subjects {
		subjects = append(subjects, content.Subject(s))
	}
	return enrollment.Formula{
		ID:              r.ID,
		Name:            r.Name,
		Description:     r.Description,
		Subjects:        subjects,
		HoursPerWeek:    r.HoursPerWeek,
		MonthlyPriceTND: r.MonthlyPriceTND,
		IsActive:        r.IsActive,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type enrollmentRow struct {
	ID        string    `db:"id"`
	StudentID string    `db:"student_id"`
	FormulaID string    `db:"formula_id"`
	Status    string    `db:"status"`
	StartedAt null.Time `db:"started_at"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *enrollmentRow) toEnrollment() enrollment.Enrollment {
	return enrollment.Enrollment{
		ID:        r.ID,
		StudentID: r.StudentID,
		FormulaID: r.FormulaID,
		Status:    enrollment.Status(r.Status),
		StartedAt: r.StartedAt.Time,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type enrollmentRepository struct {
	db *sqlx.DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *sqlx.DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (repo enrollmentRepository) trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func (repo enrollmentRepository) CreateFormula(f enrollment.Formula) (enrollment.Formula, error) {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	subjects := make(pq.StringArray, 0, len(f.Subjects))
	for _, s := range f.Subjects {
		subjects = append(subjects, string(s))
	}

	query, args, err := psql.Insert(formulaTable).
		Columns(formulaColumns...).
		Values(
			f.ID, f.Name, f.Description, subjects, f.HoursPerWeek,
			f.MonthlyPriceTND, f.IsActive, f.CreatedAt.UTC(), f.UpdatedAt.UTC(),
		).
		ToSql()
	if err != nil {
		return enrollment.Formula{}, errors.Wrap(err, "building formula insert")
	}
	if _, err = repo.db.Exec(query, args...); err != nil {
		return enrollment.Formula{}, core.NewStorageError("inserting formula", err)
	}
	return f, nil
}

func (repo enrollmentRepository) QueryAllFormulas() ([]enrollment.Formula, error) {
	query, args, err := psql.Select(formulaColumns...).From(formulaTable).
		OrderBy("monthly_price_tnd ASC", "id ASC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building formula query")
	}
	var rows []formulaRow
	if err = repo.db.Select(&rows, query, args...); err != nil {
		return nil, core.NewStorageError("querying formulas", err)
	}
	formulas := make([]enrollment.Formula, 0, len(rows))
	for i := range rows {
		formulas = append(formulas, rows[i].toFormula())
	}
	return formulas, nil
}

func (repo enrollmentRepository) GetFormulaByID(id string) (enrollment.Formula, error) {
	query, args, err := psql.Select(formulaColumns...).From(formulaTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return enrollment.Formula{}, errors.Wrap(err, "building formula query")
	}
	var row formulaRow
	if err = repo.db.Get(&row, query, args...); err != nil {
		return enrollment.Formula{}, repo.trapNoRowsErr(err, enrollment.ErrFormulaNotFound, "getting formula by id")
	}
	return row.toFormula(), nil
}

func (repo enrollmentRepository) UpdateFormula(f enrollment.Formula, isActive *bool) (enrollment.Formula, error) {
	qb := psql.Update(formulaTable).Where(sq.Eq{"id": f.ID})
	if f.Name != "" {
		qb = qb.Set("name", f.Name)
	}
	if f.Description != "" {
		qb = qb.Set("description", f.Description)
	}
	if f.Subjects != nil {
		subjects := make(pq.StringArray, 0, len(f.Subjects))
		for _, s := range f.Subjects {
			subjects = append(subjects, string(s))
		}
		qb = qb.Set("subjects", subjects)
	}
	if f.HoursPerWeek > 0 {
		qb = qb.Set("hours_per_week", f.HoursPerWeek)
	}
	if f.MonthlyPriceTND > 0 {
		qb = qb.Set("monthly_price_tnd", f.MonthlyPriceTND)
	}
	if isActive != nil {
		qb = qb.Set("is_active", *isActive)
	}
	if !f.UpdatedAt.IsZero() {
		qb = qb.Set("updated_at", f.UpdatedAt.UTC())
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return enrollment.Formula{}, errors.Wrap(err, "building formula update")
	}
	res, err := repo.db.Exec(query, args...)
	if err != nil {
		return enrollment.Formula{}, core.NewStorageError("updating formula", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return enrollment.Formula{}, enrollment.ErrFormulaNotFound
	}
	return repo.GetFormulaByID(f.ID)
}

func (repo enrollmentRepository) DeleteFormulasByID(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := psql.Delete(formulaTable).Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building formula delete")
	}
	if _, err = repo.db.Exec(query, args...); err != nil {
		return core.NewStorageError("deleting formulas", err)
	}
	return nil
}

func (repo enrollmentRepository) CreateEnrollment(e enrollment.Enrollment) (enrollment.Enrollment, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	query, args, err := psql.Insert(enrollmentTable).
		Columns(enrollmentColumns...).
		Values(
			e.ID, e.StudentID, e.FormulaID, string(e.Status),
			null.NewTime(e.StartedAt.UTC(), !e.StartedAt.IsZero()),
			e.CreatedAt.UTC(), e.UpdatedAt.UTC(),
		).
		ToSql()
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "building enrollment insert")
	}
	if _, err = repo.db.Exec(query, args...); err != nil {
		return enrollment.Enrollment{}, core.NewStorageError("inserting enrollment", err)
	}
	return e, nil
}

func (repo enrollmentRepository) GetEnrollmentByID(id string) (enrollment.Enrollment, error) {
	query, args, err := psql.Select(enrollmentColumns...).From(enrollmentTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "building enrollment query")
	}
	var row enrollmentRow
	if err = repo.db.Get(&row, query, args...); err != nil {
		return enrollment.Enrollment{}, repo.trapNoRowsErr(err, enrollment.ErrNotFound, "getting enrollment by id")
	}
	return row.toEnrollment(), nil
}

func (repo enrollmentRepository) FilterEnrollments(filter enrollment.QueryFilter) ([]enrollment.Enrollment, error) {
	qb := psql.Select(enrollmentColumns...).From(enrollmentTable)
	if filter.StudentID != "" {
		qb = qb.Where(sq.Eq{"student_id": filter.StudentID})
	}
	if filter.FormulaID != "" {
		qb = qb.Where(sq.Eq{"formula_id": filter.FormulaID})
	}
	if filter.Status != "" {
		qb = qb.Where(sq.Eq{"status": string(filter.Status)})
	}

	query, args, err := qb.OrderBy("created_at DESC", "id ASC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building enrollment filter")
	}
	var rows []enrollmentRow
	if err = repo.db.Select(&rows, query, args...); err != nil {
		return nil, core.NewStorageError("filtering enrollments", err)
	}
	enrollments := make([]enrollment.Enrollment, 0, len(rows))
	for i := range rows {
		enrollments = append(enrollments, rows[i].toEnrollment())
	}
	return enrollments, nil
}

func (repo enrollmentRepository) UpdateEnrollmentStatus(id string, status enrollment.Status, startedAt, updatedAt time.Time) (enrollment.Enrollment, error) {
	qb := psql.Update(enrollmentTable).
		Set("status", string(status)).
		Set("updated_at", updatedAt.UTC()).
		Where(sq.Eq{"id": id})
	if !startedAt.IsZero() {
		qb = qb.Set("started_at", startedAt.UTC())
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "building enrollment update")
	}
	res, err := repo.db.Exec(query, args...)
	if err != nil {
		return enrollment.Enrollment{}, core.NewStorageError("updating enrollment status", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	return repo.GetEnrollmentByID(id)
}
