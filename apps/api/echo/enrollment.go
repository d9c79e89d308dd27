package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nexus-reussite/backend/core/enrollment"
)

type enrollmentApi struct {
	svc        *enrollment.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerEnrollmentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *enrollment.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := enrollmentApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	fg := g.Group("/formulas", jwt)
	fg.GET("", api.queryFormulas)
	fg.POST("", api.createFormula, adminMiddleware())
	fg.DELETE("/:id", api.destroyFormula, adminMiddleware())

	eg := g.Group("/enrollments", jwt)
	eg.POST("", api.enroll)
	eg.GET("", api.query)
	eg.GET("/:id", api.retrieve)
	eg.POST("/:id/activate", api.activate, adminMiddleware())
	eg.POST("/:id/cancel", api.cancel)
	eg.POST("/:id/complete", api.complete, adminMiddleware())
}

func (api *enrollmentApi) queryFormulas(ctx echo.Context) error {
	formulas, err := api.svc.QueryFormulas()
	if err != nil {
		return errors.Wrap(err, "querying formulas")
	}
	if formulas == nil {
		formulas = []enrollment.Formula{}
	}
	return ctx.JSON(http.StatusOK, formulas)
}

func (api *enrollmentApi) createFormula(ctx echo.Context) error {
	var data enrollment.NewFormula
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFormula")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	formula, err := api.svc.CreateFormula(data)
	if err != nil {
		return errors.Wrap(err, "creating formula")
	}
	return ctx.JSON(http.StatusCreated, formula)
}

func (api *enrollmentApi) destroyFormula(ctx echo.Context) error {
	if err := api.svc.DeleteFormulas(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting formula")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *enrollmentApi) enroll(ctx echo.Context) error {
	var data enrollment.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	// students can only enroll themselves
	if claims.IsStudent && !claims.IsAdmin && data.StudentID != claims.Subject {
		return errHttpForbidden
	}

	enr, err := api.svc.Enroll(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *enrollmentApi) query(ctx echo.Context) error {
	filter := new(enrollment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []enrollment.Enrollment{})
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	// non-admins only see their own enrollments
	if !claims.IsAdmin && !claims.IsTeacher {
		filter.StudentID = claims.Subject
	}

	enrollments, err := api.svc.Filter(*filter)
	if err != nil {
		return errors.Wrap(err, "filtering enrollments")
	}
	if enrollments == nil {
		enrollments = []enrollment.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *enrollmentApi) retrieve(ctx echo.Context) error {
	enr, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin && !claims.IsTeacher && enr.StudentID != claims.Subject {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentApi) activate(ctx echo.Context) error {
	enr, err := api.svc.Activate(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentApi) cancel(ctx echo.Context) error {
	enr, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin && enr.StudentID != claims.Subject {
		return errHttpForbidden
	}

	enr, err = api.svc.Cancel(enr.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentApi) complete(ctx echo.Context) error {
	enr, err := api.svc.Complete(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, enr)
}
