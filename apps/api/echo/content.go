package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nexus-reussite/backend/core/content"
)

type contentApi struct {
	svc        *content.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerContentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *content.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := contentApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	bg := g.Group("/bricks", jwt)

	bg.POST("", api.create, teacherMiddleware())
	bg.GET("", api.search)
	bg.GET("/stats", api.stats, teacherMiddleware())
	bg.GET("/:id", api.retrieve)
	bg.PUT("/:id", api.update, teacherMiddleware())
	bg.DELETE("/:id", api.destroy, adminMiddleware())
	bg.POST("/:id/rate", api.rate)
}

func (api *contentApi) create(ctx echo.Context) error {
	var data content.NewBrick
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBrick")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	brick, err := api.svc.Create(claims.Subject, claims.Username, data)
	if err != nil {
		return errors.Wrap(err, "creating brick")
	}
	return ctx.JSON(http.StatusCreated, brick)
}

func (api *contentApi) search(ctx echo.Context) error {
	filter := new(content.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []content.Brick{})
	}
	filter.Clean()

	bricks, err := api.svc.Filter(*filter)
	if err != nil {
		return errors.Wrap(err, "filtering bricks")
	}
	if bricks == nil {
		bricks = []content.Brick{}
	}
	return ctx.JSON(http.StatusOK, bricks)
}

func (api *contentApi) retrieve(ctx echo.Context) error {
	brick, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, brick)
}

func (api *contentApi) update(ctx echo.Context) error {
	var data content.UpdateBrick
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateBrick")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	brick, err := api.svc.Update(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, brick)
}

func (api *contentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting brick")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *contentApi) rate(ctx echo.Context) error {
	var data content.NewRating
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRating")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	brick, err := api.svc.Rate(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, brick)
}

func (api *contentApi) stats(ctx echo.Context) error {
	stats, err := api.svc.Stats()
	if err != nil {
		return errors.Wrap(err, "querying brick stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}
