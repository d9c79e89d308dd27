package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nexus-reussite/backend/core/conference"
)

type conferenceApi struct {
	svc        *conference.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerConferenceAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *conference.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := conferenceApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	rg := g.Group("/rooms", jwt)

	rg.POST("", api.schedule, teacherMiddleware())
	rg.GET("", api.query)
	rg.GET("/:id", api.retrieve)
	rg.POST("/:id/join", api.join)
	rg.POST("/:id/start", api.start, teacherMiddleware())
	rg.POST("/:id/end", api.end, teacherMiddleware())
}

func (api *conferenceApi) schedule(ctx echo.Context) error {
	var data conference.NewRoom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRoom")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	room, err := api.svc.Schedule(claims.Subject, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, room)
}

func (api *conferenceApi) query(ctx echo.Context) error {
	filter := new(conference.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []conference.Room{})
	}

	rooms, err := api.svc.Filter(*filter)
	if err != nil {
		return errors.Wrap(err, "filtering rooms")
	}
	if rooms == nil {
		rooms = []conference.Room{}
	}
	return ctx.JSON(http.StatusOK, rooms)
}

func (api *conferenceApi) retrieve(ctx echo.Context) error {
	room, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, room)
}

func (api *conferenceApi) join(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	room, token, err := api.svc.Join(ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"room": room, "join_token": token})
}

func (api *conferenceApi) start(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	room, err := api.svc.Start(ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, room)
}

func (api *conferenceApi) end(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	room, err := api.svc.End(ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, room)
}
