package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nexus-reussite/backend/core/aria"
)

type ariaApi struct {
	svc        *aria.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerAriaAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *aria.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := ariaApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	ag := g.Group("/aria", jwt)

	ag.POST("/ask", api.ask)
	ag.GET("/history", api.history)
	ag.DELETE("/history", api.reset)
}

func (api *ariaApi) ask(ctx echo.Context) error {
	var data aria.Question
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Question")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	answer, err := api.svc.Ask(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "asking assistant")
	}
	return ctx.JSON(http.StatusOK, answer)
}

func (api *ariaApi) history(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	msgs := api.svc.History(claims.Subject)
	if msgs == nil {
		msgs = []aria.Message{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *ariaApi) reset(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	api.svc.Reset(claims.Subject)
	return ctx.NoContent(http.StatusNoContent)
}
