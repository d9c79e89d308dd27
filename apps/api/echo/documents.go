package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nexus-reussite/backend/core/assembly"
	"github.com/nexus-reussite/backend/core/content"
	"github.com/nexus-reussite/backend/core/notification"
)

type documentApi struct {
	engine     *assembly.Engine
	notifier   notification.Notifier
	validate   *validator.Validate
	translator ut.Translator
}

func registerDocumentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	engine *assembly.Engine,
	notifier notification.Notifier,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := documentApi{
		engine:     engine,
		notifier:   notifier,
		validate:   validate,
		translator: translator,
	}

	dg := g.Group("/documents", jwt)

	dg.POST("/generate", api.generate)
	dg.GET("/templates", api.templates)
	dg.GET("/suggest", api.suggest)
	dg.GET("/gaps", api.gaps, teacherMiddleware())
}

func (api *documentApi) generate(ctx echo.Context) error {
	var data assembly.Request
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to assembly.Request")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	doc, err := api.engine.GenerateDocument(data)
	if err != nil {
		return err
	}

	api.notifier.Publish(notification.Notification{
		UserID: claims.Subject,
		Kind:   notification.KindDocumentGenerated,
		Title:  "Document prêt",
		Body:   doc.Title,
		Data:   map[string]string{"document_id": doc.ID},
	})
	return ctx.JSON(http.StatusOK, doc)
}

func (api *documentApi) templates(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.engine.Templates())
}

func (api *documentApi) suggest(ctx echo.Context) error {
	profile := content.Profile(ctx.QueryParam("profile"))
	step := content.LearningStep(ctx.QueryParam("learning_step"))
	return ctx.JSON(http.StatusOK, echo.Map{
		"document_type": api.engine.SuggestDocumentType(profile, step),
	})
}

func (api *documentApi) gaps(ctx echo.Context) error {
	subject := content.Subject(ctx.QueryParam("subject"))
	if !subject.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown subject")
	}

	report, err := api.engine.AnalyzeContentGaps(subject, ctx.QueryParam("chapter"))
	if err != nil {
		return errors.Wrap(err, "analyzing content gaps")
	}
	return ctx.JSON(http.StatusOK, report)
}
