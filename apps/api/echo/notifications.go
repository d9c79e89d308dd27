package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nexus-reussite/backend/core/notification"
)

type notificationApi struct {
	hub *notification.Hub
}

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, hub *notification.Hub) {
	api := notificationApi{hub: hub}

	ng := g.Group("/notifications", jwt)
	ng.GET("", api.recent)
}

// recent returns the user's latest notifications; clients poll this endpoint.
func (api *notificationApi) recent(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	limit := 20
	if raw := ctx.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	notifs := api.hub.Recent(claims.Subject, limit)
	if notifs == nil {
		notifs = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, notifs)
}
