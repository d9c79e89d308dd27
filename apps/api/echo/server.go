package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/nexus-reussite/backend/core"
	"github.com/nexus-reussite/backend/core/aria"
	"github.com/nexus-reussite/backend/core/assembly"
	"github.com/nexus-reussite/backend/core/conference"
	"github.com/nexus-reussite/backend/core/content"
	"github.com/nexus-reussite/backend/core/enrollment"
	"github.com/nexus-reussite/backend/core/notification"
	"github.com/nexus-reussite/backend/core/user"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		UserSvc        user.ServiceInterface
		ContentSvc     *content.Service
		Engine         *assembly.Engine
		EnrollSvc      *enrollment.Service
		ConferenceSvc  *conference.Service
		AriaSvc        *aria.Service
		Hub            *notification.Hub
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps       ServerDeps
		app        *echo.Echo
		errCh      chan error
		shutdownCh chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:       deps,
		app:        echo.New(),
		errCh:      make(chan error, 1),
		shutdownCh: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdownCh, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	registerUserAPI(v1, jwt, s.deps.Conf, s.deps.UserSvc, s.deps.Validate, s.deps.Translator)
	registerContentAPI(v1, jwt, s.deps.ContentSvc, s.deps.Validate, s.deps.Translator)
	registerDocumentAPI(v1, jwt, s.deps.Engine, s.deps.Hub, s.deps.Validate, s.deps.Translator)
	registerEnrollmentAPI(v1, jwt, s.deps.EnrollSvc, s.deps.Validate, s.deps.Translator)
	registerConferenceAPI(v1, jwt, s.deps.ConferenceSvc, s.deps.Validate, s.deps.Translator)
	registerAriaAPI(v1, jwt, s.deps.AriaSvc, s.deps.Validate, s.deps.Translator)
	registerNotificationAPI(v1, jwt, s.deps.Hub)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errCh <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errCh
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdownCh
}

// signalShutdown triggers a graceful shutdown from within a request handler.
func (s *server) signalShutdown() {
	s.shutdownCh <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Bienvenue sur l'API Nexus Réussite !")
}
