package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/conversation"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/principal"
	"github.com/trezcool/darasa/core/profile"
	"github.com/trezcool/darasa/core/questionnaire"
	"github.com/trezcool/darasa/core/wallet"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		Logger           core.Logger
		Resolver         *principal.Resolver
		ProfileSvc       *profile.Service
		CourseSvc        *course.Service
		AssignmentSvc    *assignment.Service
		ConversationSvc  *conversation.Service
		QuestionnaireSvc *questionnaire.Service
		WalletSvc        *wallet.Service
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
		// Shutdown signals that a fatal store error was caught and the
		// process should be brought down.
		Shutdown() <-chan struct{}
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		shutdown chan struct{}
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		shutdown: make(chan struct{}, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1", principalMiddleware(s.opts.Resolver))
	registerSessionAPI(v1)
	registerProfileAPI(v1, s.opts.ProfileSvc)
	registerCourseAPI(v1, s.opts.CourseSvc)
	registerAssignmentAPI(v1, s.opts.AssignmentSvc)
	registerConversationAPI(v1, s.opts.ConversationSvc)
	registerQuestionnaireAPI(v1, s.opts.QuestionnaireSvc)
	registerWalletAPI(v1, s.opts.WalletSvc)

	// trusted backend path: worker + ledger writes, guarded by the internal key
	internal := s.app.Group("/internal", internalKeyMiddleware())
	registerInternalAPI(internal, s.opts.ConversationSvc, s.opts.WalletSvc)
}

// signalShutdown is called by the error handler on fatal store failures.
func (s *server) signalShutdown() {
	select {
	case s.shutdown <- struct{}{}:
	default:
	}
}

// Shutdown is closed/signalled when the server must be brought down.
func (s *server) Shutdown() <-chan struct{} {
	return s.shutdown
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Darasa API!")
}
