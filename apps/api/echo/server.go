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

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/academic"
	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/core/marks"
	"github.com/trezcool/campus/core/material"
	"github.com/trezcool/campus/core/news"
	"github.com/trezcool/campus/core/user"
)

type (
	Options struct {
		Conf          *core.Config
		Logger        core.Logger
		Validate      *validator.Validate
		Translator    ut.Translator
		UserSvc       user.Service
		AcademicSvc   academic.Service
		MarksSvc      marks.Service
		AttendanceSvc attendance.Service
		NewsSvc       news.Service
		MaterialSvc   material.Service
	}

	Server struct {
		opts     *Options
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(opts *Options) *Server {
	s := &Server{
		opts:     opts,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.opts.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     conf.Server.CORSOrigins,
		AllowCredentials: true,
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	api := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	registerAuthAPI(api.Group("/auth"), jwt, s.opts)
	registerPublicAPI(api.Group("/public"), s.opts)
	registerAdminAPI(api.Group("/admin", jwt, roleMiddleware(s.opts.UserSvc, user.RoleAdmin)), s.opts)
	registerTeacherAPI(api.Group("/teacher", jwt, roleMiddleware(s.opts.UserSvc, user.RoleTeacher)), s.opts)
	registerStudentAPI(api.Group("/student", jwt, roleMiddleware(s.opts.UserSvc, user.RoleStudent)), s.opts)
}

// Start listens in the background. Listening failures are sent to Errors().
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		s.opts.Logger.Info("API listening on " + s.opts.Conf.Server.Address)
		if err := s.app.Start(s.opts.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
			s.errors <- err
		}
	}()
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// signalShutdown asks main to shut the server down gracefully.
func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.opts.Conf.AppName+" API!")
}
