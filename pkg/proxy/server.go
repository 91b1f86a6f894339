// Package proxy exposes the authenticating proxy over HTTP: it resolves a
// caller's token, credential or passphrase to a cached upstream session and
// forwards one request through it.
package proxy

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/amzju/amzju/pkg/config"
	"github.com/amzju/amzju/pkg/credstore"
	"github.com/amzju/amzju/pkg/session"
	"github.com/amzju/amzju/pkg/zjuam"
)

// TokenHeader carries the session token in both directions: callers present
// it on requests, and every proxy response re-issues it for reuse.
const TokenHeader = "Az-Token"

// LoginClient is the slice of the zjuam client the proxy needs. Split out so
// handler tests can substitute a counting fake.
type LoginClient interface {
	Login(ctx context.Context, entry zjuam.ServiceEntry, cred zjuam.Credential) (string, http.CookieJar, error)
	DeriveToken(cred zjuam.Credential) string
}

type Server struct {
	config          *config.Config
	store           *session.Store[string, http.CookieJar]
	login           LoginClient
	creds           *credstore.Store
	usernamePattern *regexp.Regexp
	echo            *echo.Echo
}

type customValidator struct {
	validator *validator.Validate
}

func (cv *customValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func New(cfg *config.Config, store *session.Store[string, http.CookieJar], login LoginClient, creds *credstore.Store) (*Server, error) {
	usernamePattern, err := regexp.Compile(cfg.UsernamePattern)
	if err != nil {
		return nil, fmt.Errorf("username_pattern: %w", err)
	}

	s := &Server{
		config:          cfg,
		store:           store,
		login:           login,
		creds:           creds,
		usernamePattern: usernamePattern,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &customValidator{validator: validator.New()}
	e.Use(middleware.Recover())

	if len(cfg.CORSAllowOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:  cfg.CORSAllowOrigins,
			AllowMethods:  []string{"*"},
			AllowHeaders:  []string{"*"},
			ExposeHeaders: []string{TokenHeader},
		}))
	}

	e.POST("/login", s.handleLogin)
	e.POST("/proxy/text", s.handleTextProxy)
	if cfg.DocsEnabled {
		e.GET("/docs", s.handleDocs)
	}

	s.echo = e
	return s, nil
}

// Handler exposes the routing tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// ListenAndServe runs the server until ctx is cancelled or the listener
// fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.echo.Shutdown(context.Background())
	}()
	return s.echo.Start(s.config.Address)
}
