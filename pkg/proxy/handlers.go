package proxy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/amzju/amzju/pkg/credstore"
	"github.com/amzju/amzju/pkg/zjuam"
)

var methodPattern = regexp.MustCompile(`^[A-Z]{1,10}$`)

var errTargetTimeout = &zjuam.Error{
	HttpStatus:  http.StatusGatewayTimeout,
	Code:        "target_timeout",
	Description: "proxied target did not answer in time",
}

type loginRequest struct {
	ServiceParams zjuam.ServiceParams `json:"service_params" validate:"required"`
	Credential    zjuam.Credential    `json:"credential" validate:"required"`
}

type proxyRequest struct {
	Method  string            `json:"method" validate:"required"`
	URL     string            `json:"url" validate:"required,http_url"`
	Headers map[string]string `json:"headers"`
	Body    *string           `json:"body"`

	ServiceParams *zjuam.ServiceParams `json:"service_params"`
	Credential    *zjuam.Credential    `json:"credential"`
	Passphrase    string               `json:"passphrase"`
	// longest acceptable age of a reused session, seconds; 0 forces a fresh
	// login on every request
	RefreshAfter *int `json:"refresh_after" validate:"omitempty,gte=0,lte=315360000"`
}

func (s *Server) handleLogin(c echo.Context) error {
	req := new(loginRequest)
	if err := c.Bind(req); err != nil {
		return err
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	if !s.usernamePattern.MatchString(req.Credential.Username) {
		return echo.NewHTTPError(http.StatusForbidden, "username not allowed")
	}

	entry, err := req.ServiceParams.Entry()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, _, err := s.login.Login(c.Request().Context(), entry, req.Credential)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleTextProxy(c echo.Context) error {
	req := new(proxyRequest)
	if err := c.Bind(req); err != nil {
		return err
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	if !methodPattern.MatchString(req.Method) {
		return echo.NewHTTPError(http.StatusBadRequest, "method must match ^[A-Z]{1,10}$")
	}

	jar, token, err := s.ensureSession(c, req)
	if err != nil {
		return writeError(c, err)
	}

	resp, err := s.forward(c.Request().Context(), jar, req)
	if err != nil {
		return writeError(c, err)
	}
	defer resp.Body.Close()

	header := c.Response().Header()
	for k, values := range resp.Header {
		for _, v := range values {
			header.Add(k, v)
		}
	}
	header.Set(TokenHeader, token)
	c.Response().WriteHeader(resp.StatusCode)
	_, err = io.Copy(c.Response(), resp.Body)
	return err
}

// ensureSession resolves the caller's auth material to a usable session,
// logging in when the cache cannot serve one. A supplied token wins over
// credentials as long as its session is fresh enough.
func (s *Server) ensureSession(c echo.Context, req *proxyRequest) (http.CookieJar, string, error) {
	token := c.Request().Header.Get(TokenHeader)
	cred := req.Credential

	passphraseSourced := false
	if req.Passphrase != "" {
		var pc credstore.PrivateCredential
		ok := false
		if s.creds != nil {
			pc, ok = s.creds.Resolve(req.Passphrase)
		}
		if !ok {
			return nil, "", echo.NewHTTPError(http.StatusUnauthorized, "passphrase not accepted")
		}
		// operator-curated credential overrides whatever the caller sent
		cred = &zjuam.Credential{Username: pc.Username, Password: pc.Password}
		passphraseSourced = true
	}

	maxAge := s.config.SessionTTL()
	if req.RefreshAfter != nil {
		maxAge = time.Duration(*req.RefreshAfter) * time.Second
	}

	// holders of the raw credential may use the deterministic token without
	// having received one first
	if token == "" && maxAge > 0 && cred != nil {
		token = s.login.DeriveToken(*cred)
	}

	if token != "" && maxAge > 0 {
		// the margin demands the session stays valid for the part of its
		// lifetime the caller did not consent to spend
		margin := s.config.SessionTTL() - maxAge
		if margin < 0 {
			margin = 0
		}
		if jar, _, ok := s.store.Get(token, margin); ok {
			return jar, token, nil
		}
	}

	if cred == nil || req.ServiceParams == nil {
		return nil, "", echo.NewHTTPError(http.StatusUnauthorized, "session missing or expired and no credential supplied")
	}
	if !passphraseSourced && !s.usernamePattern.MatchString(cred.Username) {
		return nil, "", echo.NewHTTPError(http.StatusForbidden, "username not allowed")
	}

	entry, err := req.ServiceParams.Entry()
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	freshToken, jar, err := s.login.Login(c.Request().Context(), entry, *cred)
	if err != nil {
		return nil, "", err
	}
	return jar, freshToken, nil
}

// forward issues the caller's request through the session's cookie jar and
// returns the upstream response untouched.
func (s *Server) forward(ctx context.Context, jar http.CookieJar, req *proxyRequest) (*http.Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = strings.NewReader(*req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	zjuam.SetDefaultHeaders(httpReq.Header, s.config.UserAgent)
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	client := &http.Client{Jar: jar, Timeout: s.config.Timeout()}
	resp, err := client.Do(httpReq)
	if err != nil {
		if zjuam.IsTimeout(err) {
			return nil, errTargetTimeout
		}
		slog.Error("Forwarding failed", "method", req.Method, "url", req.URL, "error", err)
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "proxy request failed")
	}
	return resp, nil
}

// writeError renders classified errors with their own status and hides
// everything else behind an opaque 500.
func writeError(c echo.Context, err error) error {
	var classified *zjuam.Error
	if errors.As(err, &classified) {
		return c.JSON(classified.HttpStatus, classified)
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}
	slog.Error("Unexpected failure", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

func (s *Server) handleDocs(c echo.Context) error {
	return c.JSONPretty(http.StatusOK, map[string]any{
		"endpoints": []map[string]string{
			{
				"method":      http.MethodPost,
				"path":        "/login",
				"description": "perform the SSO login and return a session token",
			},
			{
				"method":      http.MethodPost,
				"path":        "/proxy/text",
				"description": "forward a text-bodied HTTP request through an authenticated session",
			},
		},
		"token_header": TokenHeader,
	}, "  ")
}
