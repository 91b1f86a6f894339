package zjuam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/amzju/amzju/pkg/session"
)

// ClientConfig configures the login client. Zero values fall back to the
// production provider and sensible timeouts.
type ClientConfig struct {
	BaseURL         string
	UserAgent       string
	RequestTimeout  time.Duration
	SessionDuration time.Duration
}

// Client executes the CAS login flow against the identity provider and
// caches successful sessions in the shared store.
type Client struct {
	baseURL    string
	baseHost   string
	userAgent  string
	timeout    time.Duration
	sessionTTL time.Duration
	tokens     *TokenSource
	store      *session.Store[string, http.CookieJar]
}

func NewClient(config ClientConfig, store *session.Store[string, http.CookieJar]) (*Client, error) {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 15 * time.Second
	}
	if config.SessionDuration <= 0 {
		config.SessionDuration = time.Hour
	}

	base, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse provider base URL: %w", err)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("provider base URL has no host: %q", config.BaseURL)
	}

	tokens, err := NewTokenSource()
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		baseHost:   base.Host,
		userAgent:  config.UserAgent,
		timeout:    config.RequestTimeout,
		sessionTTL: config.SessionDuration,
		tokens:     tokens,
		store:      store,
	}, nil
}

// SessionDuration is the TTL given to sessions created by Login.
func (c *Client) SessionDuration() time.Duration {
	return c.sessionTTL
}

// DeriveToken computes the token a successful Login with cred would produce.
func (c *Client) DeriveToken(cred Credential) string {
	return c.tokens.Derive(cred.Username, cred.Password)
}

// underProviderDomain implements the administrative domain confinement rule:
// the flow's resolved URLs must stay on the provider host until credentials
// have been submitted.
func (c *Client) underProviderDomain(u *url.URL) bool {
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host == c.baseHost
}

// Login runs the credential submission flow and, on success, stores the
// accumulated cookie jar under the derived token. Every failure is one of
// the exported *Error classes or a wrapped transport error; nothing is
// retried.
func (c *Client) Login(ctx context.Context, entry ServiceEntry, cred Credential) (string, http.CookieJar, error) {
	// fresh jar per attempt so no cookies leak between credentials
	jar, err := cookiejar.New(nil)
	if err != nil {
		return "", nil, fmt.Errorf("new cookie jar: %w", err)
	}
	httpClient := &http.Client{Jar: jar, Timeout: c.timeout}

	entryURL := entry.EntryURL(c.baseURL)
	resp, err := c.get(ctx, httpClient, entryURL, "")
	if err != nil {
		return "", nil, classify(err, "fetch login page")
	}
	finalURL := resp.Request.URL
	execution, err := extractExecution(resp.Body)
	resp.Body.Close()
	if err != nil {
		slog.Debug("Execution value missing from login page", "url", finalURL.String(), "error", err)
		return "", nil, ErrLoginPageShape
	}

	if !c.underProviderDomain(finalURL) {
		slog.Warn("Login flow left the provider domain before submission", "url", finalURL.String())
		return "", nil, ErrMisdirectedFlow
	}

	key, err := c.fetchPublicKey(ctx, httpClient, finalURL.String())
	if err != nil {
		return "", nil, err
	}

	form := url.Values{
		"username":  {cred.Username},
		"password":  {EncryptPassword(cred.Password, key)},
		"authcode":  {""},
		"execution": {execution},
		"_eventId":  {"submit"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, finalURL.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", nil, fmt.Errorf("build submission request: %w", err)
	}
	SetDefaultHeaders(req.Header, c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	result, err := httpClient.Do(req)
	if err != nil {
		return "", nil, classify(err, "submit credentials")
	}
	io.Copy(io.Discard, result.Body)
	result.Body.Close()

	// success means the final redirect took us off the provider domain;
	// staying on it means we were bounced back to the login page
	if c.underProviderDomain(result.Request.URL) {
		return "", nil, ErrCredentialsRejected
	}

	token := c.tokens.Derive(cred.Username, cred.Password)
	c.store.Put(token, jar, c.sessionTTL)
	slog.Info("Login succeeded", "username", cred.Username, "service_host", result.Request.URL.Host)
	return token, jar, nil
}

func (c *Client) get(ctx context.Context, httpClient *http.Client, rawURL, referer string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	SetDefaultHeaders(req.Header, c.userAgent)
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	return httpClient.Do(req)
}

func (c *Client) fetchPublicKey(ctx context.Context, httpClient *http.Client, referer string) (*PublicKey, error) {
	resp, err := c.get(ctx, httpClient, c.baseURL+"/cas/v2/getPubKey", referer)
	if err != nil {
		return nil, classify(err, "fetch public key")
	}
	defer resp.Body.Close()

	var key PublicKey
	if err := json.NewDecoder(resp.Body).Decode(&key); err != nil {
		slog.Debug("Public key response not understood", "error", err)
		return nil, ErrPublicKeyShape
	}
	return &key, nil
}

// extractExecution pulls the one-time anti-forgery value out of the login
// page, a hidden input named "execution".
func extractExecution(body io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", err
	}
	value, ok := doc.Find(`input[name="execution"]`).First().Attr("value")
	if !ok || value == "" {
		return "", errors.New("execution input not found")
	}
	return value, nil
}
