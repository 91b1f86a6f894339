// Package zjuam is a client for the zjuam.zju.edu.cn CAS single sign-on
// service. It performs the full browser-style login flow (entry page,
// execution value, public key, encrypted credential submission) and hands the
// resulting cookie jar to the session store under a deterministic token.
package zjuam

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// DefaultBaseURL is the production identity provider.
const DefaultBaseURL = "https://zjuam.zju.edu.cn"

// DefaultUserAgent mimics a current desktop browser; the provider serves a
// different, script-hostile page to unknown agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36 Edg/127.0.0.0"

// SetDefaultHeaders applies the outbound header set used for every request,
// both to the provider and to proxied targets.
func SetDefaultHeaders(h http.Header, userAgent string) {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	h.Set("User-Agent", userAgent)
	h.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	h.Set("Accept", "*/*")
}

// Credential is a username/password pair. It lives only for the duration of
// one login attempt or token derivation and is never persisted.
type Credential struct {
	Username string `json:"username" validate:"required,numeric,max=10"`
	Password string `json:"password" validate:"required,min=1,max=32"`
}

// ServiceEntry produces the URL that begins the login flow.
type ServiceEntry interface {
	EntryURL(baseURL string) string
}

// OAuthEntry identifies the target service by OAuth2 client id and redirect
// URI, entering through the provider's authorize endpoint.
type OAuthEntry struct {
	ResponseType string
	ClientID     string
	RedirectURI  string
}

func (e OAuthEntry) EntryURL(baseURL string) string {
	q := url.Values{}
	q.Set("response_type", e.ResponseType)
	q.Set("client_id", e.ClientID)
	q.Set("redirect_uri", e.RedirectURI)
	return baseURL + "/cas/oauth2.0/authorize?" + q.Encode()
}

// CASEntry identifies the target service by its callback URL.
type CASEntry struct {
	Service string
}

func (e CASEntry) EntryURL(baseURL string) string {
	q := url.Values{}
	q.Set("service", e.Service)
	return baseURL + "/cas/login?" + q.Encode()
}

// ServiceParams is the wire shape of a service description. Exactly one of
// the two variants must be populated: client_id/redirect_uri/response_type,
// or service.
type ServiceParams struct {
	ResponseType string `json:"response_type,omitempty"`
	ClientID     string `json:"client_id,omitempty" validate:"omitempty,alphanum,max=32"`
	RedirectURI  string `json:"redirect_uri,omitempty" validate:"omitempty,http_url"`
	Service      string `json:"service,omitempty" validate:"omitempty,http_url"`
}

// Entry resolves the wire shape to its variant.
func (p *ServiceParams) Entry() (ServiceEntry, error) {
	switch {
	case p.Service != "":
		if p.ClientID != "" {
			return nil, errors.New("service and client_id are mutually exclusive")
		}
		return CASEntry{Service: p.Service}, nil
	case p.ClientID != "":
		if p.ResponseType != "code" {
			return nil, fmt.Errorf("response_type must be %q, got %q", "code", p.ResponseType)
		}
		if p.RedirectURI == "" {
			return nil, errors.New("redirect_uri is required with client_id")
		}
		return OAuthEntry{
			ResponseType: p.ResponseType,
			ClientID:     p.ClientID,
			RedirectURI:  p.RedirectURI,
		}, nil
	}
	return nil, errors.New("service_params must carry either service or client_id")
}
