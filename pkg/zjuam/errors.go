package zjuam

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Error carries the caller-visible outcome class of a failed login or proxy
// attempt. Each class maps to a distinct HTTP status so automated callers can
// branch without parsing text.
type Error struct {
	HttpStatus  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// The provider's page did not contain the execution value. The page shape
// changed or the flow broke; retrying will not help.
var ErrLoginPageShape = &Error{
	HttpStatus:  http.StatusBadGateway,
	Code:        "upstream_protocol_error",
	Description: "login page did not contain the execution value",
}

// The public key endpoint answered with something we could not parse.
var ErrPublicKeyShape = &Error{
	HttpStatus:  http.StatusBadGateway,
	Code:        "upstream_protocol_error",
	Description: "public key response was not understood",
}

// The login flow resolved to a URL outside the identity provider's domain
// before credentials were submitted.
var ErrMisdirectedFlow = &Error{
	HttpStatus:  http.StatusMisdirectedRequest,
	Code:        "misdirected_request",
	Description: "login flow resolved outside the identity provider domain",
}

// Credentials were submitted and the provider redirected back to its own
// login page.
var ErrCredentialsRejected = &Error{
	HttpStatus:  http.StatusUnauthorized,
	Code:        "invalid_credentials",
	Description: "identity provider rejected the credentials",
}

var ErrProviderTimeout = &Error{
	HttpStatus:  http.StatusGatewayTimeout,
	Code:        "provider_timeout",
	Description: "identity provider did not answer in time",
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// classify turns a transport error into the caller-visible class. Timeouts
// surface distinctly; everything else is wrapped with the failing step. No
// step is ever retried here: re-submitting credentials mid-flight risks
// provider-side lockout.
func classify(err error, step string) error {
	if IsTimeout(err) {
		return ErrProviderTimeout
	}
	return fmt.Errorf("%s: %w", step, err)
}
