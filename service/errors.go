package service

import (
	"errors"
	"fmt"
)

// Kind classifies the expected failures of a service operation. The HTTP
// layer turns it into a status code.
type Kind string

const (
	KindValidation            Kind = "ValidationError"
	KindEmailInUse            Kind = "EmailInUse"
	KindAuthenticationFailed  Kind = "AuthenticationFailed"
	KindInvalidRefreshToken   Kind = "InvalidRefreshToken"
	KindInvalidOrExpiredToken Kind = "InvalidOrExpiredToken"
	KindTooManyAttempts       Kind = "TooManyAttempts"
	KindAccountUnverified     Kind = "AccountUnverified"
	KindNotFound              Kind = "NotFound"
	KindInternal              Kind = "InternalError"
)

const (
	msgInternal            = "Internal server error"
	msgEmailInUse          = "Email already in use"
	msgInvalidCredentials  = "Invalid email or password"
	msgInvalidRefreshToken = "Invalid refresh token"
	msgInvalidToken        = "Invalid or expired token"
	msgTooManyAttempts     = "Too many failed login attempts, try again later"
	msgResendCooldown      = "Please wait before requesting another verification email"
	msgUnverified          = "Please verify your email before logging in"
	msgUserNotFound        = "User not found"
)

// Error is returned by every service operation that fails. Message is safe
// to show to clients, Cause is for the logs only.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(k Kind, msg string, cause error) *Error {
	return &Error{Kind: k, Message: msg, Cause: cause}
}

func internal(cause error) *Error {
	return newError(KindInternal, msgInternal, cause)
}

// KindOf returns the kind of err. Anything that isn't an *Error counts as
// internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}

// MessageOf returns the client facing message of err
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}

	return msgInternal
}

// outcome labels err for metrics
func outcome(err error) string {
	if err == nil {
		return "ok"
	}

	return string(KindOf(err))
}
