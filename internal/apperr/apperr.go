// Package apperr holds the error kinds surfaced to users.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig marks missing or invalid configuration (client id, API key).
	ErrConfig = errors.New("configuration error")
	// ErrAuth marks an absent, expired or revoked access token.
	ErrAuth = errors.New("not authenticated")
	// ErrValidation marks input rejected before any network call.
	ErrValidation = errors.New("invalid input")
)

// RemoteError is a non-2xx response from an external API.
type RemoteError struct {
	Service string
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", e.Status)
	}
	if e.Service == "" {
		return msg
	}
	return e.Service + ": " + msg
}

// Configf wraps ErrConfig with a message.
func Configf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// Validationf wraps ErrValidation with a message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Kind names the category of err for user-facing messages.
type Kind string

const (
	KindNone       Kind = ""
	KindConfig     Kind = "config"
	KindAuth       Kind = "auth"
	KindValidation Kind = "validation"
	KindRemote     Kind = "remote"
	KindOther      Kind = "other"
)

// KindOf classifies err.
func KindOf(err error) Kind {
	var re *RemoteError
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrAuth):
		return KindAuth
	case errors.Is(err, ErrConfig):
		return KindConfig
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.As(err, &re):
		return KindRemote
	default:
		return KindOther
	}
}

// Hint returns a follow-up suggestion for err, or "".
func Hint(err error) string {
	switch KindOf(err) {
	case KindAuth:
		return "sign in again with `brain login` (or press L in the TUI)"
	case KindConfig:
		return "check ~/.config/brain/config.yaml or run with --demo"
	}
	return ""
}
