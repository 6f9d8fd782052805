// Package auth checks the shared-secret credential sent with every API request.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
)

// Mode selects how a missing secret or credential is treated.
type Mode string

const (
	// ModeStrict rejects a missing credential and any credential not equal to the secret.
	ModeStrict Mode = "strict"
	// ModeLenient only rejects a mismatch against a configured secret.
	ModeLenient Mode = "lenient"
)

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrNoSecret is returned in lenient mode when no secret is configured and
	// unauthenticated access was not explicitly allowed.
	ErrNoSecret = errors.New("no secret configured")
)

// Error is the rejection returned by Authenticate.
type Error struct {
	Mode Mode
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("unauthorized (%s mode): %v", e.Mode, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Authenticator compares request credentials against the configured secret.
type Authenticator struct {
	Mode   Mode
	Secret string
	// AllowAnonymous opts a lenient deployment without a secret into open access.
	AllowAnonymous bool
}

// ParseMode maps a configuration value onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeStrict:
		return ModeStrict, nil
	case ModeLenient:
		return ModeLenient, nil
	}
	return "", fmt.Errorf("unknown auth mode %q", s)
}

// Authenticate returns nil when the request is authorized. present reports whether
// the credential header was sent at all.
func (a *Authenticator) Authenticate(credential string, present bool) error {
	switch a.Mode {
	case ModeLenient:
		if a.Secret == "" {
			if a.AllowAnonymous {
				return nil
			}
			return &Error{Mode: a.Mode, Err: ErrNoSecret}
		}
		if !present {
			return &Error{Mode: a.Mode, Err: ErrMissingCredential}
		}
		if !a.matches(credential) {
			return &Error{Mode: a.Mode, Err: ErrInvalidCredential}
		}
		return nil
	default:
		if !present || credential == "" {
			return &Error{Mode: ModeStrict, Err: ErrMissingCredential}
		}
		if a.Secret == "" || !a.matches(credential) {
			return &Error{Mode: ModeStrict, Err: ErrInvalidCredential}
		}
		return nil
	}
}

// Open reports whether every request is authorized without a credential.
func (a *Authenticator) Open() bool {
	return a.Mode == ModeLenient && a.Secret == "" && a.AllowAnonymous
}

func (a *Authenticator) matches(credential string) bool {
	return subtle.ConstantTimeCompare([]byte(credential), []byte(a.Secret)) == 1
}
