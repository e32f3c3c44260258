// Package apperr classifies failures into the categories shown to users
// and maps them to localized messages.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

type Kind string

const (
	Timeout    Kind = "TIMEOUT"
	Network    Kind = "NETWORK"
	Auth       Kind = "AUTH"
	Validation Kind = "VALIDATION"
	API        Kind = "API"
	Unknown    Kind = "UNKNOWN"
)

// Error is a categorized failure. Status is the HTTP status that produced
// it, when there was one. Op names the operation that failed.
type Error struct {
	Kind   Kind
	Status int
	Op     string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Msg != "":
		b.WriteString(e.Msg)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	case e.Status != 0:
		fmt.Fprintf(&b, "request failed with status %d", e.Status)
	default:
		b.WriteString(strings.ToLower(string(e.Kind)))
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// FromStatus builds an error for a non-2xx HTTP response.
func FromStatus(op string, status int, body string) *Error {
	msg := fmt.Sprintf("request failed with status %d", status)
	if body = strings.TrimSpace(body); body != "" {
		msg += ": " + body
	}
	return &Error{Kind: KindForStatus(status), Status: status, Op: op, Msg: msg}
}

// KindForStatus maps an HTTP status to a category. A status is never a
// Timeout: only a request that got no answer in time is.
func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return Auth
	case status >= 400 && status < 500:
		return Validation
	case status >= 500:
		return API
	default:
		return Unknown
	}
}

// Categorize reports the category of err. Typed errors win; plain errors
// fall back to well-known sentinels and message sniffing.
func Categorize(err error) Kind {
	if err == nil {
		return Unknown
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return Timeout
		}
		return Network
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return Timeout
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "network"):
		return Network
	case strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "unauthenticated"),
		strings.Contains(msg, "invalid credentials"),
		strings.Contains(msg, "session expired"),
		strings.Contains(msg, "token is expired"):
		return Auth
	}
	return Unknown
}

// Is reports whether err belongs to the given category.
func Is(err error, kind Kind) bool {
	return err != nil && Categorize(err) == kind
}

// StatusFor picks the HTTP status a handler should answer with for err.
func StatusFor(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	switch Categorize(err) {
	case Timeout:
		return http.StatusGatewayTimeout
	case Network:
		return http.StatusBadGateway
	case Auth:
		return http.StatusUnauthorized
	case Validation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
