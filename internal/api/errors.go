package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure at the point it is detected.
type Kind int

const (
	KindGeneric Kind = iota
	KindNetwork
	KindNotFound
	KindServer
	KindHTTP
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	case KindHTTP:
		return "http"
	case KindValidation:
		return "validation"
	default:
		return "generic"
	}
}

// Reason names the local check a ValidationError failed.
type Reason string

const (
	ReasonFilename Reason = "filename"
	ReasonSize     Reason = "size"
	ReasonFormat   Reason = "format"
	ReasonName     Reason = "name"
	ReasonID       Reason = "id"
)

// Error is the single error shape surfaced by the client.
//
// Network errors carry the transport error in Err. HTTP errors carry the
// response status, the server's code if it sent one, and a message that
// prefers the server body's "message" over "<status> <statusText>".
// Validation errors carry a Reason and never reach the network.
type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
	Reason  Reason
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func networkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: "network: " + err.Error(), Err: err}
}

func httpError(status int, message, code string) *Error {
	if message == "" {
		message = fmt.Sprintf("%d %s", status, http.StatusText(status))
	}
	kind := KindHTTP
	switch {
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status >= 500:
		kind = KindServer
	}
	return &Error{Kind: kind, Status: status, Code: code, Message: message}
}

func validationError(reason Reason, message string) *Error {
	return &Error{Kind: KindValidation, Reason: reason, Message: message}
}

// KindOf returns the kind of err, or KindGeneric for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindGeneric
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// ReasonOf returns the validation reason of err, if any.
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// User-facing messages, one per category.
const (
	MsgNetwork  = "Network error: check your internet connection."
	MsgNotFound = "The requested item could not be found."
	MsgServer   = "The server ran into a problem. Please try again shortly."
	MsgGeneric  = "Something went wrong."
)

// UserMessage maps err to the sentence shown to the user. Network, not-found
// and server failures get a fixed message; validation errors keep their own
// message; everything else shows the server-provided text when there is one.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return MsgGeneric
	}
	switch e.Kind {
	case KindNetwork:
		return MsgNetwork
	case KindNotFound:
		return MsgNotFound
	case KindServer:
		return MsgServer
	case KindValidation, KindHTTP:
		if e.Message != "" {
			return e.Message
		}
	}
	return MsgGeneric
}
