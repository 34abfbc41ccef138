package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindAuth
	KindValidation
	KindNotFound
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// APIError is what the gateway returns for every failed remote call.
type APIError struct {
	Op         string // gateway operation, e.g. "answer question"
	Kind       Kind
	StatusCode int    // 0 when the request never got a response
	Message    string // remote message, if any
	Err        error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Op, e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of an APIError anywhere in err's chain. Errors that
// are not APIErrors are classified by their message.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ClassifyMessage(err.Error())
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ClassifyStatus maps an HTTP status of a failed response to a kind.
// Statuses it has no opinion on fall back to the message.
func ClassifyStatus(statusCode int, message string) Kind {
	switch {
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return KindAuth
	case statusCode == http.StatusNotFound:
		return KindNotFound
	case statusCode == http.StatusBadRequest, statusCode == http.StatusConflict,
		statusCode == http.StatusUnprocessableEntity:
		return KindValidation
	case statusCode >= 500:
		return KindServer
	}
	return ClassifyMessage(message)
}

// ClassifyMessage is the fallback for opaque failures that carry no status.
func ClassifyMessage(message string) Kind {
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "network"), strings.Contains(m, "fetch"),
		strings.Contains(m, "connection refused"), strings.Contains(m, "no such host"),
		strings.Contains(m, "backend unavailable"):
		return KindNetwork
	case strings.Contains(m, "unauthorized"), strings.Contains(m, "token"):
		return KindAuth
	case strings.Contains(m, "validation"), strings.Contains(m, "invalid"):
		return KindValidation
	case strings.Contains(m, "500"), strings.Contains(m, "server error"):
		return KindServer
	}
	return KindUnknown
}
