package errors

import (
	"errors"
	"strings"
	"unicode"
)

const (
	msgNetwork    = "We couldn't reach the server. Check your connection and try again."
	msgAuth       = "Your session has expired. Please sign in again."
	msgValidation = "Some of the information you entered isn't valid. Please review it and try again."
	msgNotFound   = "This question no longer exists."
	msgServer     = "The server ran into a problem. Please try again in a moment."
	msgUnknown    = "Sorry, something went wrong. Please try again."

	maxVerbatimLen = 120
)

// artifacts that must never be shown to people
var (
	artifactWords     = []string{"null", "undefined", "nil", "nan", "panic", "goroutine", "exception", "traceback", "sql"}
	artifactFragments = []string{"{", "}", "<", "\n", "0x", "stack trace", ".go:"}
)

// FriendlyMessage turns any error into a short text safe to show in the UI.
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}

	switch KindOf(err) {
	case KindNetwork:
		return msgNetwork
	case KindAuth:
		return msgAuth
	case KindValidation:
		// the remote service explains validation failures better than we can
		if msg := remoteMessage(err); showVerbatim(msg) {
			return msg
		}
		return msgValidation
	case KindNotFound:
		return msgNotFound
	case KindServer:
		return msgServer
	}

	if msg := remoteMessage(err); showVerbatim(msg) {
		return msg
	}
	return msgUnknown
}

func remoteMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func showVerbatim(msg string) bool {
	msg = strings.TrimSpace(msg)
	if msg == "" || len(msg) > maxVerbatimLen {
		return false
	}
	lower := strings.ToLower(msg)
	for _, f := range artifactFragments {
		if strings.Contains(lower, f) {
			return false
		}
	}
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		for _, a := range artifactWords {
			if w == a {
				return false
			}
		}
	}
	return true
}
