package backend

import (
	"errors"
	"regexp"
	"strings"
)

const (
	MessagePermissions  = "Operation failed. Please check your permissions."
	MessageInvalidLogin = "Invalid email or password"
	MessageNotFound     = "Resource not found"
	MessageExists       = "Resource already exists"
	MessageNetwork      = "Network error. Please check your connection."
	MessageGeneric      = "An error occurred. Please try again."
	MessageUnexpected   = "An unexpected error occurred"
)

var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)relation ".*" does not exist`),
	regexp.MustCompile(`(?i)column ".*" does not exist`),
	regexp.MustCompile(`(?i)permission denied for`),
	regexp.MustCompile(`(?i)JWT`),
	regexp.MustCompile(`(?i)token`),
}

// Redact maps any error to a user-safe message. Schema details, permission names and token
// material never pass through. Unrecognised failures get the generic message. Typed remote
// errors are matched on the remote text only; transport errors carry request URLs.
func Redact(err error) string {
	if err == nil {
		return MessageUnexpected
	}

	msg := err.Error()
	var remote *Error
	if errors.As(err, &remote) {
		if remote.Kind == KindNetwork {
			return MessageNetwork
		}
		msg = remote.Message
		if msg == "" {
			msg = remote.Code
		}
	}

	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(msg) {
			return MessagePermissions
		}
	}

	switch {
	case strings.Contains(msg, "Invalid login"):
		return MessageInvalidLogin
	case strings.Contains(msg, "not found"):
		return MessageNotFound
	case strings.Contains(msg, "already exists"):
		return MessageExists
	case strings.Contains(msg, "Network"):
		return MessageNetwork
	}
	return MessageGeneric
}
