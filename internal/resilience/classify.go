package resilience

import (
	"strings"
)

// Coder is implemented by errors that carry a transport-level status code
type Coder interface {
	ErrorCode() string
}

// Status codes that indicate a connection-level failure rather than a
// request-level one
var connectionErrorCodes = map[string]bool{
	"unavailable":        true,
	"deadline-exceeded":  true,
	"resource-exhausted": true,
	"aborted":            true,
	"internal":           true,
	"unknown":            true,
}

// Message fragments that indicate a connection-level failure
var connectionErrorFragments = []string{
	"network",
	"connection",
	"transport",
	"rpc",
	"webchannel",
}

const internalAssertionFragment = "internal assertion failed"

// IsConnectionError reports whether err looks like a connection-level
// failure worth retrying, judged by its status code when it carries one
// and by message fragments otherwise.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if coder, ok := err.(Coder); ok {
		if connectionErrorCodes[coder.ErrorCode()] {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range connectionErrorFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// IsInternalAssertion reports whether err is the severe client-state
// corruption class that requires a full listener teardown before any
// reconnect can succeed.
func IsInternalAssertion(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), internalAssertionFragment)
}
