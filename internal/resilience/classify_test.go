package resilience

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type codedErr struct {
	code string
}

func (e *codedErr) Error() string     { return "request failed" }
func (e *codedErr) ErrorCode() string { return e.code }

func TestIsConnectionErrorByCode(t *testing.T) {
	for _, code := range []string{
		"unavailable", "deadline-exceeded", "resource-exhausted",
		"aborted", "internal", "unknown",
	} {
		assert.True(t, IsConnectionError(&codedErr{code}), code)
	}

	for _, code := range []string{"not-found", "permission-denied", "invalid-argument"} {
		assert.False(t, IsConnectionError(&codedErr{code}), code)
	}
}

func TestIsConnectionErrorByMessage(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{errors.New("network unreachable"), true},
		{errors.New("Connection refused"), true},
		{errors.New("transport is closing"), true},
		{errors.New("RPC failed"), true},
		{errors.New("WebChannel transport errored"), true},
		{errors.New("username already taken"), false},
		{nil, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsConnectionError(tc.err), fmt.Sprint(tc.err))
	}
}

func TestIsInternalAssertion(t *testing.T) {
	assert.True(t, IsInternalAssertion(errors.New("FIRESTORE (9.6.1) INTERNAL ASSERTION FAILED: Unexpected state")))
	assert.True(t, IsInternalAssertion(errors.New("internal assertion failed somewhere")))
	assert.False(t, IsInternalAssertion(errors.New("internal server error")))
	assert.False(t, IsInternalAssertion(nil))
}
