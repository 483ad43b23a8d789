// Copyright AgentMeet and each contributor.
// SPDX-License-Identifier: MIT

package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetErrorType(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorType
	}{
		{
			name:     "validation error",
			err:      NewValidationError("bad input"),
			expected: ErrorTypeValidation,
		},
		{
			name:     "unauthorized error",
			err:      NewUnauthorizedError("bad signature"),
			expected: ErrorTypeUnauthorized,
		},
		{
			name:     "not found error",
			err:      NewNotFoundError("missing"),
			expected: ErrorTypeNotFound,
		},
		{
			name:     "conflict error",
			err:      NewConflictError("modified"),
			expected: ErrorTypeConflict,
		},
		{
			name:     "guard failed error",
			err:      NewGuardFailedError("wrong status"),
			expected: ErrorTypeGuardFailed,
		},
		{
			name:     "unavailable error",
			err:      NewUnavailableError("down"),
			expected: ErrorTypeUnavailable,
		},
		{
			name:     "wrapped domain error",
			err:      fmt.Errorf("outer: %w", NewNotFoundError("missing")),
			expected: ErrorTypeNotFound,
		},
		{
			name:     "plain error defaults to internal",
			err:      errors.New("boom"),
			expected: ErrorTypeInternal,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, GetErrorType(tc.err))
		})
	}
}

func TestDomainErrorUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := NewInternalError("failed to do thing", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to do thing: underlying", err.Error())
}

func TestDomainErrorWithoutCause(t *testing.T) {
	err := NewValidationError("bad input")
	assert.Equal(t, "bad input", err.Error())
	assert.NoError(t, errors.Unwrap(err))
}
