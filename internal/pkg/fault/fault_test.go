package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "validation", err: New(Validation, "bad"), want: Validation},
		{name: "wrapped conflict", err: fmt.Errorf("outer: %w", New(Conflict, "dup")), want: Conflict},
		{name: "plain error", err: errors.New("boom"), want: Internal},
		{name: "not found", err: New(NotFound, "missing"), want: NotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestFault_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	f := Internalf(cause, "create customer")

	require.ErrorIs(t, f, cause)
	assert.Equal(t, "create customer: connection refused", f.Error())
	assert.False(t, IsUserFacing(f))
	assert.True(t, IsUserFacing(New(Validation, "Invalid email format.")))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "VALIDATION", Validation.String())
	assert.Equal(t, "CONFLICT", Conflict.String())
	assert.Equal(t, "NOT_FOUND", NotFound.String())
	assert.Equal(t, "INTERNAL", Internal.String())
}
