package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_MatchesSentinel(t *testing.T) {
	tests := []struct {
		code     Code
		sentinel error
	}{
		{CodeMalformed, ErrMalformed},
		{CodePermission, ErrPermission},
		{CodeNotFound, ErrNotFound},
		{CodeConflict, ErrConflict},
		{CodeInternal, ErrInternal},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", NewError("op", tt.code, errors.New("boom")))
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.code, CodeOf(err))
		})
	}
}

func TestError_UnwrapsCause(t *testing.T) {
	cause := errors.New("boom")
	err := NewError("createFolder", CodeConflict, cause)

	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "createFolder: conflict: boom", err.Error())
}

func TestCodeOf_ForeignError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}
