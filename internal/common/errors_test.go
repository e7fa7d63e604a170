package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	t.Run("formats code message and cause", func(t *testing.T) {
		err := NewAppError("CONFIG_ERROR", "PAPERLESS_API_TOKEN is required", ErrInvalidInput)
		assert.Equal(t, "CONFIG_ERROR: PAPERLESS_API_TOKEN is required: invalid input", err.Error())
	})

	t.Run("formats without a cause", func(t *testing.T) {
		err := &AppError{Code: "INTERNAL", Message: "boom"}
		assert.Equal(t, "INTERNAL: boom", err.Error())
	})

	t.Run("unwraps to the sentinel", func(t *testing.T) {
		err := NewAppError("NOT_FOUND", "no such tag", ErrNotFound)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NotErrorIs(t, err, ErrInvalidInput)
	})
}

func TestWrapError(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, WrapError(nil, "context"))
	})

	t.Run("adds context and keeps the chain", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := WrapError(cause, "fetch queue")
		require.Error(t, err)
		assert.Equal(t, "fetch queue: connection reset", err.Error())
		assert.ErrorIs(t, err, cause)
	})
}
