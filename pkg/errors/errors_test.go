package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf_FindsWrappedAppError(t *testing.T) {
	base := Wrap(ErrCodeUpstream, "insert failed", stderrors.New("connection reset"))
	wrapped := fmt.Errorf("contact submit: %w", base)

	assert.Equal(t, ErrCodeUpstream, CodeOf(wrapped))
	assert.ErrorContains(t, wrapped, "connection reset")
	assert.False(t, IsUnavailable(wrapped))
}

func TestIsUnavailable(t *testing.T) {
	err := fmt.Errorf("send: %w", Unavailable("email service"))
	assert.True(t, IsUnavailable(err))
	assert.Equal(t, "UNAVAILABLE: email service not configured", Unavailable("email service").Error())
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(stderrors.New("boom")))
	assert.False(t, IsNotFound(nil))
	assert.True(t, IsNotFound(New(ErrCodeNotFound, "team member not found")))
	assert.True(t, IsUnauthorized(New(ErrCodeUnauthorized, "bad credentials")))
}
