package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomErrorKeepsKind(t *testing.T) {
	err := fmt.Errorf("admit: %w", NewValidationError("admission year must be between 2000 and 2100"))

	assert.ErrorIs(t, err, ErrValidationFailed)
	msg, ok := UserMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "admission year must be between 2000 and 2100", msg)

	_, ok = UserMessage(ErrStudentNotFound)
	assert.False(t, ok)

	assert.Equal(t, "conflict", (&CustomError{Err: ErrConflict}).Error())
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("redeem: %w", ErrInvalidLinkCode)

	assert.True(t, Is(err, ErrStudentNotFound, ErrInvalidLinkCode))
	assert.False(t, Is(err, ErrStudentNotFound))
	assert.False(t, Is(errors.New("boom")))
}
