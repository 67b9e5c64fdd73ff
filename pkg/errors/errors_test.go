package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneMatchesTemplate(t *testing.T) {
	err := Clone(ErrInvalidTransition, "document is already APPROVED")
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.False(t, errors.Is(err, ErrEmptyFolder))
	assert.Equal(t, "decision not applicable to current status", ErrInvalidTransition.Message)
	assert.Equal(t, http.StatusConflict, err.Status)
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	wrapped := fmt.Errorf("review document: %w", ErrNotFound)
	assert.Same(t, ErrNotFound, FromError(wrapped))

	plain := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, plain.Code)
	assert.Equal(t, "internal server error: boom", plain.Error())
}

func TestTransient(t *testing.T) {
	assert.True(t, Transient(Wrap(errors.New("40001"), ErrConcurrencyConflict.Code, ErrConcurrencyConflict.Status, "retry")))
	assert.False(t, Transient(ErrValidation))
}
