package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneMatchesTemplate(t *testing.T) {
	err := Clone(ErrSemesterLocked, "semester 2025-odd is locked")
	assert.True(t, errors.Is(err, ErrSemesterLocked))
	assert.False(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, http.StatusLocked, err.Status)
	assert.Equal(t, "semester 2025-odd is locked", err.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	raw := fmt.Errorf("dial tcp: refused")
	appErr := FromError(raw)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.ErrorIs(t, appErr, raw)
	assert.Equal(t, "INTERNAL_ERROR", CodeOf(raw))
	assert.Equal(t, "", CodeOf(nil))
}
