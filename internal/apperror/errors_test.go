package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("price is required")))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("wrap: %w", NotFound("booking"))))
	assert.Equal(t, KindDependency, KindOf(errors.New("connection reset")))
}

func TestDependencyUnwraps(t *testing.T) {
	cause := errors.New("timeout")
	err := Dependency("update booking", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "update booking: timeout", err.Error())
}

func TestIsMatchesKindTemplate(t *testing.T) {
	err := fmt.Errorf("approve: %w", StateConflict("booking is %s", "pending"))

	assert.ErrorIs(t, err, &Error{Kind: KindStateConflict})
	assert.NotErrorIs(t, err, &Error{Kind: KindValidation})
	assert.True(t, IsStateConflict(err))
	assert.False(t, IsNotFound(err))
}
