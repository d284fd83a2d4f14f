package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatsCulprits(t *testing.T) {
	cause := errors.New("commitment failed to open")
	err := NewError(cause, "signing", RoundSign4, 2, 3)

	assert.Contains(t, err.Error(), "signing")
	assert.Contains(t, err.Error(), RoundSign4)
	assert.Contains(t, err.Error(), "culprits: [2 3]")
	assert.Equal(t, []int{2, 3}, err.Culprits())
	assert.Equal(t, RoundSign4, err.Round())
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := NewError(cause, "keygen", RoundKeygen1)
	assert.ErrorIs(t, err, cause)
}

func TestErrorWithNoCulprits(t *testing.T) {
	err := NewError(errors.New("timeout"), "signing", RoundSign1)
	assert.NotContains(t, err.Error(), "culprits")
}
