package contract

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	cause := errors.New("bad json")

	invalid := NewInvalidInput("cannot parse activities", cause)
	assert.True(t, IsInvalidInput(invalid))
	assert.False(t, IsPartialData(invalid))
	assert.Equal(t, "invalid_input: cannot parse activities: bad json", invalid.Error())
	assert.ErrorIs(t, invalid, cause)
	assert.Equal(t, errbuilder.CodeInvalidArgument, invalid.ErrCode())

	anomaly := NewComputationAnomaly("score is NaN")
	assert.True(t, IsComputationAnomaly(anomaly))
	assert.Equal(t, errbuilder.CodeInternal, anomaly.ErrCode())

	partial := NewPartialData("1 of 5 days failed", map[string]error{"2024-06-03": cause})
	assert.True(t, IsPartialData(partial))
	assert.Equal(t, errbuilder.CodeUnavailable, partial.ErrCode())
}

func TestKindOfWrapped(t *testing.T) {
	wrapped := fmt.Errorf("scoring alice: %w", NewInvalidInputf("window days must be positive, got %d", 0))
	assert.Equal(t, InvalidInputKind, KindOf(wrapped))

	var e *Error
	require.ErrorAs(t, wrapped, &e)
	assert.Contains(t, e.Error(), "window days must be positive, got 0")

	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
}
