package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vcturbo/internal/pkg/logx"
)

func init() {
	logx.Discard()
}

func TestNewErrorUsesTemplate(t *testing.T) {
	err := NewError(ErrNotFriends)

	assert.Equal(t, ErrNotFriends, err.Code)
	assert.Equal(t, KindUnauthorized, err.Kind)
	assert.Equal(t, "NotFriends", err.Reason)
	assert.Equal(t, http.StatusOK, err.Status)
}

func TestNewErrorUnknownCodeFallsBack(t *testing.T) {
	err := NewError(424242)

	assert.Equal(t, ErrUnknown, err.Code)
	assert.Equal(t, KindInternal, err.Kind)
}

func TestNewErrorReturnsCopies(t *testing.T) {
	a := NewError(ErrDuplicateEmail)
	a.Message = "changed"

	b := NewError(ErrDuplicateEmail)
	assert.NotEqual(t, "changed", b.Message)
}

func TestAsAndIs(t *testing.T) {
	wrapped := fmt.Errorf("send: %w", NewError(ErrSelfRequest))

	require.True(t, Is(wrapped, ErrSelfRequest))
	assert.False(t, Is(wrapped, ErrNotFriends))
	assert.Equal(t, ErrSelfRequest, As(wrapped).Code)

	assert.Equal(t, ErrUnknown, As(errors.New("boom")).Code)
}

func TestEveryCodeHasKindAndReason(t *testing.T) {
	for code, tmpl := range errorMap {
		assert.Equal(t, code, tmpl.Code)
		assert.NotEmpty(t, tmpl.Kind, "code %d", code)
		assert.NotEmpty(t, tmpl.Reason, "code %d", code)
	}
}
