package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapAndInspect(t *testing.T) {
	root := errors.New("dial tcp: refused")
	err := Wrap(root, CodeUnavailable, "directory unreachable")

	assert.Equal(t, "directory unreachable: dial tcp: refused", err.Error())
	assert.ErrorIs(t, err, root)
	assert.True(t, Is(err, CodeUnavailable))
	assert.Equal(t, CodeUnavailable, CodeOf(err))
}

func TestHasCodeWalksChain(t *testing.T) {
	inner := New(CodeConflict, "run in progress")
	outer := Wrap(fmt.Errorf("acquire: %w", inner), CodeInternal, "trigger failed")

	assert.True(t, HasCode(outer, CodeConflict))
	assert.True(t, HasCode(outer, CodeInternal))
	assert.False(t, HasCode(outer, CodeNotFound))
	assert.False(t, Is(outer, CodeConflict))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "noop"))
}

func TestCodeOfUncoded(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusConflict, HTTPStatus(CodeConflict))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(CodeNotFound))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(CodeValidation))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(CodeUnavailable))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(CodeInternal))
}
