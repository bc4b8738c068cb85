package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	t.Parallel()

	require.Nil(t, ToDomainError(nil))

	forbidden := NewForbidden("nope")
	wrapped := fmt.Errorf("handler: %w", forbidden)
	got := ToDomainError(wrapped)
	require.Equal(t, CodeForbidden, got.Code)
	require.Equal(t, http.StatusForbidden, got.HTTPStatus)

	plain := ToDomainError(errors.New("boom"))
	require.Equal(t, CodeInternal, plain.Code)
	require.Equal(t, http.StatusInternalServerError, plain.HTTPStatus)
	require.Equal(t, "internal server error: boom", plain.Error())
}

func TestNewMissingIdentityAttribute(t *testing.T) {
	t.Parallel()

	got := ToDomainError(NewMissingIdentityAttribute("email"))
	require.Equal(t, CodeMissingIdentityAttribute, got.Code)
	require.Equal(t, http.StatusBadGateway, got.HTTPStatus)
	require.Equal(t, "email", got.Details["attribute"])
}

func TestNewIdentityProviderError(t *testing.T) {
	t.Parallel()

	cause := errors.New("timeout")
	err := NewIdentityProviderError(cause)
	require.ErrorIs(t, err, cause)
	require.Equal(t, http.StatusBadGateway, ToDomainError(err).HTTPStatus)
}

func TestFromStatus(t *testing.T) {
	t.Parallel()

	cases := map[int]string{
		http.StatusBadRequest:          CodeBadRequest,
		http.StatusUnauthorized:        CodeUnauthorized,
		http.StatusForbidden:           CodeForbidden,
		http.StatusNotFound:            CodeNotFound,
		http.StatusMethodNotAllowed:    CodeRequestFailed,
		http.StatusRequestTimeout:      CodeRequestFailed,
		http.StatusInternalServerError: CodeInternal,
		http.StatusServiceUnavailable:  CodeInternal,
	}
	for status, code := range cases {
		got := FromStatus(status, "msg")
		require.Equal(t, code, got.Code, status)
		require.Equal(t, status, got.HTTPStatus)
		require.Equal(t, "msg", got.Message)
	}
}
