package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes rendered to clients.
const (
	CodeBadRequest               = "BAD_REQUEST"
	CodeUnauthorized             = "UNAUTHORIZED"
	CodeForbidden                = "FORBIDDEN"
	CodeNotFound                 = "NOT_FOUND"
	CodeMissingIdentityAttribute = "MISSING_IDENTITY_ATTRIBUTE"
	CodeIdentityProviderFailed   = "IDENTITY_PROVIDER_FAILED"
	CodeRequestFailed            = "REQUEST_FAILED"
	CodeInternal                 = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewBadRequest(message string) error {
	return NewDomainError(CodeBadRequest, message, http.StatusBadRequest, nil)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

// NewMissingIdentityAttribute reports an identity provider result without a
// usable attribute. It points at provider or client configuration, not the user.
func NewMissingIdentityAttribute(attribute string) error {
	return NewDomainError(
		CodeMissingIdentityAttribute,
		fmt.Sprintf("identity provider did not supply a verified %s", attribute),
		http.StatusBadGateway,
		map[string]any{"attribute": attribute},
	)
}

// NewIdentityProviderError wraps a failed exchange with the identity provider.
func NewIdentityProviderError(err error) error {
	return &DomainError{
		Code:       CodeIdentityProviderFailed,
		Message:    "identity provider request failed",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// FromStatus builds a DomainError for a bare HTTP status, such as a router 404.
func FromStatus(status int, message string) *DomainError {
	code := CodeInternal
	switch status {
	case http.StatusBadRequest:
		code = CodeBadRequest
	case http.StatusUnauthorized:
		code = CodeUnauthorized
	case http.StatusForbidden:
		code = CodeForbidden
	case http.StatusNotFound:
		code = CodeNotFound
	default:
		if status < http.StatusInternalServerError {
			code = CodeRequestFailed
		}
	}
	return NewDomainError(code, message, status, nil)
}
