package serviceerr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lucid-framework/auth-gateway/internal/serviceerr"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name        string
		err         *serviceerr.Error
		expectedMsg string
	}{
		{
			name:        "Error with description",
			err:         &serviceerr.Error{Err: serviceerr.CodeNotFound, Description: "session not found"},
			expectedMsg: "not_found: session not found",
		},
		{
			name:        "Error without description",
			err:         &serviceerr.Error{Err: serviceerr.CodeInvalidRequest},
			expectedMsg: "invalid_request",
		},
		{
			name:        "Predefined error - ErrStorageUnavailable",
			err:         serviceerr.ErrStorageUnavailable,
			expectedMsg: "storage_unavailable: storage backend unreachable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedMsg, tt.err.Error())
		})
	}
}

func TestError_Is(t *testing.T) {
	wrapped := fmt.Errorf("validating session: %w", serviceerr.ErrStorageUnavailable)

	assert.ErrorIs(t, wrapped, serviceerr.ErrStorageUnavailable)
	assert.NotErrorIs(t, wrapped, serviceerr.ErrNotFound)
	assert.ErrorIs(t, serviceerr.ErrSessionExpired, &serviceerr.Error{Err: serviceerr.CodeSessionExpired})
	assert.False(t, errors.Is(serviceerr.ErrNotFound, errors.New("not found")))
}

func TestError_HTTPStatus(t *testing.T) {
	tests := []struct {
		name               string
		code               serviceerr.Code
		expectedHTTPStatus int
	}{
		{name: "CodeInvalidRequest returns BadRequest", code: serviceerr.CodeInvalidRequest, expectedHTTPStatus: http.StatusBadRequest},
		{name: "CodeUnauthorizedClient returns Unauthorized", code: serviceerr.CodeUnauthorizedClient, expectedHTTPStatus: http.StatusUnauthorized},
		{name: "CodeAccessDenied returns Forbidden", code: serviceerr.CodeAccessDenied, expectedHTTPStatus: http.StatusForbidden},
		{name: "CodeSessionExpired returns Unauthorized", code: serviceerr.CodeSessionExpired, expectedHTTPStatus: http.StatusUnauthorized},
		{name: "CodeInvalidState returns Unauthorized", code: serviceerr.CodeInvalidState, expectedHTTPStatus: http.StatusUnauthorized},
		{name: "CodeUnauthorizedSiteAccess returns Forbidden", code: serviceerr.CodeUnauthorizedSiteAccess, expectedHTTPStatus: http.StatusForbidden},
		{name: "CodeNotFound returns NotFound", code: serviceerr.CodeNotFound, expectedHTTPStatus: http.StatusNotFound},
		{name: "CodeStorageUnavailable returns ServiceUnavailable", code: serviceerr.CodeStorageUnavailable, expectedHTTPStatus: http.StatusServiceUnavailable},
		{name: "CodeTemporarilyUnavailable returns ServiceUnavailable", code: serviceerr.CodeTemporarilyUnavailable, expectedHTTPStatus: http.StatusServiceUnavailable},
		{name: "CodeConfiguration returns InternalServerError", code: serviceerr.CodeConfiguration, expectedHTTPStatus: http.StatusInternalServerError},
		{name: "CodeTokenExchange returns InternalServerError", code: serviceerr.CodeTokenExchange, expectedHTTPStatus: http.StatusInternalServerError},
		{name: "Unknown code returns InternalServerError", code: serviceerr.Code("unknown_code"), expectedHTTPStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := serviceerr.Error{Err: tt.code}
			assert.Equal(t, tt.expectedHTTPStatus, err.HTTPStatus())
		})
	}
}

func TestSecuritySensitive(t *testing.T) {
	sensitive := []serviceerr.Code{
		serviceerr.CodeInvalidState,
		serviceerr.CodeUnauthorizedSiteAccess,
		serviceerr.CodeUnauthorizedClient,
		serviceerr.CodeSessionExpired,
	}
	for _, code := range sensitive {
		assert.True(t, serviceerr.SecuritySensitive(code), string(code))
	}

	benign := []serviceerr.Code{
		serviceerr.CodeAccessDenied,
		serviceerr.CodeServerError,
		serviceerr.CodeTemporarilyUnavailable,
		serviceerr.CodeNotFound,
	}
	for _, code := range benign {
		assert.False(t, serviceerr.SecuritySensitive(code), string(code))
	}
}

func TestMessage(t *testing.T) {
	// Every code the error display can receive has human readable text.
	codes := []serviceerr.Code{
		serviceerr.CodeAccessDenied,
		serviceerr.CodeInvalidRequest,
		serviceerr.CodeUnauthorizedClient,
		serviceerr.CodeUnsupportedResponseType,
		serviceerr.CodeInvalidScope,
		serviceerr.CodeServerError,
		serviceerr.CodeTemporarilyUnavailable,
		serviceerr.CodeUnauthorizedSiteAccess,
		serviceerr.CodeSessionExpired,
		serviceerr.CodeInvalidState,
	}
	for _, code := range codes {
		assert.NotEmpty(t, serviceerr.Message(code), string(code))
		assert.NotEqual(t, "An unknown authorization error occurred.", serviceerr.Message(code), string(code))
	}

	assert.Equal(t, "An unknown authorization error occurred.", serviceerr.Message(serviceerr.Code("bogus")))
}
