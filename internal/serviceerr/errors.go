// Package serviceerr defines the error taxonomy shared across the gateway.
//
// Codes mirror the RFC 6749 authorization error codes plus the gateway's own
// security-sensitive conditions. ErrNotFound covers the normal "no such
// record" case and is kept distinct from ErrStorageUnavailable so callers
// can tell "no session" from "can't check".
package serviceerr

import "net/http"

type Code string

// RFC 6749 authorization error codes.
const (
	CodeInvalidRequest          = Code("invalid_request")
	CodeUnauthorizedClient      = Code("unauthorized_client")
	CodeAccessDenied            = Code("access_denied")
	CodeUnsupportedResponseType = Code("unsupported_response_type")
	CodeInvalidScope            = Code("invalid_scope")
	CodeServerError             = Code("server_error")
	CodeTemporarilyUnavailable  = Code("temporarily_unavailable")
)

// Gateway specific codes.
const (
	CodeUnknown                = Code("unknown")
	CodeNotFound               = Code("not_found")
	CodeSessionExpired         = Code("session_expired")
	CodeInvalidState           = Code("invalid_state")
	CodeUnauthorizedSiteAccess = Code("unauthorized_site_access")
	CodeStorageUnavailable     = Code("storage_unavailable")
	CodeConfiguration          = Code("configuration_missing")
	CodeTokenExchange          = Code("token_exchange_failed")
)

type Error struct {
	Err         Code
	Description string
}

var ErrUnknown = &Error{Err: CodeUnknown, Description: "unknown error"}
var ErrNotFound = &Error{Err: CodeNotFound, Description: "not found"}
var ErrSessionExpired = &Error{Err: CodeSessionExpired, Description: "session expired"}
var ErrInvalidState = &Error{Err: CodeInvalidState, Description: "missing or invalid state"}
var ErrUnauthorizedSiteAccess = &Error{Err: CodeUnauthorizedSiteAccess, Description: "not authorized for site"}
var ErrStorageUnavailable = &Error{Err: CodeStorageUnavailable, Description: "storage backend unreachable"}
var ErrConfiguration = &Error{Err: CodeConfiguration, Description: "missing configuration"}
var ErrTokenExchange = &Error{Err: CodeTokenExchange, Description: "provider returned no credential"}

func (e *Error) Error() string {
	if e.Description == "" {
		return string(e.Err)
	}

	return string(e.Err) + ": " + e.Description
}

// Is matches any *Error carrying the same code, so wrapped errors compare
// against the predefined sentinels with errors.Is.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}

	return e.Err == other.Err
}

func (e *Error) HTTPStatus() int {
	switch e.Err {
	case CodeInvalidRequest, CodeUnsupportedResponseType, CodeInvalidScope:
		return http.StatusBadRequest
	case CodeUnauthorizedClient, CodeSessionExpired, CodeInvalidState:
		return http.StatusUnauthorized
	case CodeAccessDenied, CodeUnauthorizedSiteAccess:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTemporarilyUnavailable, CodeStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// SecuritySensitive reports whether the code indicates a possible attack
// rather than a routine authorization failure. The error display renders
// these with a distinct warning treatment.
func SecuritySensitive(code Code) bool {
	switch code {
	case CodeInvalidState, CodeUnauthorizedSiteAccess, CodeUnauthorizedClient, CodeSessionExpired:
		return true
	default:
		return false
	}
}

// Message maps an error code to the text shown on the error display.
func Message(code Code) string {
	switch code {
	case CodeAccessDenied:
		return "Authorization was denied. Please try again and grant the required permissions."
	case CodeInvalidRequest:
		return "Invalid authorization request. Please contact support if this persists."
	case CodeUnauthorizedClient:
		return "Application not authorized. Please contact the site administrator."
	case CodeUnsupportedResponseType:
		return "Authorization method not supported."
	case CodeInvalidScope:
		return "Requested permissions are not valid."
	case CodeServerError:
		return "Authorization server error. Please try again later."
	case CodeTemporarilyUnavailable:
		return "Authorization service temporarily unavailable. Please try again later."
	case CodeUnauthorizedSiteAccess:
		return "You do not have permission to access this site."
	case CodeSessionExpired:
		return "Your session has expired. Please authenticate again."
	case CodeInvalidState:
		return "Security validation failed. Please try the authorization process again."
	default:
		return "An unknown authorization error occurred."
	}
}
