// Machine-readable error codes for the envelope in response.go. Codes are
// lowercase snake_case and stable across releases; clients branch on the
// code, humans read the message. The generic set mirrors HTTP status
// semantics, the rest name business rules a status alone cannot convey.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeUnsupportedCurrency = "unsupported_currency"
	ErrCodePayloadTooLarge     = "payload_too_large"
	ErrCodeMethodNotAllowed    = "method_not_allowed"
)
