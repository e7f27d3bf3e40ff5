package service

import "errors"

var (
	// ErrProviderNotFound maps to HTTP 404. No side effects occur for
	// unknown providers.
	ErrProviderNotFound = errors.New("provider_not_found")

	// ErrMissingParams is returned when a callback arrives without the
	// code or state query parameters.
	ErrMissingParams = errors.New("missing_parameters")

	// ErrStateMismatch is returned when a callback's state does not
	// match the pending one. The browser is sent back to re-initiate.
	ErrStateMismatch = errors.New("state_mismatch")

	// ErrExchangeFailed wraps upstream token endpoint failures.
	ErrExchangeFailed = errors.New("exchange_failed")

	// ErrHookFailed wraps a hook error that aborted a flow.
	ErrHookFailed = errors.New("hook_failed")

	// ErrUnauthorized is returned when a logout notification carries a
	// missing or wrong shared secret.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidNotification is returned when a logout notification
	// body cannot be parsed.
	ErrInvalidNotification = errors.New("invalid_notification")
)
