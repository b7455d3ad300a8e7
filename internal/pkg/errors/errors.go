package errors

import "errors"

var (
	// ErrInvalidRequest marks caller input that fails validation. Never retried.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrProvider marks a failed or malformed embedding/generation call.
	ErrProvider = errors.New("provider error")
	// ErrStoreUnavailable marks a vector store that is unreachable or misconfigured.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrIngestionFailed wraps any failure during an ingestion run.
	ErrIngestionFailed = errors.New("ingestion failed")
	// ErrQueryFailed wraps any failure during a query run.
	ErrQueryFailed = errors.New("query failed")
)

func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
