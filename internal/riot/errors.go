package riot

import "errors"

var (
	// ErrNotFound means the remote resource does not exist (unknown riot id,
	// purged match). Never retried.
	ErrNotFound = errors.New("riot: not found")

	// ErrAuth means the API key was rejected. Never retried.
	ErrAuth = errors.New("riot: credentials rejected")

	// ErrUnavailable means the transient retry budget was exhausted.
	ErrUnavailable = errors.New("riot: service unavailable")
)
