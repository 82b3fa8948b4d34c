package engine

import "errors"

var (
	// ErrAlreadyProcessed is the expected idempotent no-op path: the
	// period was already logged, the flag already set, the day already
	// swept. Callers treat it as success.
	ErrAlreadyProcessed = errors.New("already processed")

	// ErrAdminMissing means the admin singleton is absent. Financial
	// mutations hard-stop on it.
	ErrAdminMissing = errors.New("admin configuration missing")

	ErrPolicyViolation = errors.New("policy violation")
)
