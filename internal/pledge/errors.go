package pledge

import "errors"

var (
	// ErrNotFound covers both "absent" and "exists but not visible to this
	// caller" on owner-scoped reads.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied signals a role requirement that was not met.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrConflict signals the (cause, user) uniqueness violation on promises.
	ErrConflict = errors.New("resource conflict")
	// ErrInvalidInput signals malformed field values.
	ErrInvalidInput = errors.New("invalid input")
)
