package coordinator

import "errors"

var (
	// ErrUpdateFailed wraps the cause when a poll cannot complete.
	ErrUpdateFailed = errors.New("coordinator: update failed")

	// ErrUnknownDevice is returned for commands addressing a device the
	// coordinator has never seen.
	ErrUnknownDevice = errors.New("coordinator: unknown device")
)
