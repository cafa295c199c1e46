// Package errs holds the error taxonomy shared by the store, the service
// and the HTTP layer. Callers match with errors.Is.
package errs

import "errors"

var (
	// ErrSchema reports a failed schema creation or migration. Fatal at startup.
	ErrSchema = errors.New("schema error")
	// ErrStore reports a connection, I/O or constraint failure of a store operation.
	ErrStore = errors.New("store error")
	// ErrDecode reports a slug that is not a valid encoded fingerprint.
	ErrDecode = errors.New("invalid slug")
	// ErrNotFound reports a well-formed key with no matching record.
	ErrNotFound = errors.New("not found")

	ErrInvalidRequest = errors.New("invalid request")
	ErrNilDependency  = errors.New("nil dependency")
	ErrDBNotConnected = errors.New("database not connected")
)
