package compliance

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrNoCheck        = errors.New("document has not been checked yet")
	ErrScanInProgress = errors.New("scan already in progress")
	ErrInvalidStatus  = errors.New("unknown finding status")
)
