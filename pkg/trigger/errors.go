package trigger

import "errors"

var (
	ErrMalformedRequest = errors.New("trigger: malformed invocation request")
	ErrMissingBinding   = errors.New("trigger: binding data is missing")
	ErrMissingName      = errors.New("trigger: blob name is missing from metadata")
	ErrUnknownEncoding  = errors.New("trigger: unknown binding encoding")
	ErrNoSource         = errors.New("trigger: no blob source configured")
)
