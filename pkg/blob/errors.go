package blob

import "errors"

var (
	ErrInvalidConfig      = errors.New("blob: invalid configuration")
	ErrFailedToLoadConfig = errors.New("blob: failed to load AWS config")
	ErrInvalidKey         = errors.New("blob: invalid object key")
	ErrIsDirectory        = errors.New("blob: key refers to a directory")

	ErrObjectNotFound     = errors.New("blob: object not found")
	ErrBucketNotFound     = errors.New("blob: bucket not found")
	ErrAccessDenied       = errors.New("blob: access denied")
	ErrServiceUnavailable = errors.New("blob: service temporarily unavailable")
	ErrInvalidObjectState = errors.New("blob: invalid object state")

	ErrOperationTimeout  = errors.New("blob: operation timed out")
	ErrOperationCanceled = errors.New("blob: operation canceled")
)
