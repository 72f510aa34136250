package scratch

import "errors"

var (
	ErrInvalidConfig           = errors.New("scratch: base directory and namespace are required")
	ErrInvalidPath             = errors.New("scratch: path escapes workspace")
	ErrNilReader               = errors.New("scratch: reader is nil")
	ErrIsDirectory             = errors.New("scratch: path is a directory")
	ErrFailedToCreateDirectory = errors.New("scratch: failed to create directory")
	ErrFailedToCreateFile      = errors.New("scratch: failed to create file")
	ErrFailedToWriteFile       = errors.New("scratch: failed to write file")
	ErrFailedToReadSource      = errors.New("scratch: failed to read source")
	ErrFailedToRemove          = errors.New("scratch: failed to remove")
)
