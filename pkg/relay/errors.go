package relay

import "errors"

var (
	ErrInvalidName   = errors.New("relay: event name has no usable base name")
	ErrNilBody       = errors.New("relay: event body is nil")
	ErrInvalidTarget = errors.New("relay: site id and document library are required")
	ErrConfig        = errors.New("relay: invalid configuration")
	ErrRejected      = errors.New("relay: upload rejected")
)
