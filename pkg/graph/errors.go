package graph

import "errors"

var (
	ErrInvalidRequest = errors.New("graph: invalid upload request")
	ErrInvalidURL     = errors.New("graph: invalid upload URL")
	ErrTransport      = errors.New("graph: upload transport failure")
	ErrTimeout        = errors.New("graph: upload timed out")
)
