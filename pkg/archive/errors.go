package archive

import "errors"

var (
	ErrEmptyEntryName    = errors.New("archive: entry name is empty")
	ErrSourceIsDirectory = errors.New("archive: source is a directory")
	ErrEntryNotFound     = errors.New("archive: entry not found")
	ErrInvalidLevel      = errors.New("archive: invalid compression level")
)
