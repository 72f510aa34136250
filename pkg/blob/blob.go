package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Object describes an object opened from a Source.
type Object struct {
	Key         string
	Size        int64 // -1 when the source does not report it
	ContentType string
	ModTime     time.Time
}

// Source opens objects referenced by storage notifications.
// The caller must close the returned reader.
type Source interface {
	Open(ctx context.Context, key string) (io.ReadCloser, *Object, error)
}

// Kinds accepted in Config.Kind.
const (
	KindNone  = "none"
	KindLocal = "local"
	KindS3    = "s3"
)

// Config selects and configures the Source used to resolve notifications
// that reference objects instead of carrying their bytes.
type Config struct {
	Kind     string `env:"BLOB_SOURCE" envDefault:"none"`
	LocalDir string `env:"BLOB_LOCAL_DIR"`
	S3       S3Config
}

// FromConfig builds the configured source. It returns a nil Source for
// KindNone.
func FromConfig(ctx context.Context, cfg Config, opts ...S3Option) (Source, error) {
	switch cfg.Kind {
	case "", KindNone:
		return nil, nil
	case KindLocal:
		return NewLocalSource(cfg.LocalDir)
	case KindS3:
		return NewS3Source(ctx, cfg.S3, opts...)
	default:
		return nil, fmt.Errorf("%w: unknown source %q", ErrInvalidConfig, cfg.Kind)
	}
}

// IsTemporary reports whether a failed Open may succeed on redelivery.
func IsTemporary(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrOperationCanceled):
		return false
	case errors.Is(err, ErrServiceUnavailable), errors.Is(err, ErrOperationTimeout):
		return true
	case errors.Is(err, ErrObjectNotFound),
		errors.Is(err, ErrBucketNotFound),
		errors.Is(err, ErrAccessDenied),
		errors.Is(err, ErrInvalidObjectState),
		errors.Is(err, ErrInvalidKey),
		errors.Is(err, ErrIsDirectory):
		return false
	default:
		return true
	}
}
