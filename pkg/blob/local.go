package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// LocalSource reads objects from a directory. Keys are slash-separated paths
// relative to the directory and may not escape it.
type LocalSource struct {
	baseDir string
}

func NewLocalSource(baseDir string) (*LocalSource, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("%w: local directory is required", ErrInvalidConfig)
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &LocalSource{baseDir: abs}, nil
}

func (s *LocalSource) Open(ctx context.Context, key string) (io.ReadCloser, *Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrOperationCanceled, err)
	}

	p, err := s.resolve(key)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		if errors.Is(err, fs.ErrPermission) {
			return nil, nil, fmt.Errorf("%w: %s", ErrAccessDenied, key)
		}
		return nil, nil, fmt.Errorf("open %s: %w", key, err)
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("stat %s: %w", key, err)
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%w: %s", ErrIsDirectory, key)
	}

	contentType := mime.TypeByExtension(filepath.Ext(p))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return f, &Object{
		Key:         key,
		Size:        st.Size(),
		ContentType: contentType,
		ModTime:     st.ModTime(),
	}, nil
}

func (s *LocalSource) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	p := filepath.Join(s.baseDir, filepath.Clean(filepath.FromSlash(key)))
	if !strings.HasPrefix(p, s.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidKey, key)
	}
	return p, nil
}
