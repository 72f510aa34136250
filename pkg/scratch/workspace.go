package scratch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Workspace is a per-invocation directory under a shared scratch root.
// All paths it hands out stay inside Dir.
type Workspace struct {
	dir string
}

// New creates <baseDir>/<namespace> and returns a workspace rooted there.
// The namespace must be a single path element.
func New(baseDir, namespace string) (*Workspace, error) {
	if baseDir == "" || namespace == "" {
		return nil, ErrInvalidConfig
	}
	if namespace != filepath.Base(namespace) || namespace == "." || namespace == ".." {
		return nil, fmt.Errorf("%w: namespace %q", ErrInvalidPath, namespace)
	}

	root, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateDirectory, err)
	}

	dir := filepath.Join(root, namespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateDirectory, err)
	}

	return &Workspace{dir: dir}, nil
}

// Dir returns the absolute workspace directory.
func (w *Workspace) Dir() string { return w.dir }

// Path resolves name inside the workspace.
func (w *Workspace) Path(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidPath)
	}
	p := filepath.Join(w.dir, filepath.Clean(name))
	if !strings.HasPrefix(p, w.dir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, name)
	}
	return p, nil
}

// Stage copies r into the workspace file name, replacing any previous file.
// It returns the absolute path and the number of bytes written. A partial file
// is removed when the copy fails or ctx is canceled.
func (w *Workspace) Stage(ctx context.Context, name string, r io.Reader) (string, int64, error) {
	if r == nil {
		return "", 0, ErrNilReader
	}
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	p, err := w.Path(name)
	if err != nil {
		return "", 0, err
	}

	dst, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrFailedToCreateFile, err)
	}

	written, err := copyBuffered(ctx, dst, r)
	if cerr := dst.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("%w: %v", ErrFailedToWriteFile, cerr)
	}
	if err != nil {
		_ = os.Remove(p)
		return "", 0, err
	}

	return p, written, nil
}

// Remove deletes the workspace file name. It reports whether a file was
// actually removed; a missing file is not an error.
func (w *Workspace) Remove(name string) (bool, error) {
	p, err := w.Path(name)
	if err != nil {
		return false, err
	}

	info, err := os.Lstat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrFailedToRemove, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("%w: %s", ErrIsDirectory, name)
	}

	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrFailedToRemove, err)
	}
	return true, nil
}

// Close removes the workspace directory with anything left in it.
// Calling Close more than once is safe.
func (w *Workspace) Close() error {
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToRemove, err)
	}
	return nil
}

func copyBuffered(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	var written int64
	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			nw, writeErr := dst.Write(buf[:n])
			written += int64(nw)
			if writeErr != nil {
				return written, fmt.Errorf("%w: %v", ErrFailedToWriteFile, writeErr)
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, fmt.Errorf("%w: %w", ErrFailedToReadSource, readErr)
		}
	}
}
