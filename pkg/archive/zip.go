package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// Info describes a single-entry archive written by ZipFile.
type Info struct {
	EntryName      string
	Size           int64 // uncompressed bytes
	CompressedSize int64 // deflated entry bytes
	ArchiveSize    int64 // bytes on disk including zip headers
}

type options struct {
	level int
}

type Option func(*options)

// WithLevel sets the deflate level (flate.HuffmanOnly..flate.BestCompression).
func WithLevel(level int) Option {
	return func(o *options) { o.level = level }
}

// ZipFile writes src into dst as a zip archive holding exactly one deflated
// entry named entryName. dst is created or truncated. On error the partial
// archive is removed.
func ZipFile(ctx context.Context, src, dst, entryName string, opts ...Option) (Info, error) {
	o := options{level: flate.DefaultCompression}
	for _, opt := range opts {
		opt(&o)
	}
	if o.level < flate.HuffmanOnly || o.level > flate.BestCompression {
		return Info{}, fmt.Errorf("%w: %d", ErrInvalidLevel, o.level)
	}
	if entryName == "" {
		return Info{}, ErrEmptyEntryName
	}

	in, err := os.Open(src)
	if err != nil {
		return Info{}, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	st, err := in.Stat()
	if err != nil {
		return Info{}, fmt.Errorf("stat source: %w", err)
	}
	if st.IsDir() {
		return Info{}, ErrSourceIsDirectory
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return Info{}, fmt.Errorf("create archive: %w", err)
	}

	info, err := writeEntry(ctx, out, in, st, entryName, o.level)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close archive: %w", cerr)
	}
	if err != nil {
		_ = os.Remove(dst)
		return Info{}, err
	}

	return info, nil
}

// writeEntry writes the archive to out. ArchiveSize is the number of bytes
// out accepted.
func writeEntry(ctx context.Context, out io.Writer, in io.Reader, st os.FileInfo, name string, level int) (Info, error) {
	cw := &countingWriter{w: out}
	zw := zip.NewWriter(cw)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	})

	hdr, err := zip.FileInfoHeader(st)
	if err != nil {
		return Info{}, fmt.Errorf("entry header: %w", err)
	}
	hdr.Name = name
	hdr.Method = zip.Deflate
	hdr.Modified = st.ModTime()

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return Info{}, fmt.Errorf("create entry: %w", err)
	}

	n, err := copyContext(ctx, w, in)
	if err != nil {
		return Info{}, err
	}

	if err := zw.Close(); err != nil {
		return Info{}, fmt.Errorf("finalize archive: %w", err)
	}

	return Info{
		EntryName:      name,
		Size:           n,
		CompressedSize: int64(hdr.CompressedSize64),
		ArchiveSize:    cw.n,
	}, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func copyContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, 32*1024)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			written += int64(nw)
			if werr != nil {
				return written, fmt.Errorf("compress: %w", werr)
			}
			if nw != nr {
				return written, fmt.Errorf("compress: %w", io.ErrShortWrite)
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return written, nil
			}
			return written, fmt.Errorf("read source: %w", rerr)
		}
	}
}
