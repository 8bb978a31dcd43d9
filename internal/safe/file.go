package safe

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultMaxDocumentSize is the size limit used for configuration-like
// documents when the caller does not set one (1MB).
const DefaultMaxDocumentSize = 1 << 20

// ReadOptions configures the behavior of ReadFile.
type ReadOptions struct {
	// MaxSize is the maximum allowed file size in bytes. Zero or negative
	// means no limit.
	MaxSize int64
	// AllowSymlinks allows reading through a symlink. Default is false.
	AllowSymlinks bool
}

// ReadFile reads a whole file with validations.
// It rejects symlinks unless allowed, refuses anything that is not a regular
// file (devices and pipes would block or never end), and enforces the size
// limit both before and during the read.
func ReadFile(path string, opts *ReadOptions) ([]byte, error) {
	if opts == nil {
		opts = &ReadOptions{MaxSize: DefaultMaxDocumentSize}
	}

	cleanPath := filepath.Clean(path)

	// Check file info without following symlinks.
	info, err := os.Lstat(cleanPath)
	if err != nil {
		return nil, err
	}

	if info.Mode()&os.ModeSymlink != 0 {
		if !opts.AllowSymlinks {
			return nil, fmt.Errorf("file %q is a symlink, which is not allowed for security reasons", path)
		}
		info, err = os.Stat(cleanPath)
		if err != nil {
			return nil, err
		}
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("path %q is not a regular file", path)
	}

	if opts.MaxSize > 0 && info.Size() > opts.MaxSize {
		return nil, fmt.Errorf("file exceeds maximum allowed size of %d bytes", opts.MaxSize)
	}

	// #nosec G304 - the path has been validated above.
	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	adviseSequential(f, info.Size())

	var r io.Reader = f
	if opts.MaxSize > 0 {
		// The file may grow between Stat and Read.
		r = io.LimitReader(f, opts.MaxSize+1)
	}

	var buf bytes.Buffer
	buf.Grow(int(info.Size()))
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if opts.MaxSize > 0 && int64(buf.Len()) > opts.MaxSize {
		return nil, fmt.Errorf("file exceeds maximum allowed size of %d bytes", opts.MaxSize)
	}

	return buf.Bytes(), nil
}
