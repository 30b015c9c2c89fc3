// Package iohelper provides size-limited reads for startup files and HTTP
// response bodies.
package iohelper

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrTooLarge is returned by ReadFile when a file exceeds the size limit.
var ErrTooLarge = errors.New("file exceeds size limit")

// Standard body size limits for different use cases
const (
	// SmallMaxBodySize is for headers, status pages, etc. (8KB)
	SmallMaxBodySize int64 = 8 * 1024

	// DefaultMaxBodySize is for general responses (1MB)
	DefaultMaxBodySize int64 = 1024 * 1024
)

// ReadBody reads from an io.Reader with a size limit.
// If r is nil, returns empty slice and no error.
//
// Usage:
//
//	body, err := iohelper.ReadBody(resp.Body, iohelper.DefaultMaxBodySize)
//	defer resp.Body.Close()
func ReadBody(r io.Reader, maxSize int64) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// ReadFile reads the whole file at path. Unlike ReadBody it never truncates:
// a file larger than maxSize is an error wrapping ErrTooLarge.
func ReadFile(path string, maxSize int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: is a directory", path)
	}
	if info.Size() > maxSize {
		return nil, fmt.Errorf("%s: %w (%d > %d bytes)", path, ErrTooLarge, info.Size(), maxSize)
	}

	// Read one byte past the limit to catch files that grew after Stat.
	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%s: %w (> %d bytes)", path, ErrTooLarge, maxSize)
	}
	return data, nil
}

// DrainAndClose reads any remaining data from r and closes it if it's a ReadCloser.
// This ensures the connection can be reused for HTTP keep-alive.
// Always returns nil error to allow use in defer.
func DrainAndClose(r io.Reader) error {
	if r == nil {
		return nil
	}

	// Drain remaining data (limited to 64KB to prevent DoS)
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 64*1024))

	if rc, ok := r.(io.ReadCloser); ok {
		rc.Close()
	}
	return nil
}
