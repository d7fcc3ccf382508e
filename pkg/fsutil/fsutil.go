// Package fsutil provides file system helpers for gocif: typed open and
// stat errors, streaming content hashes, modification detection and
// atomic writes.
package fsutil

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Sentinel errors for error categorization via errors.Is.
var (
	// ErrNilFileInfo is returned when a nil FileInfo is passed.
	ErrNilFileInfo = errors.New("nil FileInfo")

	// ErrNotFound indicates the file does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrPermissionDenied indicates a permission error.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrIsDirectory indicates the path is a directory, not a file.
	ErrIsDirectory = errors.New("path is a directory")
)

// FileInfo captures the state of a file at a point in time.
// The cache uses it to decide whether a stored outcome still applies.
type FileInfo struct {
	// Path is the absolute or relative path to the file.
	Path string

	// Mode is the file's permission and mode bits.
	Mode os.FileMode

	// ModTime is the file's modification time.
	ModTime time.Time

	// Size is the file size in bytes.
	Size int64

	// Hash is the SHA-256 hash of the file content. It is zero until
	// filled by Hash or StatHash.
	Hash [32]byte
}

// classify maps an os error onto the package sentinels.
func classify(path string, err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("%w: %s: %w", ErrPermissionDenied, path, err)
	default:
		return fmt.Errorf("stat %s: %w", path, err)
	}
}

// Stat returns metadata for a regular file without reading it.
func Stat(ctx context.Context, path string) (*FileInfo, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("stat: %w", ctx.Err())
	default:
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, classify(path, err)
	}

	if stat.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}

	return &FileInfo{
		Path:    path,
		Mode:    stat.Mode(),
		ModTime: stat.ModTime(),
		Size:    stat.Size(),
	}, nil
}

// Open opens a regular file for streaming reads and returns its metadata.
// The caller closes the file.
func Open(ctx context.Context, path string) (*os.File, *FileInfo, error) {
	info, err := Stat(ctx, path)
	if err != nil {
		return nil, nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, nil, fmt.Errorf("%w: %s: %w", ErrPermissionDenied, path, err)
		}
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}

	return file, info, nil
}

// Hash streams the file at path through SHA-256.
func Hash(ctx context.Context, path string) ([32]byte, error) {
	var sum [32]byte

	file, _, err := Open(ctx, path)
	if err != nil {
		return sum, err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, &ctxReader{ctx: ctx, r: file}); err != nil {
		return sum, fmt.Errorf("hash %s: %w", path, err)
	}

	copy(sum[:], hasher.Sum(nil))
	return sum, nil
}

// StatHash returns the file's metadata with Hash filled in.
func StatHash(ctx context.Context, path string) (*FileInfo, error) {
	info, err := Stat(ctx, path)
	if err != nil {
		return nil, err
	}

	info.Hash, err = Hash(ctx, path)
	if err != nil {
		return nil, err
	}
	return info, nil
}

// ctxReader stops a long copy once the context is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// CheckModified returns true if the file has been modified since the given FileInfo.
//
// The check uses a two-tier approach:
//  1. Quick check: compare mod time and size (fast, catches most cases)
//  2. Hash check: re-hash content (catches all changes)
func CheckModified(ctx context.Context, info *FileInfo) (bool, error) {
	modified, err := CheckModifiedQuick(ctx, info)
	if err != nil || modified {
		return modified, err
	}

	current, err := Hash(ctx, info.Path)
	if err != nil {
		return false, err
	}
	return current != info.Hash, nil
}

// CheckModifiedQuick performs only the quick modification check (mod time + size).
func CheckModifiedQuick(ctx context.Context, info *FileInfo) (bool, error) {
	if info == nil {
		return false, ErrNilFileInfo
	}

	select {
	case <-ctx.Done():
		return false, fmt.Errorf("check modified: %w", ctx.Err())
	default:
	}

	stat, err := os.Stat(info.Path)
	if err != nil {
		if os.IsNotExist(err) {
			// File was deleted - that's a modification.
			return true, nil
		}
		return false, fmt.Errorf("stat %s: %w", info.Path, err)
	}

	return !stat.ModTime().Equal(info.ModTime) || stat.Size() != info.Size, nil
}
