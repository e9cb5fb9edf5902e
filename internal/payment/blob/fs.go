package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"technoreg/pkg/platform/sentinel"
)

// Filesystem stores blobs under a root directory. Writes go to a temp
// file and are renamed into place, so a half-written upload is never
// visible under its final key and retries are safe.
type Filesystem struct {
	root string
}

// NewFilesystem creates the root directory if needed.
func NewFilesystem(root string) (*Filesystem, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &Filesystem{root: root}, nil
}

// Put streams r into the keyed file, reporting progress as bytes land.
func (s *Filesystem) Put(ctx context.Context, key, contentType string, size int64, r io.Reader, progress ProgressFunc) (string, error) {
	clean, err := s.cleanKey(key)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(s.root, clean)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create blob directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp blob: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	var written int64
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, readErr := r.Read(buf)
		if n > 0 {
			if _, err := tmp.Write(buf[:n]); err != nil {
				return "", fmt.Errorf("write blob: %w", err)
			}
			written += int64(n)
			if progress != nil {
				progress(written, size)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", fmt.Errorf("read upload: %w", readErr)
		}
	}

	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("finalize blob: %w", err)
	}
	return clean, nil
}

// Open retrieves a stored blob by the reference Put returned.
func (s *Filesystem) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	clean, err := s.cleanKey(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.root, clean))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

// cleanKey rejects keys that would escape the root.
func (s *Filesystem) cleanKey(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return clean, nil
}
