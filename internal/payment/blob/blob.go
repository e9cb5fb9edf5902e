// Package blob abstracts durable storage of uploaded payment proofs.
package blob

import (
	"context"
	"io"
)

// ProgressFunc observes upload progress. total is the declared size;
// written is cumulative bytes accepted so far.
type ProgressFunc func(written, total int64)

// Store accepts a binary object plus a path key and returns a durable
// retrieval reference. A returned error guarantees nothing durable exists
// under the key, so uploads are safe to retry.
type Store interface {
	Put(ctx context.Context, key, contentType string, size int64, r io.Reader, progress ProgressFunc) (ref string, err error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}
