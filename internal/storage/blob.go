package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get for keys that do not exist.
var ErrNotFound = errors.New("blob not found")

type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (string, error) // returns canonical key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]string, error) // keys under prefix, sorted
}
