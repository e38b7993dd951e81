package storage

import (
	"errors"
	"io"
)

var ErrEmptyKey = errors.New("empty key")

// BlobStore keeps downloaded answers and references addressable by key.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Path(key string) string
	Exists(key string) bool
}
