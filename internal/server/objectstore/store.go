// Package objectstore puts and removes site assets in an S3-compatible
// bucket (MinIO in development) and resolves their public URLs.
package objectstore

import (
	"context"
	"errors"
)

// ErrObjectExists is returned by Put when the key is already taken. Writes
// never overwrite an existing object.
var ErrObjectExists = errors.New("object already exists")

// Store is the object storage client used by the image pipeline.
type Store interface {
	// Put writes body under key only if no object with that key exists.
	Put(ctx context.Context, key, contentType string, body []byte) error
	// Delete removes key. Removing a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the publicly resolvable URL of key.
	URL(key string) string
}
