// Package blob is the object-store boundary: opaque bytes by key.
// It is never consulted for business-logic decisions.
package blob

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("blob not found")

type Object struct {
	Key        string
	Size       int64
	UploadedAt time.Time
}

type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]Object, error)
	Delete(ctx context.Context, key string) error
}
