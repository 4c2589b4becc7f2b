package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when the requested object does not exist.
	ErrNotFound = errors.New("object not found")
)

// Object is a single stored entry.
type Object struct {
	Bucket       string
	Key          string
	Body         []byte
	ContentType  string
	LastModified time.Time
}

// ObjectStore is the contract every storage backend must satisfy.
// Objects are only ever created, read and deleted; never patched in place.
type ObjectStore interface {
	PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	DeleteObject(ctx context.Context, bucket, key string) error
}

// ObjectInfo describes an object without its content.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// Lister is implemented by stores that can enumerate keys under a prefix.
type Lister interface {
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
}

// Stater is implemented by stores that return an object with its metadata.
type Stater interface {
	Stat(ctx context.Context, bucket, key string) (Object, error)
}
