// Package storage stores product images on the local filesystem or an
// S3-compatible bucket (AWS S3, MinIO, R2).
//
//	storage.Connect()
//	storage.Default().PutStream(ctx, "3f2a.jpg", file, "image/jpeg")
//	url := storage.Default().URL("3f2a.jpg")
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when the requested object does not exist.
var ErrNotFound = errors.New("storage: file not found")

// ErrInvalidPath rejects keys that would escape the disk root.
var ErrInvalidPath = errors.New("storage: invalid path")

// Disk is the driver interface.
type Disk interface {
	PutStream(ctx context.Context, path string, r io.Reader, contentType string) error
	GetStream(ctx context.Context, path string) (io.ReadCloser, error)
	Exists(ctx context.Context, path string) bool
	Delete(ctx context.Context, path string) error
	URL(path string) string
}
