// Package storage hold resume file blobs behind a small client interface,
// backed by a local directory in development or a GCS bucket in production.
package storage

import (
	"io"
)

// Client stores and retrieves uploaded resume files by opaque object name.
type Client interface {
	UploadFile(objectName string, fileData io.Reader) error
	DownloadFile(objectName string) (io.ReadCloser, int64, error)
	ListFiles(prefix string) ([]string, error)
	DeleteFile(objectName string) error
}
