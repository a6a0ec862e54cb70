package storage

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorageClient keeps objects under a directory on the local filesystem.
// Object names are sanitized so a stored path can never escape the root.
type LocalStorageClient struct {
	Root string
}

// NewLocalStorageClient ensures the root directory exists.
func NewLocalStorageClient(root string) (*LocalStorageClient, error) {
	if root == "" {
		root = "uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %v", err)
	}
	return &LocalStorageClient{Root: root}, nil
}

func (l *LocalStorageClient) resolve(objectName string) (string, error) {
	cleaned := filepath.Clean("/" + objectName)
	full := filepath.Join(l.Root, cleaned)
	if !strings.HasPrefix(full, filepath.Clean(l.Root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid object name: %s", objectName)
	}
	return full, nil
}

// UploadFile writes fileData to a file under the root directory.
func (l *LocalStorageClient) UploadFile(objectName string, fileData io.Reader) error {
	full, err := l.resolve(objectName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create object directory: %v", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("failed to create object file: %v", err)
	}
	defer func() { _ = f.Close() }()
	if _, err := io.Copy(f, fileData); err != nil {
		return fmt.Errorf("failed to write object file: %v", err)
	}
	return nil
}

// DownloadFile opens the stored file and returns its size.
func (l *LocalStorageClient) DownloadFile(objectName string) (io.ReadCloser, int64, error) {
	full, err := l.resolve(objectName)
	if err != nil {
		return nil, 0, err
	}
	info, err := os.Stat(full)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to stat object file: %v", err)
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open object file: %v", err)
	}
	return f, info.Size(), nil
}

// ListFiles returns the object names of every stored file under the prefix.
func (l *LocalStorageClient) ListFiles(prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(l.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(l.Root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list object files: %v", err)
	}
	return names, nil
}

// DeleteFile removes the stored file.
func (l *LocalStorageClient) DeleteFile(objectName string) error {
	full, err := l.resolve(objectName)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		return fmt.Errorf("failed to delete object file: %v", err)
	}
	return nil
}
