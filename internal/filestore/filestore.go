// Package filestore stores uploaded documents on disk under the layout
// requests/{requestID}/{baseName}-{timestamp}.{ext}. It enforces the upload
// size cap and the MIME allow-list; everything above it (securing, metadata)
// belongs to the lifecycle engine.
package filestore

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"reqtrack/backend/internal/config"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds the maximum upload size")
	ErrDisallowedMIME  = errors.New("file type is not allowed")
	ErrEmptyFileName   = errors.New("file name must not be empty")
)

// ObjectStore is the object storage contract used by the lifecycle engine.
type ObjectStore interface {
	// Put validates and stores one object, returning its object path.
	Put(requestID, fileName, mimeType string, data []byte) (string, error)
	// Delete removes a single object by path.
	Delete(objectPath string) error
	// DeleteAll removes every object belonging to a request.
	DeleteAll(requestID string) error
}

// DiskStore keeps objects under a root directory.
type DiskStore struct {
	Root string
}

func NewDiskStore(root string) *DiskStore {
	return &DiskStore{Root: root}
}

// ObjectPath builds the canonical object path for an upload. The timestamp
// suffix keeps repeated uploads of the same file name from colliding.
func ObjectPath(requestID, fileName string, now time.Time) string {
	base := strings.TrimSuffix(path.Base(fileName), path.Ext(fileName))
	ext := strings.TrimPrefix(path.Ext(fileName), ".")
	if ext == "" {
		return fmt.Sprintf("requests/%s/%s-%d", requestID, base, now.Unix())
	}
	return fmt.Sprintf("requests/%s/%s-%d.%s", requestID, base, now.Unix(), ext)
}

// Validate checks the upload constraints without touching the disk.
func Validate(fileName, mimeType string, size int64) error {
	if strings.TrimSpace(fileName) == "" {
		return ErrEmptyFileName
	}
	if size > config.MaxUploadSize {
		return ErrFileTooLarge
	}
	if !config.AllowedMIMETypes[mimeType] {
		return ErrDisallowedMIME
	}
	return nil
}

func (d *DiskStore) Put(requestID, fileName, mimeType string, data []byte) (string, error) {
	if err := Validate(fileName, mimeType, int64(len(data))); err != nil {
		return "", err
	}

	objectPath := ObjectPath(requestID, fileName, time.Now())
	fullPath := filepath.Join(d.Root, filepath.FromSlash(objectPath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create object directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	return objectPath, nil
}

func (d *DiskStore) Delete(objectPath string) error {
	fullPath := filepath.Join(d.Root, filepath.FromSlash(objectPath))
	err := os.Remove(fullPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (d *DiskStore) DeleteAll(requestID string) error {
	dir := filepath.Join(d.Root, "requests", requestID)
	err := os.RemoveAll(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
