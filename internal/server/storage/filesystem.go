package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store defines the interface for attachment storage backends.
// This allows swapping filesystem for S3 or other backends later.
type Store interface {
	Save(name string, data io.Reader) (int64, error)
	GetPath(name string) (string, error)
	Delete(name string) error
	EnsureDir() error
}

// NewStoredName generates a collision-resistant filename for an
// uploaded attachment, keeping only the original extension. Uploaders
// never control the stored path.
func NewStoredName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return uuid.New().String() + ext
}

// FileSystemStore stores attachments on the local filesystem.
type FileSystemStore struct {
	basePath string
}

// NewFileSystemStore creates a new filesystem storage backend.
func NewFileSystemStore(basePath string) *FileSystemStore {
	return &FileSystemStore{basePath: basePath}
}

// EnsureDir creates the storage directory if it doesn't exist.
func (fs *FileSystemStore) EnsureDir() error {
	if err := os.MkdirAll(fs.basePath, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory %s: %w", fs.basePath, err)
	}
	return nil
}

// Save writes data from a reader to a file with the given generated
// name. Returns the number of bytes written.
func (fs *FileSystemStore) Save(name string, data io.Reader) (int64, error) {
	filePath := fs.filePath(name)

	file, err := os.Create(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to create file %s: %w", filePath, err)
	}
	defer file.Close()

	n, err := io.Copy(file, data)
	if err != nil {
		// Clean up partial file on error
		os.Remove(filePath)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}

	return n, nil
}

// GetPath returns the absolute path to a stored attachment.
// Returns an error if the file does not exist.
func (fs *FileSystemStore) GetPath(name string) (string, error) {
	filePath := fs.filePath(name)

	if _, err := os.Stat(filePath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found for attachment %s", name)
		}
		return "", fmt.Errorf("failed to stat file: %w", err)
	}

	return filePath, nil
}

// Delete removes a stored attachment.
func (fs *FileSystemStore) Delete(name string) error {
	filePath := fs.filePath(name)
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %w", filePath, err)
	}
	return nil
}

func (fs *FileSystemStore) filePath(name string) string {
	// Generated names carry no separators, but never trust the input.
	return filepath.Join(fs.basePath, filepath.Base(name))
}
