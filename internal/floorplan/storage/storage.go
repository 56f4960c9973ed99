package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrInvalidName = errors.New("invalid file name")

// ============================================================
// File Storage
// ============================================================

// FileStorage keeps the uploaded image of each analysis in a directory named
// after the result id.
type FileStorage struct {
	root string
}

func NewFileStorage(root string) *FileStorage {
	return &FileStorage{root: root}
}

func (s *FileStorage) ResultDir(id string) string {
	return filepath.Join(s.root, id)
}

// ImagePath keeps the upload's extension so the file opens as what it is.
func (s *FileStorage) ImagePath(id, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".png"
	}
	return filepath.Join(s.ResultDir(id), "source"+ext)
}

func (s *FileStorage) EnsureDir(id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := os.MkdirAll(s.ResultDir(id), 0o755); err != nil {
		return fmt.Errorf("mkdir result dir: %w", err)
	}
	return nil
}

// SaveUpload writes the original image and returns its path.
func (s *FileStorage) SaveUpload(id, filename string, data []byte) (string, error) {
	if err := s.EnsureDir(id); err != nil {
		return "", err
	}
	path := s.ImagePath(id, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path, nil
}

// Remove deletes the result directory. A missing directory is not an error.
func (s *FileStorage) Remove(id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	return os.RemoveAll(s.ResultDir(id))
}

// checkID rejects ids that would escape the storage root.
func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, id)
	}
	return nil
}
