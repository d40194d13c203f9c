// Package storage persists uploaded application documents.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrTooLarge    = errors.New("document exceeds maximum size")
	ErrInvalidPath = errors.New("invalid storage path")
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// DocumentStore writes document bytes and returns the path they can be read back from
type DocumentStore interface {
	Save(ctx context.Context, ownerID, applicationID uuid.UUID, documentType, fileName string, content io.Reader) (string, int64, error)
	Open(ctx context.Context, storagePath string) (io.ReadCloser, error)
	Delete(ctx context.Context, storagePath string) error
}

// LocalStore keeps documents under root using owner/application/type/name paths
type LocalStore struct {
	root     string
	maxBytes int64
}

func NewLocalStore(root string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create document root: %w", err)
	}
	return &LocalStore{root: root, maxBytes: maxBytes}, nil
}

// StoragePath is the relative key a document is stored under. Each segment is
// sanitized so the result always has four components.
func StoragePath(ownerID, applicationID uuid.UUID, documentType, fileName string) string {
	return path.Join(ownerID.String(), applicationID.String(),
		safeSegment(documentType, "other"), safeSegment(filepath.Base(fileName), "document"))
}

// safeSegment strips anything outside [a-zA-Z0-9._-]; names made only of dots
// and underscores would climb or collapse the path, so they get the fallback.
func safeSegment(raw, fallback string) string {
	name := unsafeChars.ReplaceAllString(raw, "_")
	if strings.Trim(name, "._") == "" {
		return fallback
	}
	return name
}

func (s *LocalStore) Save(ctx context.Context, ownerID, applicationID uuid.UUID, documentType, fileName string, content io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	rel := StoragePath(ownerID, applicationID, documentType, fileName)
	full, err := s.resolve(rel)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return "", 0, fmt.Errorf("failed to create document directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, io.LimitReader(content, s.maxBytes+1))
	closeErr := tmp.Close()
	if err != nil {
		return "", 0, fmt.Errorf("failed to write document: %w", err)
	}
	if closeErr != nil {
		return "", 0, fmt.Errorf("failed to close document: %w", closeErr)
	}
	if written > s.maxBytes {
		return "", 0, ErrTooLarge
	}

	// re-uploading a type replaces the previous file
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", 0, fmt.Errorf("failed to move document into place: %w", err)
	}

	return rel, written, nil
}

func (s *LocalStore) Open(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.resolve(storagePath)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

func (s *LocalStore) Delete(ctx context.Context, storagePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(storagePath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (s *LocalStore) resolve(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, "..") {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.root, clean), nil
}
