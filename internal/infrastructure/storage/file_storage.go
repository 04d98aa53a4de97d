package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/garyjia/sales-tax-reports/internal/application/port"
	"go.uber.org/zap"
)

// LocalFileStorage implements port.ObjectStorage on the local filesystem.
// Links are file:// URLs and ignore the ttl.
type LocalFileStorage struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalFileStorage creates a new LocalFileStorage
func NewLocalFileStorage(baseDir string, logger *zap.Logger) *LocalFileStorage {
	return &LocalFileStorage{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Upload writes body to key below the base directory
func (s *LocalFileStorage) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	fullPath := s.GetFullPath(key)

	// Validate path security
	if err := s.validatePath(fullPath); err != nil {
		return err
	}

	// Create parent directories
	parentDir := filepath.Dir(fullPath)
	if err := os.MkdirAll(parentDir, 0755); err != nil {
		s.logger.Error("Failed to create parent directories",
			zap.String("path", parentDir),
			zap.Error(err))
		return fmt.Errorf("failed to create directories: %w", err)
	}

	// Write to a sibling temp file and rename into place
	tmp := fullPath + ".tmp"
	if err := os.WriteFile(tmp, body, 0644); err != nil {
		s.logger.Error("Failed to write file",
			zap.String("path", tmp),
			zap.Error(err))
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move file into place: %w", err)
	}

	s.logger.Debug("File saved successfully",
		zap.String("path", fullPath),
		zap.String("content_type", contentType),
		zap.Int("size", len(body)))

	return nil
}

// PresignGet returns a file:// URL for an existing key
func (s *LocalFileStorage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	fullPath := s.GetFullPath(key)
	if err := s.validatePath(fullPath); err != nil {
		return "", err
	}

	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", key, err)
	}

	link := url.URL{Scheme: "file", Path: filepath.ToSlash(absPath)}
	return link.String(), nil
}

// Read reads content stored under key
func (s *LocalFileStorage) Read(ctx context.Context, key string) ([]byte, error) {
	fullPath := s.GetFullPath(key)

	// Validate path security
	if err := s.validatePath(fullPath); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		s.logger.Error("Failed to read file",
			zap.String("path", fullPath),
			zap.Error(err))
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return content, nil
}

// GetFullPath converts a key to a filesystem path
func (s *LocalFileStorage) GetFullPath(key string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(key))
}

// validatePath checks that the path is safe and within baseDir
func (s *LocalFileStorage) validatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	// Proper check: ensure path starts with base + separator
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}

	return nil
}

// Verify interface compliance
var _ port.ObjectStorage = (*LocalFileStorage)(nil)
