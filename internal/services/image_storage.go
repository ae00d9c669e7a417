package services

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImageStorageService stores team images downloaded from articles so they
// can be re-analyzed without another fetch
type ImageStorageService struct {
	storageDir string
}

// NewImageStorageService creates a new image storage service
func NewImageStorageService() *ImageStorageService {
	storageDir := os.Getenv("ARTICLE_IMAGES_DIR")
	if storageDir == "" {
		storageDir = "./data/article_images"
	}

	// Ensure the storage directory exists
	if err := os.MkdirAll(storageDir, 0755); err != nil {
		// Log error but don't fail - will fail on actual writes
		fmt.Printf("Warning: could not create article images directory: %v\n", err)
	}

	return &ImageStorageService{
		storageDir: storageDir,
	}
}

// SaveImage saves image data to disk and returns the filename. The source
// URL only contributes the file extension.
func (s *ImageStorageService) SaveImage(imageData []byte, sourceURL string) (string, error) {
	if len(imageData) == 0 {
		return "", fmt.Errorf("empty image data")
	}

	filename := uuid.New().String() + imageExtension(sourceURL)
	filePath := filepath.Join(s.storageDir, filename)

	if err := os.WriteFile(filePath, imageData, 0644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}

	return filename, nil
}

// GetImagePath returns the full path to an image file
func (s *ImageStorageService) GetImagePath(filename string) string {
	return filepath.Join(s.storageDir, filename)
}

// DeleteImage removes an image file from disk
func (s *ImageStorageService) DeleteImage(filename string) error {
	if filename == "" {
		return nil
	}

	filePath := filepath.Join(s.storageDir, filename)

	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil // Already deleted
	}

	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	return nil
}

// GetStorageDir returns the storage directory path
func (s *ImageStorageService) GetStorageDir() string {
	return s.storageDir
}

// imageExtension pulls a safe image extension from a URL, defaulting to
// .jpg when the URL gives none.
func imageExtension(sourceURL string) string {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return ".jpg"
	}
	ext := strings.ToLower(filepath.Ext(parsed.Path))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext
	}
	return ".jpg"
}
