package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var allowedImageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
}

var allowedVideoExts = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true,
}

// IsAllowedImage reports whether the filename has an accepted image extension.
func IsAllowedImage(filename string) bool {
	return allowedImageExts[strings.ToLower(filepath.Ext(filename))]
}

// IsAllowedVideo reports whether the filename has an accepted video extension.
func IsAllowedVideo(filename string) bool {
	return allowedVideoExts[strings.ToLower(filepath.Ext(filename))]
}

// SaveUploadedFile writes a multipart file under dir with a uuid-based name
// and returns the stored path. The uuid avoids timestamp filename collisions
// under concurrent uploads.
func SaveUploadedFile(fileHeader *multipart.FileHeader, dir string) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	ext := filepath.Ext(fileHeader.Filename)
	filename := uuid.New().String() + ext
	filePath := filepath.Join(dir, filename)

	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("failed to save file content: %w", err)
	}

	return filePath, nil
}
