// Package utils holds the filesystem checks the CLI runs before touching
// resume files.
package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"resumescore/internal/document"
	"resumescore/internal/errors"
)

// ErrCodeInvalidInputFile marks a path that exists but cannot be used as a resume.
const ErrCodeInvalidInputFile = "INVALID_INPUT_FILE"

// CheckResumeFile verifies that path is a readable regular file of a
// supported document format, no larger than maxSize bytes (zero disables
// the limit), and returns its format.
func CheckResumeFile(path string, maxSize int64) (document.Kind, error) {
	if path == "" {
		return "", errors.NewValidationError(ErrCodeInvalidInputFile, "resume file path cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", path), err)
		}
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot access file: %s", path), err)
	}
	if !info.Mode().IsRegular() {
		return "", errors.NewValidationError(ErrCodeInvalidInputFile,
			fmt.Sprintf("Not a regular file: %s", path), nil)
	}

	kind, err := document.CheckName(path)
	if err != nil {
		return "", err
	}

	if maxSize > 0 && info.Size() > maxSize {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("File %s is %s, over the %s limit", path, FormatFileSize(info.Size()), FormatFileSize(maxSize)), nil).
			WithContext("size", info.Size())
	}

	return kind, nil
}

// EnsureOutputDir creates the parent directory of an output path. An empty
// path means stdout and needs nothing.
func EnsureOutputDir(path string) error {
	if path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return errors.NewIOError("DIRECTORY_CREATE_FAILED",
			fmt.Sprintf("Cannot create directory: %s", dir), err)
	}
	return nil
}

// FormatFileSize returns a human-readable size in binary units
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
