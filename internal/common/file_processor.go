package common

import (
	"fmt"
	"io"
	"os"

	"resumescore/internal/document"
	"resumescore/internal/errors"
	"resumescore/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger      *errors.Logger
	maxFileSize int64
}

// NewFileProcessor creates a new file processor instance. A maxFileSize of
// zero disables the size check.
func NewFileProcessor(logger *errors.Logger, maxFileSize int64) *FileProcessor {
	if logger == nil {
		logger = errors.Discard()
	}
	return &FileProcessor{logger: logger, maxFileSize: maxFileSize}
}

// ReadFile reads the raw bytes of a file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	var reader io.Reader = file
	if fp.maxFileSize > 0 {
		reader = io.LimitReader(file, fp.maxFileSize+1)
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}
	if fp.maxFileSize > 0 && int64(len(content)) > fp.maxFileSize {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("File %s exceeds the %s limit", filename, utils.FormatFileSize(fp.maxFileSize)), nil)
	}

	return content, nil
}

// ReadDocument checks a resume file, reads it and extracts its text
// according to its extension
func (fp *FileProcessor) ReadDocument(filename string) (string, error) {
	kind, err := utils.CheckResumeFile(filename, fp.maxFileSize)
	if err != nil {
		return "", err
	}

	data, err := fp.ReadFile(filename)
	if err != nil {
		return "", err
	}

	text, err := document.DecodeKind(kind, data)
	if err != nil {
		return "", err
	}

	fp.logger.Debug("Decoded document",
		"filename", filename,
		"kind", kind,
		"size", utils.FormatFileSize(int64(len(data))),
		"characters", len(text))
	return text, nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	if err := utils.EnsureOutputDir(filename); err != nil {
		return err
	}

	err := os.WriteFile(filename, []byte(content), 0600)
	if err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ReadDocuments decodes multiple input files, stopping at the first failure
func (fp *FileProcessor) ReadDocuments(filenames ...string) ([]string, error) {
	texts := make([]string, len(filenames))

	for i, filename := range filenames {
		text, err := fp.ReadDocument(filename)
		if err != nil {
			return nil, err
		}

		texts[i] = text
	}

	return texts, nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.EnsureOutputDir(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
