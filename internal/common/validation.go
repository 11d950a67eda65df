package common

import (
	"fmt"
	"slices"
)

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// ValidateConcurrency checks a worker count given on the command line
func ValidateConcurrency(n int) error {
	if n < 1 || n > 64 {
		return fmt.Errorf("concurrency must be between 1 and 64, got %d", n)
	}
	return nil
}
