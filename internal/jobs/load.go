package jobs

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"resumescore/internal/errors"
	"resumescore/internal/types"
)

//go:embed jobs.schema.json
var catalogSchema string

// FieldError is a single schema violation in a catalog file.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Parse validates data against the catalog schema and decodes it.
func Parse(data []byte) ([]types.JobPosting, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(catalogSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidJobs,
			"job catalog is not valid JSON", err)
	}

	if !result.Valid() {
		fieldErrors := make([]FieldError, 0, len(result.Errors()))
		messages := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			fieldErrors = append(fieldErrors, FieldError{Field: field, Message: desc.Description()})
			messages = append(messages, fmt.Sprintf("%s: %s", field, desc.Description()))
		}
		return nil, errors.NewValidationError(errors.ErrCodeInvalidJobs,
			"job catalog failed validation: "+strings.Join(messages, "; "), nil).
			WithContext("fields", fieldErrors)
	}

	var postings []types.JobPosting
	if err := json.Unmarshal(data, &postings); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidJobs,
			"failed to decode job catalog", err)
	}
	for i := range postings {
		if postings[i].RequiredSkills == nil {
			postings[i].RequiredSkills = []string{}
		}
	}
	return postings, nil
}

// LoadFile reads and validates a JSON job catalog.
func LoadFile(path string) ([]types.JobPosting, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				"job catalog not found", err).WithContext("path", path)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			"failed to read job catalog", err).WithContext("path", path)
	}

	postings, err := Parse(data)
	if err != nil {
		if appErr, ok := errors.As(err); ok {
			return nil, appErr.WithContext("path", path)
		}
		return nil, err
	}
	return postings, nil
}

// LoadOrBuiltin returns LoadFile(path), or the bundled listings when path
// is empty.
func LoadOrBuiltin(path string) ([]types.JobPosting, error) {
	if path == "" {
		return Builtin(), nil
	}
	return LoadFile(path)
}
