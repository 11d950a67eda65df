package common

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resumescore/internal/errors"
	"resumescore/internal/types"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestReadDocuments(t *testing.T) {
	txt := writeTemp(t, "resume.txt", "Jane Doe\r\nGo developer")
	html := writeTemp(t, "resume.html", "<html><body><p>Jane Doe</p><p>Go developer</p></body></html>")

	texts, err := NewFileProcessor(nil, 0).ReadDocuments(txt, html)
	if err != nil {
		t.Fatalf("ReadDocuments returned error: %v", err)
	}
	for i, text := range texts {
		if !strings.Contains(text, "Jane Doe") || !strings.Contains(text, "Go developer") {
			t.Errorf("texts[%d] = %q, expected decoded resume", i, text)
		}
	}
}

func TestReadDocumentErrors(t *testing.T) {
	fp := NewFileProcessor(nil, 8)

	if _, err := fp.ReadDocuments(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("Expected error for missing file")
	}

	big := writeTemp(t, "big.txt", "this is longer than eight bytes")
	if _, err := fp.ReadDocument(big); !errors.HasCode(err, errors.ErrCodeInvalidRequest) {
		t.Errorf("Expected INVALID_REQUEST for oversized file, got %v", err)
	}

	odd := writeTemp(t, "resume.xyz", "data")
	if _, err := NewFileProcessor(nil, 0).ReadDocument(odd); !errors.HasCode(err, errors.ErrCodeUnsupportedDocument) {
		t.Errorf("Expected UNSUPPORTED_DOCUMENT, got %v", err)
	}
}

func TestRunCommandWritesOutputFile(t *testing.T) {
	input := writeTemp(t, "resume.txt", "Jane Doe")
	output := filepath.Join(t.TempDir(), "out", "score.md")

	var logged []string
	err := RunCommand(context.Background(), nil,
		CommandConfig{OutputFile: output, OutputFormat: "markdown"},
		[]string{input},
		func(_ context.Context, texts []string) (types.Advice, error) {
			return types.Advice{Headline: "Hello " + texts[0]}, nil
		},
		func(texts []string, _ CommandConfig) { logged = texts },
	)
	if err != nil {
		t.Fatalf("RunCommand returned error: %v", err)
	}
	if len(logged) != 1 {
		t.Errorf("Expected log callback with 1 text, got %d", len(logged))
	}

	content, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(content), "Hello Jane Doe") {
		t.Errorf("Unexpected output: %s", content)
	}
}

func TestHandleOutputStdout(t *testing.T) {
	var sb strings.Builder
	handler := NewOutputHandler(nil)
	handler.SetOutput(&sb)

	if err := handler.HandleOutput(map[string]int{"total": 1}, CommandConfig{OutputFormat: "json"}); err != nil {
		t.Fatalf("HandleOutput returned error: %v", err)
	}
	if !strings.Contains(sb.String(), `"total": 1`) {
		t.Errorf("Unexpected stdout output: %s", sb.String())
	}

	if err := handler.HandleOutput(map[string]int{}, CommandConfig{OutputFormat: "xml"}); !errors.HasCode(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Expected INVALID_FORMAT, got %v", err)
	}
}
