// Package document turns uploaded resume files into plain text.
package document

import (
	"bytes"
	"fmt"
	"html"
	"mime"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"resumescore/internal/errors"
)

// Kind is a supported document format.
type Kind string

const (
	KindText Kind = "text"
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
	KindHTML Kind = "html"
)

// MIME types accepted for each kind.
const (
	MIMEText = "text/plain"
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEHTML = "text/html"
)

// MinPDFText is the shortest text a PDF may yield before it is treated as a
// scanned image.
const MinPDFText = 20

var (
	mimeKinds = map[string]Kind{
		MIMEText:        KindText,
		"text/markdown": KindText,
		MIMEPDF:         KindPDF,
		MIMEDOCX:        KindDOCX,
		MIMEHTML:        KindHTML,
	}
	extKinds = map[string]Kind{
		".txt":      KindText,
		".text":     KindText,
		".md":       KindText,
		".markdown": KindText,
		".pdf":      KindPDF,
		".docx":     KindDOCX,
		".html":     KindHTML,
		".htm":      KindHTML,
	}
)

// Detect picks the document kind from the MIME type, falling back to the
// file extension of name.
func Detect(name, contentType string) (Kind, error) {
	if contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			if kind, ok := mimeKinds[strings.ToLower(mediaType)]; ok {
				return kind, nil
			}
		}
	}
	if kind, ok := KindOf(name); ok {
		return kind, nil
	}
	return "", unsupported(name).WithContext("content_type", contentType)
}

// KindOf maps the extension of name, compared case-insensitively, to a
// document kind.
func KindOf(name string) (Kind, bool) {
	kind, ok := extKinds[strings.ToLower(filepath.Ext(name))]
	return kind, ok
}

// CheckName rejects file names whose extension is not a supported format.
func CheckName(name string) (Kind, error) {
	if kind, ok := KindOf(name); ok {
		return kind, nil
	}
	return "", unsupported(name)
}

func unsupported(name string) *errors.AppError {
	return errors.NewValidationError(errors.ErrCodeUnsupportedDocument,
		"unsupported document type: upload a PDF, DOCX, HTML or text file", nil).
		WithContext("name", name)
}

// Decode extracts the text of a document.
func Decode(name, contentType string, data []byte) (string, error) {
	kind, err := Detect(name, contentType)
	if err != nil {
		return "", err
	}
	return DecodeKind(kind, data)
}

// DecodeKind extracts the text of a document of a known kind.
func DecodeKind(kind Kind, data []byte) (string, error) {
	switch kind {
	case KindText:
		return normalizeLines(string(data)), nil
	case KindPDF:
		return decodePDF(data)
	case KindDOCX:
		return decodeDOCX(data)
	case KindHTML:
		return decodeHTML(data)
	default:
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedDocument,
			fmt.Sprintf("unsupported document kind: %s", kind), nil)
	}
}

func decodePDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeDocumentUnreadable,
			"could not read PDF, paste the resume text instead", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			text, _ := page.GetPlainText(nil)
			sb.WriteString(text)
			sb.WriteString("\n")
			continue
		}
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				words = append(words, word.S)
			}
			sb.WriteString(strings.Join(words, " "))
			sb.WriteString("\n")
		}
	}

	text := normalizeLines(sb.String())
	if len([]rune(text)) < MinPDFText {
		return "", errors.NewValidationError(errors.ErrCodeDocumentUnreadable,
			"PDF has no extractable text (it may be a scanned image), paste the resume text instead", nil).
			WithContext("characters", len([]rune(text)))
	}
	return text, nil
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>|<w:br\s*/>|<w:cr\s*/>`)
	docxTab          = regexp.MustCompile(`<w:tab\s*/>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
)

func decodeDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeDocumentUnreadable,
			"could not read DOCX, paste the resume text instead", err)
	}
	defer doc.Close()

	body := doc.Editable().GetContent()
	body = docxParagraphEnd.ReplaceAllString(body, "\n")
	body = docxTab.ReplaceAllString(body, "\t")
	body = xmlTag.ReplaceAllString(body, "")
	return normalizeLines(html.UnescapeString(body)), nil
}

// htmlBlocks end a line of text when flattening HTML.
const htmlBlocks = "p, div, li, tr, h1, h2, h3, h4, h5, h6, section, article, header, footer, br"

func decodeHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeDocumentUnreadable,
			"failed to parse HTML document", err)
	}

	doc.Find("script, style, noscript, svg, iframe").Remove()
	doc.Find(htmlBlocks).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	// Keep link targets so LinkedIn and GitHub handles survive.
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if strings.Contains(href, "linkedin.com") || strings.Contains(href, "github.com") {
			s.AppendHtml(" " + html.EscapeString(href))
		}
	})

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	return normalizeLines(root.Text()), nil
}

var spaceRun = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)

// normalizeLines collapses horizontal whitespace, trims each line and
// squeezes runs of blank lines to one.
func normalizeLines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
