package services

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// FileExtractService turns uploaded study material into plain text for
// canvas file nodes. Everything happens in memory.
type FileExtractService struct{}

func NewFileExtractService() *FileExtractService {
	return &FileExtractService{}
}

// ExtractText returns the text of data and the source kind derived from the
// filename extension.
func (s *FileExtractService) ExtractText(filename string, data []byte) (text, source string, err error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".txt", ".md":
		text, err = s.extractTXT(data)
		source = "txt"
	case ".pdf":
		text, err = s.extractPDF(data)
		source = "pdf"
	case ".docx":
		text, err = s.extractDOCX(data)
		source = "docx"
	default:
		return "", "", &ValidationError{Message: fmt.Sprintf("unsupported file type for text extraction: %q", ext)}
	}

	if err != nil {
		return "", "", err
	}
	return text, source, nil
}

func (s *FileExtractService) extractTXT(data []byte) (string, error) {
	text := normalizeExtractedText(string(data))
	if text == "" {
		return "", &ValidationError{Message: "text file is empty"}
	}
	return text, nil
}

func (s *FileExtractService) extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ValidationError{Message: "file is not a readable pdf"}
	}

	var b strings.Builder
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}

	text := normalizeExtractedText(b.String())
	if text == "" {
		return "", &ValidationError{Message: "no extractable text found in pdf"}
	}
	return text, nil
}

func (s *FileExtractService) extractDOCX(data []byte) (string, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ValidationError{Message: "file is not a readable docx"}
	}

	documentXML, err := readZipEntry(r, "word/document.xml")
	if err != nil {
		return "", err
	}

	text := normalizeExtractedText(stripDOCXML(documentXML))
	if text == "" {
		return "", &ValidationError{Message: "no extractable text found in docx"}
	}
	return text, nil
}

func readZipEntry(r *zip.Reader, name string) ([]byte, error) {
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, &ValidationError{Message: "docx " + name + " not found"}
}

var xmlTagPattern = regexp.MustCompile(`<[^>]+>`)

var xmlEntityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
)

var docxBreakReplacer = strings.NewReplacer(
	"</w:p>", "\n",
	"<w:br/>", "\n",
	"<w:br />", "\n",
	"<w:tab/>", "\t",
)

func stripDOCXML(src []byte) string {
	s := docxBreakReplacer.Replace(string(src))
	s = xmlTagPattern.ReplaceAllString(s, "")
	return xmlEntityReplacer.Replace(s)
}

// normalizeExtractedText trims every line and collapses runs of blank lines.
func normalizeExtractedText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var b strings.Builder
	blank := false
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if !blank {
				b.WriteString("\n")
			}
			blank = true
			continue
		}
		blank = false
		b.WriteString(trimmed)
		b.WriteString("\n")
	}

	return strings.TrimSpace(b.String())
}
