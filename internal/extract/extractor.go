// Package extract provides text extraction from the document formats a corpus may contain.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lu4p/cat"
)

type extractFunc func(content []byte) (string, error)

// Extractor extracts plain text from document files.
type Extractor struct {
	byExt map[string]extractFunc
	// fileOnly formats are read by lu4p/cat straight from disk.
	fileOnly map[string]struct{}
}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{
		byExt: map[string]extractFunc{
			".md":       extractPlain,
			".markdown": extractPlain,
			".txt":      extractPlain,
			".rst":      extractPlain,
			".pdf":      extractPDF,
			".docx":     extractDOCX,
			".xlsx":     extractExcel,
		},
		fileOnly: map[string]struct{}{
			".odt": {},
			".rtf": {},
		},
	}
}

// Supported reports whether ext (with leading dot, any case) has a dedicated extractor.
func (e *Extractor) Supported(ext string) bool {
	ext = strings.ToLower(ext)
	if _, ok := e.byExt[ext]; ok {
		return true
	}
	_, ok := e.fileOnly[ext]
	return ok
}

// Extensions returns every supported extension, sorted.
func (e *Extractor) Extensions() []string {
	out := make([]string, 0, len(e.byExt)+len(e.fileOnly))
	for ext := range e.byExt {
		out = append(out, ext)
	}
	for ext := range e.fileOnly {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Extract reads the file at path and returns its text content.
// Plain text formats are returned as-is (UTF-8 validated); PDF, DOCX, XLSX, ODT and RTF
// are converted to text. Returns an error if the file cannot be read or parsed.
func (e *Extractor) Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := e.fileOnly[ext]; ok {
		text, err := cat.File(path)
		if err != nil {
			return "", fmt.Errorf("extract %s: %w", ext, err)
		}
		return extractPlain([]byte(text))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf"). Unknown extensions are treated as plain text.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	ext = strings.ToLower(ext)
	if _, ok := e.fileOnly[ext]; ok {
		return "", fmt.Errorf("extract %s: only supported from a file path", ext)
	}
	if fn, ok := e.byExt[ext]; ok {
		return fn(content)
	}
	return extractPlain(content)
}
