package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/mdsearch/internal/extract"
	"github.com/hyperjump/mdsearch/internal/fileid"
	"github.com/hyperjump/mdsearch/internal/models"
)

// DirectorySource loads every matching file under a set of root directories.
// Hidden files and directories are skipped.
type DirectorySource struct {
	roots      []string
	extensions []string
	recursive  bool
	extractor  *extract.Extractor
	logger     *zap.Logger
}

// DirectoryOption configures a DirectorySource.
type DirectoryOption func(*DirectorySource)

// WithLogger sets a logger for skipped files and load summaries.
func WithLogger(l *zap.Logger) DirectoryOption {
	return func(d *DirectorySource) { d.logger = l }
}

// WithExtensions sets the file extensions to load. Empty means every supported extension.
func WithExtensions(exts []string) DirectoryOption {
	return func(d *DirectorySource) { d.extensions = exts }
}

// WithRecursive controls whether subdirectories are walked. Defaults to true.
func WithRecursive(recursive bool) DirectoryOption {
	return func(d *DirectorySource) { d.recursive = recursive }
}

// NewDirectorySource creates a source over roots, loading .md files recursively by default.
func NewDirectorySource(roots []string, opts ...DirectoryOption) *DirectorySource {
	d := &DirectorySource{
		roots:      roots,
		extensions: []string{".md"},
		recursive:  true,
		extractor:  extract.NewExtractor(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Roots returns the absolute root directories.
func (d *DirectorySource) Roots() []string {
	out := make([]string, len(d.roots))
	for i, r := range d.roots {
		out[i] = fileid.DocID(r)
	}
	return out
}

// Extensions returns the configured extensions.
func (d *DirectorySource) Extensions() []string {
	return append([]string(nil), d.extensions...)
}

// Recursive reports whether subdirectories are walked.
func (d *DirectorySource) Recursive() bool {
	return d.recursive
}

// Matches reports whether path has one of the configured extensions and is not hidden.
func (d *DirectorySource) Matches(path string) bool {
	if isHidden(filepath.Base(path)) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	if len(d.extensions) == 0 {
		return d.extractor.Supported(ext)
	}
	for _, e := range d.extensions {
		if strings.ToLower(e) == ext || "."+strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// Load walks every root and loads the matching files. A missing root is an error; a file
// that cannot be read or extracted is logged and skipped.
func (d *DirectorySource) Load(ctx context.Context) ([]*models.Document, error) {
	var docs []*models.Document
	for _, root := range d.Roots() {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("corpus root %s: %w", root, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("corpus root %s: not a directory", root)
		}
		err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if entry.IsDir() {
				if path != root && (!d.recursive || isHidden(entry.Name())) {
					return filepath.SkipDir
				}
				return nil
			}
			if !entry.Type().IsRegular() || !d.Matches(path) {
				return nil
			}
			doc, err := d.LoadFile(path)
			if err != nil {
				if d.logger != nil {
					d.logger.Warn("skipping unreadable file", zap.String("path", path), zap.Error(err))
				}
				return nil
			}
			docs = append(docs, doc)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	sortByID(docs)
	docs = dedupe(docs)
	if d.logger != nil {
		d.logger.Info("corpus loaded", zap.Strings("roots", d.Roots()), zap.Int("documents", len(docs)))
	}
	return docs, nil
}

// LoadFile reads one file and returns its document. The ID is the absolute path and the
// title is the first Markdown heading, else the file name.
func (d *DirectorySource) LoadFile(path string) (*models.Document, error) {
	id := fileid.DocID(path)
	info, err := os.Stat(id)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, errors.New("is a directory")
	}
	text, err := d.extractor.Extract(id)
	if err != nil {
		return nil, err
	}
	doc := models.NewDocument(id, Title(text, id), text)
	doc.Metadata = map[string]string{
		"path":     id,
		"modified": info.ModTime().UTC().Format(time.RFC3339),
	}
	return doc, nil
}

func isHidden(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, ".")
}
