// Package fileid maps file paths to document IDs and file:// resource URIs.
//
// A file document's ID is its cleaned absolute path, so the same file always gets the same
// ID and watcher events can be routed to it without a lookup table.
package fileid

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

const scheme = "file"

// DocID returns the document ID for path.
func DocID(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// URI returns the file:// URI for a file document ID. IDs that are not absolute paths
// (documents submitted through the API) have no URI.
func URI(id string) string {
	if !filepath.IsAbs(id) {
		return ""
	}
	u := url.URL{Scheme: scheme, Path: filepath.ToSlash(id)}
	return u.String()
}

// PathFromURI returns the document ID encoded in a file:// URI.
func PathFromURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse uri: %w", err)
	}
	if u.Scheme != scheme {
		return "", fmt.Errorf("unsupported uri scheme %q", u.Scheme)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("unsupported uri host %q", u.Host)
	}
	p := filepath.FromSlash(u.Path)
	if !filepath.IsAbs(p) || strings.Contains(u.Path, "/../") {
		return "", fmt.Errorf("uri path must be absolute: %q", u.Path)
	}
	return filepath.Clean(p), nil
}
