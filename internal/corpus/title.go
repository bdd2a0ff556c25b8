package corpus

import (
	"path/filepath"
	"strings"
)

// Title returns the text of the first Markdown heading line in content, or the base name
// of path when there is none.
func Title(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		if !strings.HasPrefix(line, "#") {
			continue
		}
		if t := strings.TrimSpace(strings.TrimLeft(line, "#")); t != "" {
			return t
		}
	}
	return filepath.Base(path)
}
