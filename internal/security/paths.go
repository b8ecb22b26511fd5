// Package security guards the files the exporter writes.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// maxFilenameLen bounds sanitised name components.
const maxFilenameLen = 64

// ValidatePathWithinDirectory returns an error when filePath, after cleaning
// and symlink resolution of its deepest existing ancestor, is not inside dir.
func ValidatePathWithinDirectory(filePath, dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve directory: %w", err)
	}
	realDir, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return fmt.Errorf("resolve directory symlinks: %w", err)
	}

	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	realPath := resolveExisting(absPath)

	rel, err := filepath.Rel(realDir, realPath)
	if err != nil {
		return fmt.Errorf("path %s is outside %s: %w", filePath, dir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected: %s escapes %s", filePath, dir)
	}
	return nil
}

// resolveExisting resolves symlinks in the longest existing prefix of p so a
// not-yet-created file under a symlinked directory is still caught.
func resolveExisting(p string) string {
	if r, err := filepath.EvalSymlinks(p); err == nil {
		return r
	}
	for dir := filepath.Dir(p); ; dir = filepath.Dir(dir) {
		if r, err := filepath.EvalSymlinks(dir); err == nil {
			rest, _ := filepath.Rel(dir, p)
			return filepath.Join(r, rest)
		}
		if dir == filepath.Dir(dir) {
			return p
		}
	}
}

// SanitizeFilename reduces s to ASCII letters, digits, dot, underscore and
// dash. Runs of other characters become one underscore; leading and trailing
// dots and underscores are trimmed. The result may be empty.
func SanitizeFilename(s string) string {
	var b strings.Builder
	under := false
	for _, r := range s {
		if b.Len() >= maxFilenameLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
			under = r == '_'
		default:
			if !under {
				b.WriteByte('_')
				under = true
			}
		}
	}
	return strings.Trim(b.String(), "._")
}
