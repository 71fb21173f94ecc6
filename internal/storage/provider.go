// Package storage is the local file-system abstraction used for the import
// inbox and HTML exports.
package storage

import (
	"path/filepath"
	"strings"
	"time"
)

// FileInfo describes one importable file.
type FileInfo struct {
	Path      string // relative to the provider root
	Checksum  string // hex SHA-256 of the content
	Size      int64
	UpdatedAt time.Time
}

// Provider is a directory of files. Paths are relative to its root and may
// not leave it.
type Provider interface {
	// List returns every importable file under dir, skipping hidden entries.
	List(dir string) ([]FileInfo, error)
	Read(path string) ([]byte, error)
	Write(path string, content []byte) error
	Move(from, to string) error
}

var importable = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
	".html":     true,
	".htm":      true,
}

// Importable reports whether a file name has an extension techdocs imports.
func Importable(name string) bool {
	return importable[strings.ToLower(filepath.Ext(name))]
}

// Hidden reports whether any element of path starts with a dot.
func Hidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}
