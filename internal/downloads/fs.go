package downloads

import (
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
)

// FS is the directory-scoped filesystem the store writes into.
// Names are slash-separated and relative to the FS root.
type FS interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte) error
	Remove(name string) error
	Rename(oldName, newName string) error
	MkdirAll(name string) error
	Stat(name string) (fs.FileInfo, error)
	// URI converts name into a URI a media player can open.
	URI(name string) string
}

// DirFS is an FS rooted at a local directory.
type DirFS struct {
	Root string
}

var _ FS = DirFS{}

func (d DirFS) path(name string) string {
	return filepath.Join(d.Root, filepath.FromSlash(name))
}

// ReadFile implements FS.
func (d DirFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(d.path(name))
}

// WriteFile implements FS.
func (d DirFS) WriteFile(name string, data []byte) error {
	return os.WriteFile(d.path(name), data, 0o600)
}

// Remove implements FS.
func (d DirFS) Remove(name string) error {
	return os.Remove(d.path(name))
}

// Rename implements FS.
func (d DirFS) Rename(oldName, newName string) error {
	return os.Rename(d.path(oldName), d.path(newName))
}

// MkdirAll implements FS.
func (d DirFS) MkdirAll(name string) error {
	return os.MkdirAll(d.path(name), 0o755)
}

// Stat implements FS.
func (d DirFS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(d.path(name))
}

// URI implements FS.
func (d DirFS) URI(name string) string {
	p := d.path(name)
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(p)}).String()
}
