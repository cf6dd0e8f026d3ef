// Package archive builds random access and Walk abstraction on top of
// "archive/zip".
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
)

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. The archive argument contains name of the archive, the
// file argument is the zip.File structure for file in archive which
// satisfies match condition. If an error is returned, processing stops.
type WalkFunc func(archive string, file *zip.File) error

// Archive is an opened zip archive with entries indexed by name.
type Archive struct {
	name   string
	zr     *zip.Reader
	closer io.Closer

	exact map[string]*zip.File
	lower map[string]*zip.File
}

// Open opens archive file on disk. Caller is responsible for calling Close.
func Open(name string) (*Archive, error) {
	rc, err := zip.OpenReader(name)
	if err != nil {
		return nil, err
	}
	a := newArchive(name, &rc.Reader)
	a.closer = rc
	return a, nil
}

// NewReader opens archive from the reader, size is the archive length.
func NewReader(r io.ReaderAt, size int64, name string) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, err
	}
	return newArchive(name, zr), nil
}

func newArchive(name string, zr *zip.Reader) *Archive {
	a := &Archive{
		name:  name,
		zr:    zr,
		exact: make(map[string]*zip.File, len(zr.File)),
		lower: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		// unsafe entries are never addressable
		if f.FileInfo().IsDir() || !isSafePath(f.Name) {
			continue
		}
		a.exact[f.Name] = f
		if low := strings.ToLower(f.Name); a.lower[low] == nil {
			a.lower[low] = f
		}
	}
	return a
}

// Name returns name archive was opened with.
func (a *Archive) Name() string {
	return a.name
}

// Close releases underlying file if any.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// Find looks up entry by exact name first, then case-insensitively.
func (a *Archive) Find(name string) *zip.File {
	name = strings.TrimPrefix(name, "/")
	if f, ok := a.exact[name]; ok {
		return f
	}
	return a.lower[strings.ToLower(name)]
}

// ReadFile returns content of the named entry, fs.ErrNotExist when there is
// no such entry.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	f := a.Find(name)
	if f == nil {
		return nil, fmt.Errorf("%s: %s: %w", a.name, name, fs.ErrNotExist)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", a.name, name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", a.name, name, err)
	}
	return data, nil
}

// Walk walks all files in the archive with names starting with pattern,
// calling walkFn for each item. Entries with path traversal components
// ("..") or absolute paths stop the walk with an error to prevent Zip Slip
// attacks.
func (a *Archive) Walk(pattern string, walkFn WalkFunc) error {
	for _, f := range a.zr.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if !f.FileInfo().IsDir() && strings.HasPrefix(name, pattern) {
			if err := walkFn(a.name, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for part := range strings.SplitSeq(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
