// Package epub loads ePub containers: package document, manifest, spine,
// table of contents and metadata.
package epub

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/h2non/filetype"
	"go.uber.org/zap"

	"epubres/archive"
)

// Book is an opened ePub file. Book is not safe for concurrent use.
type Book struct {
	log *zap.Logger
	arc *archive.Archive

	opfPath string
	opfDir  string
	version string

	manifest []*ManifestItem
	byID     map[string]*ManifestItem
	spine    []*SpineItem
	nav      *Navigation
	meta     map[string]string
	warnings []string
}

var _ Package = (*Book)(nil)

// Open checks and opens ePub file. Caller must call Close when done.
func Open(name string, log *zap.Logger) (*Book, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if err := checkSource(name); err != nil {
		return nil, err
	}

	arc, err := archive.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSource, name, err)
	}
	b, err := newBook(arc, log)
	if err != nil {
		arc.Close()
		return nil, err
	}
	return b, nil
}

// NewReader loads ePub from r. Caller is responsible for the lifetime of r.
func NewReader(r io.ReaderAt, size int64, name string, log *zap.Logger) (*Book, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: %s: empty source", ErrSource, name)
	}
	arc, err := archive.NewReader(r, size, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSource, name, err)
	}
	return newBook(arc, log)
}

// checkSource makes sure file could be read and looks like zip archive.
func checkSource(name string) error {
	fi, err := os.Stat(name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSource, err)
	}
	if fi.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrSource, name)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", ErrSource, name)
	}

	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSource, err)
	}
	defer f.Close()

	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s: %w", ErrSource, name, err)
	}
	kind, _ := filetype.Match(head[:n])
	if kind.Extension != "zip" && kind.Extension != "epub" {
		return fmt.Errorf("%w: %s is not a zip archive (%s)", ErrSource, name, kind.MIME.Value)
	}
	return nil
}

func newBook(arc *archive.Archive, log *zap.Logger) (*Book, error) {
	b := &Book{
		log:  log.Named("epub"),
		arc:  arc,
		byID: make(map[string]*ManifestItem),
		meta: make(map[string]string),
	}

	b.checkMimetype()

	opfPath, err := b.findPackage()
	if err != nil {
		return nil, err
	}
	b.opfPath = opfPath
	b.opfDir = path.Dir(opfPath)

	data, err := arc.ReadFile(opfPath)
	if err != nil {
		return nil, fmt.Errorf("%w: package document: %w", ErrResource, err)
	}
	tocID, err := b.parsePackage(data)
	if err != nil {
		return nil, err
	}
	b.loadNavigation(tocID)

	b.log.Debug("Book loaded",
		zap.String("source", arc.Name()),
		zap.String("opf", opfPath),
		zap.String("version", b.version),
		zap.Int("manifest", len(b.manifest)),
		zap.Int("spine", len(b.spine)),
		zap.Bool("navigation", b.nav != nil),
		zap.Int("warnings", len(b.warnings)))
	return b, nil
}

// checkMimetype records deviations from the ePub "mimetype" convention, they
// are never fatal.
func (b *Book) checkMimetype() {
	data, err := b.arc.ReadFile("mimetype")
	if err != nil {
		b.warn("mimetype entry is missing")
		return
	}
	if mt := string(bytes.TrimSpace(data)); mt != "application/epub+zip" {
		b.warn(fmt.Sprintf("unexpected mimetype %q", mt))
	}
}

func (b *Book) warn(msg string) {
	b.warnings = append(b.warnings, msg)
	b.log.Warn(msg, zap.String("source", b.arc.Name()))
}

// readItem reads manifest item relative to the package document. Hrefs are
// tried as is and percent-decoded.
func (b *Book) readItem(href string) ([]byte, error) {
	name := b.resolve(href)
	data, err := b.arc.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		if decoded, derr := url.PathUnescape(href); derr == nil && decoded != href {
			data, err = b.arc.ReadFile(b.resolve(decoded))
		}
	}
	return data, err
}

func (b *Book) resolve(href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	if strings.HasPrefix(href, "/") {
		return strings.TrimPrefix(path.Clean(href), "/")
	}
	return path.Join(b.opfDir, href)
}

// Close releases underlying file.
func (b *Book) Close() error {
	return b.arc.Close()
}

// Name returns source name.
func (b *Book) Name() string {
	return b.arc.Name()
}

// Version returns package document version attribute.
func (b *Book) Version() string {
	return b.version
}

// PackagePath returns archive path of the package document.
func (b *Book) PackagePath() string {
	return b.opfPath
}

// Warnings returns non-fatal problems found while loading.
func (b *Book) Warnings() []string {
	return b.warnings
}

func (b *Book) Manifest() []*ManifestItem {
	return b.manifest
}

func (b *Book) Spine() []*SpineItem {
	return b.spine
}

func (b *Book) Navigation() *Navigation {
	return b.nav
}

func (b *Book) Meta(name string) (string, bool) {
	v, ok := b.meta[name]
	return v, ok
}

// Item returns manifest item by id.
func (b *Book) Item(id string) (*ManifestItem, bool) {
	mi, ok := b.byID[id]
	return mi, ok
}
