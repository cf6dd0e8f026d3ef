package epub

import (
	"slices"
	"strings"
)

// Package is loaded e-book container as seen by the content processor.
type Package interface {
	// Manifest returns all declared items in document order.
	Manifest() []*ManifestItem
	// Spine returns reading order.
	Spine() []*SpineItem
	// Navigation returns table of contents, nil when book has none.
	Navigation() *Navigation
	// Meta looks up package metadata by name ("cover", "title", ...).
	Meta(name string) (string, bool)
}

// ManifestItem is a single file declared by the package document. Href is
// relative to the package document and may be percent-encoded.
type ManifestItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties []string

	load func() ([]byte, error)
}

// NewManifestItem creates manifest item with content produced by load.
func NewManifestItem(id, href, mediaType string, load func() ([]byte, error), properties ...string) *ManifestItem {
	return &ManifestItem{
		ID:         id,
		Href:       href,
		MediaType:  mediaType,
		Properties: properties,
		load:       load,
	}
}

// Content reads item bytes.
func (mi *ManifestItem) Content() ([]byte, error) {
	if mi.load == nil {
		return nil, nil
	}
	return mi.load()
}

// HasProperty checks ePub3 manifest properties.
func (mi *ManifestItem) HasProperty(name string) bool {
	return slices.Contains(mi.Properties, name)
}

// IsImage reports if declared media type is an image.
func (mi *ManifestItem) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(mi.MediaType), "image/")
}

// IsStylesheet reports if declared media type is CSS.
func (mi *ManifestItem) IsStylesheet() bool {
	return strings.EqualFold(mi.MediaType, "text/css")
}

// SpineItem is manifest item placed in reading order.
type SpineItem struct {
	*ManifestItem
	Order  int
	Linear bool
}

// Navigation is table of contents tree. Src is location of navigation
// document relative to the package document, point sources are relative to
// the navigation document.
type Navigation struct {
	Src    string
	Points []NavPoint
}

// NavPoint is a single table of contents node.
type NavPoint struct {
	Title    string
	Src      string
	Position int
	Children []NavPoint
}
