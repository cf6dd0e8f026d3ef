package resource

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"epubres/common"
	"epubres/epub"
	"epubres/utils/images"
)

// Image is a picture passed through as is under hashed name.
type Image struct {
	base
	item  *epub.ManifestItem
	cover bool
}

// NewImage creates image resource for manifest item.
func NewImage(item *epub.ManifestItem, cover bool) *Image {
	return &Image{base: newBase(item.Href), item: item, cover: cover}
}

func (img *Image) Type() common.ResourceType {
	return common.ResourceTypeImage
}

// IsCover reports whether package metadata declares this image as cover.
func (img *Image) IsCover() bool {
	return img.cover
}

// ID returns manifest id.
func (img *Image) ID() string {
	return img.item.ID
}

func (img *Image) Content() ([]byte, error) {
	return img.item.Content()
}

// Filename is lower-cased hash of the file stem with original extension.
// Many books were made on case-insensitive file systems, so names are
// unified.
func (img *Image) Filename() string {
	base := path.Base(img.Href())
	ext := path.Ext(base)
	return strings.ToLower(sha1hex(strings.TrimSuffix(base, ext)) + "." + strings.TrimPrefix(ext, "."))
}

// MediaType returns declared media type, sniffing content when declaration
// is not an image type.
func (img *Image) MediaType() string {
	if img.item.IsImage() {
		return img.item.MediaType
	}
	data, err := img.Content()
	if err != nil {
		return img.item.MediaType
	}
	if mt, ok := SniffImage(data); ok {
		return mt
	}
	return img.item.MediaType
}

// Dimensions decodes image header, SVG size comes from its viewBox. Zero
// values are returned for images which could not be decoded.
func (img *Image) Dimensions() (int, int) {
	data, err := img.Content()
	if err != nil {
		return 0, 0
	}
	if strings.EqualFold(img.item.MediaType, "image/svg+xml") {
		w, h, err := images.SVGSize(data)
		if err != nil {
			return 0, 0
		}
		return w, h
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

// SniffImage detects image media type by content.
func SniffImage(data []byte) (string, bool) {
	if !filetype.IsImage(data) {
		return "", false
	}
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "", false
	}
	return kind.MIME.Value, true
}
