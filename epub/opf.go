package epub

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

const (
	containerPath   = "META-INF/container.xml"
	packageMimeType = "application/oebps-package+xml"
	ncxMimeType     = "application/x-dtbncx+xml"
)

var errFound = errors.New("found")

// readXML loads XML document being as tolerant to broken input as possible.
func readXML(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		Permissive:    true,
		Entity:        xml.HTMLEntity,
	}
	if err := doc.ReadFromBytes(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, errors.New("no root element")
	}
	return doc, nil
}

func children(el *etree.Element, tag string) []*etree.Element {
	if el == nil {
		return nil
	}
	var res []*etree.Element
	for _, c := range el.ChildElements() {
		if strings.EqualFold(c.Tag, tag) {
			res = append(res, c)
		}
	}
	return res
}

func child(el *etree.Element, tag string) *etree.Element {
	if el == nil {
		return nil
	}
	for _, c := range el.ChildElements() {
		if strings.EqualFold(c.Tag, tag) {
			return c
		}
	}
	return nil
}

func attr(el *etree.Element, name string) string {
	return strings.TrimSpace(el.SelectAttrValue(name, ""))
}

// findPackage locates package document using container.xml, falling back to
// the first .opf file in the archive.
func (b *Book) findPackage() (string, error) {
	if data, err := b.arc.ReadFile(containerPath); err != nil {
		b.warn("container.xml is missing")
	} else if doc, err := readXML(data); err != nil {
		b.warn(fmt.Sprintf("unable to parse container.xml: %v", err))
	} else if p := rootfile(doc.Root()); len(p) > 0 {
		return p, nil
	} else {
		b.warn("container.xml has no rootfile")
	}

	var found string
	err := b.arc.Walk("", func(_ string, f *zip.File) error {
		if strings.EqualFold(path.Ext(f.Name), ".opf") {
			found = f.Name
			return errFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, errFound) {
		return "", fmt.Errorf("%w: %w", ErrResource, err)
	}
	if len(found) == 0 {
		return "", fmt.Errorf("%w: no package document", ErrResource)
	}
	b.log.Debug("Package document found by extension", zap.String("path", found))
	return found, nil
}

func rootfile(container *etree.Element) string {
	files := children(child(container, "rootfiles"), "rootfile")
	for _, rf := range files {
		if strings.EqualFold(attr(rf, "media-type"), packageMimeType) {
			if p := attr(rf, "full-path"); len(p) > 0 {
				return p
			}
		}
	}
	for _, rf := range files {
		if p := attr(rf, "full-path"); len(p) > 0 {
			return p
		}
	}
	return ""
}

// parsePackage fills manifest, spine and metadata. It returns id of the NCX
// item referenced by spine if any.
func (b *Book) parsePackage(data []byte) (string, error) {
	doc, err := readXML(data)
	if err != nil {
		return "", fmt.Errorf("%w: package document: %w", ErrResource, err)
	}
	root := doc.Root()
	if !strings.EqualFold(root.Tag, "package") {
		return "", fmt.Errorf("%w: unexpected package document root <%s>", ErrResource, root.Tag)
	}
	b.version = attr(root, "version")

	manifest := child(root, "manifest")
	if manifest == nil {
		return "", fmt.Errorf("%w: package document has no manifest", ErrResource)
	}
	spine := child(root, "spine")
	if spine == nil {
		return "", fmt.Errorf("%w: package document has no spine", ErrResource)
	}

	b.parseMetadata(child(root, "metadata"))

	for _, el := range children(manifest, "item") {
		id, href := attr(el, "id"), attr(el, "href")
		if len(href) == 0 {
			b.warn(fmt.Sprintf("manifest item %q has no href", id))
			continue
		}
		mi := &ManifestItem{
			ID:         id,
			Href:       href,
			MediaType:  strings.ToLower(attr(el, "media-type")),
			Properties: strings.Fields(attr(el, "properties")),
		}
		mi.load = func() ([]byte, error) { return b.readItem(href) }
		b.manifest = append(b.manifest, mi)
		if len(id) > 0 {
			if _, dup := b.byID[id]; dup {
				b.warn(fmt.Sprintf("duplicate manifest id %q", id))
				continue
			}
			b.byID[id] = mi
		}
	}

	for _, el := range children(spine, "itemref") {
		idref := attr(el, "idref")
		mi, ok := b.byID[idref]
		if !ok {
			b.warn(fmt.Sprintf("spine references unknown item %q", idref))
			continue
		}
		b.spine = append(b.spine, &SpineItem{
			ManifestItem: mi,
			Order:        len(b.spine),
			Linear:       !strings.EqualFold(attr(el, "linear"), "no"),
		})
	}
	return attr(spine, "toc"), nil
}

// parseMetadata keeps first value of every Dublin Core element under its
// local name, <meta name content> pairs and ePub3 <meta property> values.
func (b *Book) parseMetadata(md *etree.Element) {
	if md == nil {
		b.warn("package document has no metadata")
		return
	}
	set := func(k, v string) {
		if len(k) == 0 || len(v) == 0 {
			return
		}
		if _, ok := b.meta[k]; !ok {
			b.meta[k] = v
		}
	}
	for _, el := range md.ChildElements() {
		switch strings.ToLower(el.Tag) {
		case "dc-metadata", "x-metadata":
			// OPF 2.0 legacy grouping
			b.parseMetadata(el)
		case "meta":
			if name := attr(el, "name"); len(name) > 0 {
				set(name, attr(el, "content"))
			} else if prop := attr(el, "property"); len(prop) > 0 {
				set(prop, strings.TrimSpace(el.Text()))
			}
		default:
			set(strings.ToLower(el.Tag), strings.TrimSpace(el.Text()))
		}
	}
}
