// Package markup wraps chapter documents: parsing, element selection,
// sanitizing, truncation and serialization.
package markup

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// Document is parsed chapter markup.
type Document struct {
	doc *goquery.Document
	log *zap.Logger
}

// Parse builds document tree. Parsing is tolerant, broken markup is repaired
// the way browsers do it. Input which is not UTF-8 is decoded according to
// its declared (or guessed) encoding.
func Parse(data []byte, log *zap.Logger) (*Document, error) {
	if log == nil {
		log = zap.NewNop()
	}

	r := bytes.NewReader(data)
	var doc *goquery.Document
	if utf8.Valid(data) {
		d, err := goquery.NewDocumentFromReader(r)
		if err != nil {
			return nil, fmt.Errorf("unable to parse markup: %w", err)
		}
		doc = d
	} else {
		cr, err := charset.NewReader(r, "text/html")
		if err != nil {
			return nil, fmt.Errorf("unable to detect markup encoding: %w", err)
		}
		if doc, err = goquery.NewDocumentFromReader(cr); err != nil {
			return nil, fmt.Errorf("unable to parse markup: %w", err)
		}
	}
	return &Document{doc: doc, log: log}, nil
}

// Find returns all elements matching selector.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Each calls fn for every element matching selector in document order.
func (d *Document) Each(selector string, fn func(int, *goquery.Selection)) {
	d.doc.Find(selector).Each(fn)
}

// Remove detaches every element matching selector, returns number of removed
// elements.
func (d *Document) Remove(selector string) int {
	sel := d.doc.Find(selector)
	n := sel.Length()
	sel.Remove()
	return n
}

// Body returns document body.
func (d *Document) Body() *goquery.Selection {
	return d.doc.Find("body").First()
}

// PlainLength returns number of characters in body text.
func (d *Document) PlainLength() int {
	return utf8.RuneCountInString(d.Body().Text())
}

// Images returns every image reference in the document. SVG wrappers holding
// <image> are turned into plain <div> and the images themselves into <img>
// with src taken from (xlink:)href, so callers deal with single form.
func (d *Document) Images() *goquery.Selection {
	d.doc.Find("svg").Each(func(_ int, svg *goquery.Selection) {
		images := svg.Find("image")
		if images.Length() == 0 {
			return
		}
		n := svg.Get(0)
		n.Data, n.DataAtom, n.Namespace, n.Attr = "div", atom.Div, "", nil
		for _, img := range images.Nodes {
			promoteImage(img)
		}
	})
	return d.doc.Find("img")
}

func promoteImage(n *html.Node) {
	var (
		src   string
		attrs = make([]html.Attribute, 0, len(n.Attr))
	)
	for _, a := range n.Attr {
		if a.Key == "xlink:href" || (a.Key == "href" && (a.Namespace == "xlink" || a.Namespace == "")) {
			src = a.Val
			continue
		}
		attrs = append(attrs, a)
	}
	n.Data, n.DataAtom, n.Namespace = "img", atom.Img, ""
	n.Attr = append(attrs, html.Attribute{Key: "src", Val: src})
}

// Truncate limits body text to length characters appending ending marker.
// Zero or negative length empties the body.
func (d *Document) Truncate(length int, ending string) error {
	body := d.Body()
	if length <= 0 {
		body.Empty()
		return nil
	}
	inner, err := body.Html()
	if err != nil {
		return fmt.Errorf("unable to render body: %w", err)
	}
	if out := Truncate(inner, length, ending); out != inner {
		body.SetHtml(out)
	}
	return nil
}

// Save serializes inner markup of the first element matching root (whole
// document when root is empty). Strict mode produces well-formed XHTML: void
// elements are self-closed, everything else gets explicit end tag and
// comments are dropped.
func (d *Document) Save(root string, strict bool) (string, error) {
	sel := d.doc.Selection
	if len(root) > 0 {
		sel = d.doc.Find(root).First()
	}
	if sel.Length() == 0 {
		return "", nil
	}
	if !strict {
		return sel.Html()
	}
	var buf bytes.Buffer
	for c := sel.Get(0).FirstChild; c != nil; c = c.NextSibling {
		renderXHTML(&buf, c)
	}
	return buf.String(), nil
}

// voidElements are HTML elements that must be self-closing in XHTML.
var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Link: true, atom.Meta: true, atom.Source: true, atom.Wbr: true,
	atom.Param: true, atom.Track: true, atom.Keygen: true, atom.Frame: true,
	atom.Basefont: true,
}

func renderXHTML(buf *bytes.Buffer, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		buf.WriteString(html.EscapeString(n.Data))
	case html.ElementNode:
		buf.WriteByte('<')
		buf.WriteString(n.Data)
		for _, a := range n.Attr {
			buf.WriteByte(' ')
			if len(a.Namespace) > 0 {
				buf.WriteString(a.Namespace)
				buf.WriteByte(':')
			}
			buf.WriteString(a.Key)
			buf.WriteString(`="`)
			buf.WriteString(html.EscapeString(a.Val))
			buf.WriteByte('"')
		}
		if n.FirstChild == nil && (voidElements[n.DataAtom] || len(n.Namespace) > 0) {
			buf.WriteString("/>")
			return
		}
		buf.WriteByte('>')
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			renderXHTML(buf, c)
		}
		buf.WriteString("</")
		buf.WriteString(n.Data)
		buf.WriteByte('>')
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			renderXHTML(buf, c)
		}
	case html.RawNode:
		buf.WriteString(n.Data)
	}
}

// attr returns trimmed attribute value.
func attr(s *goquery.Selection, name string) string {
	v, _ := s.Attr(name)
	return strings.TrimSpace(v)
}
