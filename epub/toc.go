package epub

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// loadNavigation reads NCX when present, ePub3 navigation document
// otherwise. Broken table of contents is not fatal, book simply has none.
func (b *Book) loadNavigation(tocID string) {
	if mi := b.ncxItem(tocID); mi != nil {
		nav, err := parseNCX(mi)
		if err == nil {
			b.nav = nav
			return
		}
		b.warn(fmt.Sprintf("unable to parse NCX %s: %v", mi.Href, err))
	}
	if mi := b.navItem(); mi != nil {
		nav, err := parseNavDoc(mi)
		if err == nil {
			b.nav = nav
			return
		}
		b.warn(fmt.Sprintf("unable to parse navigation document %s: %v", mi.Href, err))
	}
	b.log.Debug("Book has no table of contents", zap.String("source", b.arc.Name()))
}

func (b *Book) ncxItem(tocID string) *ManifestItem {
	if mi, ok := b.byID[tocID]; ok {
		return mi
	}
	for _, mi := range b.manifest {
		if mi.MediaType == ncxMimeType {
			return mi
		}
	}
	return nil
}

func (b *Book) navItem() *ManifestItem {
	for _, mi := range b.manifest {
		if mi.HasProperty("nav") {
			return mi
		}
	}
	return nil
}

func parseNCX(mi *ManifestItem) (*Navigation, error) {
	data, err := mi.Content()
	if err != nil {
		return nil, err
	}
	doc, err := readXML(data)
	if err != nil {
		return nil, err
	}
	navMap := child(doc.Root(), "navMap")
	if navMap == nil {
		return nil, errors.New("no navMap")
	}
	var pos int
	return &Navigation{Src: mi.Href, Points: ncxPoints(navMap, &pos)}, nil
}

func ncxPoints(parent *etree.Element, pos *int) []NavPoint {
	var points []NavPoint
	for _, el := range children(parent, "navPoint") {
		*pos++
		p := NavPoint{
			Title:    collapse(child(child(el, "navLabel"), "text")),
			Position: *pos,
		}
		if c := child(el, "content"); c != nil {
			p.Src = attr(c, "src")
		}
		if order, err := strconv.Atoi(attr(el, "playOrder")); err == nil {
			p.Position = order
		}
		p.Children = ncxPoints(el, pos)
		points = append(points, p)
	}
	return points
}

func collapse(el *etree.Element) string {
	if el == nil {
		return ""
	}
	return collapseSpace(el.Text())
}

// collapseSpace squeezes runs of markup whitespace into single space, no-break
// spaces are part of the title.
func collapseSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f'
	}), " ")
}

func parseNavDoc(mi *ManifestItem) (*Navigation, error) {
	data, err := mi.Content()
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var toc *goquery.Selection
	doc.Find("nav").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if slices.Contains(strings.Fields(s.AttrOr("epub:type", "")), "toc") {
			toc = s
			return false
		}
		return true
	})
	if toc == nil {
		if toc = doc.Find("nav").First(); toc.Length() == 0 {
			return nil, errors.New("no nav element")
		}
	}
	var pos int
	return &Navigation{Src: mi.Href, Points: navList(toc.Find("ol").First(), &pos)}, nil
}

func navList(ol *goquery.Selection, pos *int) []NavPoint {
	if ol.Length() == 0 {
		return nil
	}
	var points []NavPoint
	ol.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		label := li.ChildrenFiltered("a").First()
		if label.Length() == 0 {
			label = li.ChildrenFiltered("span").First()
		}
		*pos++
		p := NavPoint{
			Title:    collapseSpace(label.Text()),
			Src:      strings.TrimSpace(label.AttrOr("href", "")),
			Position: *pos,
		}
		p.Children = navList(li.ChildrenFiltered("ol").First(), pos)
		points = append(points, p)
	})
	return points
}
