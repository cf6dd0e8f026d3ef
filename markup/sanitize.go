package markup

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"epubres/css"
)

// StyleFilter decides which declarations of the inline style attribute
// survive. Empty result removes the attribute.
type StyleFilter func([]css.Declaration) []css.Declaration

// StripStyles removes every inline style.
func StripStyles() StyleFilter {
	return func([]css.Declaration) []css.Declaration { return nil }
}

// AllowStyles keeps declarations which property is listed in allowed
// (case-insensitive) and which value fully matches the corresponding
// regular expression.
func AllowStyles(allowed map[string]string) (StyleFilter, error) {
	rules := make(map[string]*regexp.Regexp, len(allowed))
	for prop, pattern := range allowed {
		re, err := regexp.Compile(`(?i)^(?:` + pattern + `)$`)
		if err != nil {
			return nil, fmt.Errorf("bad inline style pattern for %q: %w", prop, err)
		}
		rules[strings.ToLower(strings.TrimSpace(prop))] = re
	}
	return func(decls []css.Declaration) []css.Declaration {
		var kept []css.Declaration
		for _, d := range decls {
			if re, ok := rules[strings.ToLower(d.Property)]; ok && re.MatchString(d.ValueString()) {
				kept = append(kept, d)
			}
		}
		return kept
	}, nil
}

// Policy describes chapter cleanup.
type Policy struct {
	// Styles filters inline style attributes, nil leaves them untouched.
	Styles StyleFilter
}

// Sanitize makes chapter markup safe to embed: scripts and document level
// styles are removed, inline styles are filtered, external links open in new
// context while links inside the book are reduced to their content and bare
// ruby text is wrapped into <rb>.
func (d *Document) Sanitize(p Policy) {
	removed := d.Remove("head style")
	removed += d.Remove("script")

	if p.Styles != nil {
		parser := css.NewParser(d.log)
		d.Each("[style]", func(_ int, s *goquery.Selection) {
			kept := p.Styles(parser.ParseInline(attr(s, "style")))
			if len(kept) == 0 {
				s.RemoveAttr("style")
				return
			}
			parts := make([]string, 0, len(kept))
			for _, decl := range kept {
				parts = append(parts, decl.String())
			}
			s.SetAttr("style", strings.Join(parts, ";"))
		})
	}

	var unwrapped int
	d.Each("body a[href]", func(_ int, s *goquery.Selection) {
		if external(attr(s, "href")) {
			s.SetAttr("target", "_blank")
			return
		}
		// links inside the book are not resolvable once chapters are split
		unwrapped++
		if contents := s.Contents(); contents.Length() > 0 {
			contents.Unwrap()
		} else {
			s.Remove()
		}
	})

	d.Each("ruby", func(_ int, s *goquery.Selection) {
		wrapRubyText(s.Get(0))
	})

	d.log.Debug("Chapter sanitized", zap.Int("removed", removed), zap.Int("unwrapped links", unwrapped))
}

func external(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	return len(u.Scheme) > 0 || len(u.Host) > 0
}

func wrapRubyText(ruby *html.Node) {
	for c := ruby.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.TextNode && len(strings.TrimSpace(c.Data)) > 0 {
			rb := &html.Node{Type: html.ElementNode, Data: "rb", DataAtom: atom.Rb}
			ruby.InsertBefore(rb, c)
			ruby.RemoveChild(c)
			rb.AppendChild(c)
		}
		c = next
	}
}
