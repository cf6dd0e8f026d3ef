package resource

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"epubres/common"
	"epubres/css"
	"epubres/epub"
)

// InlinePrefix starts hrefs of stylesheets synthesized from <style> blocks.
const InlinePrefix = "@inline:"

// Stylesheet is CSS scoped to the chapters which use it. Every chapter adds
// its namespace, rules are repeated under each of them.
type Stylesheet struct {
	base
	item   *epub.ManifestItem
	text   []byte
	parser *css.Parser
	limit  int

	namespaces []string
	tree       *css.Stylesheet
	content    []byte
}

// NewStylesheet creates stylesheet resource for manifest item. Sources
// longer than limit bytes are refused when limit is positive.
func NewStylesheet(item *epub.ManifestItem, parser *css.Parser, limit int) *Stylesheet {
	return &Stylesheet{base: newBase(item.Href), item: item, parser: parser, limit: limit}
}

// NewInlineStylesheet creates already used stylesheet from text of <style>
// elements of the chapter with given reading order.
func NewInlineStylesheet(order int, text []byte, parser *css.Parser, limit int) *Stylesheet {
	s := &Stylesheet{
		base:   newBase(fmt.Sprintf("%s%d", InlinePrefix, order)),
		text:   text,
		parser: parser,
		limit:  limit,
	}
	s.used = true
	return s
}

func (s *Stylesheet) Type() common.ResourceType {
	return common.ResourceTypeStylesheet
}

// Inline reports whether stylesheet came from <style> elements.
func (s *Stylesheet) Inline() bool {
	return s.item == nil
}

// AddNamespace appends selector prefix, duplicates are ignored.
func (s *Stylesheet) AddNamespace(ns string) {
	if !slices.Contains(s.namespaces, ns) {
		s.namespaces = append(s.namespaces, ns)
	}
}

func (s *Stylesheet) Namespaces() []string {
	return s.namespaces
}

func (s *Stylesheet) source() ([]byte, error) {
	if s.item == nil {
		return s.text, nil
	}
	return s.item.Content()
}

// Tree returns parsed stylesheet, parsing it on first access.
func (s *Stylesheet) Tree() (*css.Stylesheet, error) {
	if s.tree != nil {
		return s.tree, nil
	}
	data, err := s.source()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", css.ErrStylesheet, s.Href(), err)
	}
	if s.tree, err = s.parser.Parse(data, s.limit, s.Href()); err != nil {
		return nil, err
	}
	return s.tree, nil
}

// Run hands parsed tree to fn, the tree is kept for following passes.
func (s *Stylesheet) Run(fn func(*css.Stylesheet)) error {
	tree, err := s.Tree()
	if err != nil {
		return err
	}
	fn(tree)
	return nil
}

// Flush scopes rules with collected namespaces, renders minified text and
// drops parsed tree.
func (s *Stylesheet) Flush() error {
	tree, err := s.Tree()
	if err != nil {
		return err
	}
	css.Rewrite(tree, s.namespaces)
	s.content = []byte(css.Minify(tree.String()))
	s.tree = nil
	return nil
}

// Content returns final text, flushing stylesheet if it was not done yet.
func (s *Stylesheet) Content() ([]byte, error) {
	if s.content == nil {
		if err := s.Flush(); err != nil {
			return nil, err
		}
	}
	return s.content, nil
}

// Filename is base name of the source file, "inline-<order>.css" for
// synthesized stylesheets.
func (s *Stylesheet) Filename() string {
	if s.Inline() {
		return "inline-" + strings.TrimPrefix(s.src, InlinePrefix) + ".css"
	}
	return path.Base(s.Href())
}
