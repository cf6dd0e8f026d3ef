package css

import (
	"strings"

	"github.com/tdewolff/parse/v2/css"
)

// Token is a copy of lexer token which survives parser buffer reuse.
type Token struct {
	Type css.TokenType
	Data string
}

// Declaration is a single "property: value" pair.
type Declaration struct {
	Property string
	Value    []Token
}

// ValueString returns declaration value as text with whitespace collapsed.
func (d Declaration) ValueString() string {
	return renderTokens(d.Value)
}

func (d Declaration) String() string {
	return d.Property + ":" + d.ValueString()
}

// Rule is a qualified rule: list of selectors sharing declaration block.
type Rule struct {
	Selectors    []string
	Declarations []Declaration
}

// AtRule is either a statement (@import, @charset) or a block (@media,
// @font-face, @page). Block may hold declarations, nested items or both.
type AtRule struct {
	Name         string // lower-cased, including "@"
	Prelude      []Token
	Block        bool
	Declarations []Declaration
	Items        []Item
}

// Item is a single entry in a stylesheet. Exactly one of Rule or AtRule is
// non-nil.
type Item struct {
	Rule   *Rule
	AtRule *AtRule
}

// Stylesheet represents a parsed CSS stylesheet in source order.
type Stylesheet struct {
	Items []Item
}

// Rules returns top-level qualified rules.
func (s *Stylesheet) Rules() []*Rule {
	var rules []*Rule
	for _, item := range s.Items {
		if item.Rule != nil {
			rules = append(rules, item.Rule)
		}
	}
	return rules
}

// AtRules returns top-level at-rules with the given name, all of them when
// name is empty.
func (s *Stylesheet) AtRules(name string) []*AtRule {
	var res []*AtRule
	for _, item := range s.Items {
		if item.AtRule != nil && (len(name) == 0 || item.AtRule.Name == name) {
			res = append(res, item.AtRule)
		}
	}
	return res
}

// EachURL calls fn for every url() reference found in declarations, nested
// blocks included. When fn returns true reference is replaced with the
// returned value.
func (s *Stylesheet) EachURL(fn func(ref string) (string, bool)) {
	eachURL(s.Items, fn)
}

func eachURL(items []Item, fn func(string) (string, bool)) {
	for _, item := range items {
		switch {
		case item.Rule != nil:
			rewriteDeclURLs(item.Rule.Declarations, fn)
		case item.AtRule != nil:
			rewriteDeclURLs(item.AtRule.Declarations, fn)
			eachURL(item.AtRule.Items, fn)
		}
	}
}

func rewriteDeclURLs(decls []Declaration, fn func(string) (string, bool)) {
	for i := range decls {
		for j, t := range decls[i].Value {
			if t.Type != css.URLToken {
				continue
			}
			if ref, ok := fn(urlReference(t.Data)); ok {
				decls[i].Value[j].Data = makeURL(ref)
			}
		}
	}
}

// urlReference extracts reference from url(...) token text.
func urlReference(s string) string {
	if len(s) >= 4 && strings.EqualFold(s[:4], "url(") {
		s = s[4:]
	}
	s = strings.TrimSuffix(s, ")")
	return unquote(s)
}

func makeURL(ref string) string {
	return `url("` + escapeDoubleQuoted(ref) + `")`
}

// escapeDoubleQuoted escapes a string for use inside CSS double quotes.
func escapeDoubleQuoted(s string) string {
	if !strings.ContainsAny(s, `"\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// unquote removes surrounding whitespace and quotes from a string.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

// renderTokens joins tokens collapsing whitespace runs into single space.
func renderTokens(tokens []Token) string {
	var sb strings.Builder
	space := false
	for _, t := range tokens {
		if t.Type == css.WhitespaceToken || t.Type == css.CommentToken {
			space = sb.Len() > 0
			continue
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		sb.WriteString(t.Data)
	}
	return sb.String()
}
