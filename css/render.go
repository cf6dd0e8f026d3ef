package css

import (
	"bytes"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// WriteTo writes the stylesheet to w in source order, implementing io.WriterTo.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	writeItems(&buf, s.Items)
	return buf.WriteTo(w)
}

// String returns compact CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var buf bytes.Buffer
	writeItems(&buf, s.Items)
	return buf.String()
}

func writeItems(buf *bytes.Buffer, items []Item) {
	for _, item := range items {
		switch {
		case item.Rule != nil:
			buf.WriteString(strings.Join(item.Rule.Selectors, ","))
			buf.WriteByte('{')
			writeDeclarations(buf, item.Rule.Declarations)
			buf.WriteByte('}')
		case item.AtRule != nil:
			at := item.AtRule
			buf.WriteString(at.Name)
			if prelude := renderTokens(at.Prelude); len(prelude) > 0 {
				buf.WriteByte(' ')
				buf.WriteString(prelude)
			}
			if !at.Block {
				buf.WriteByte(';')
				continue
			}
			buf.WriteByte('{')
			writeDeclarations(buf, at.Declarations)
			writeItems(buf, at.Items)
			buf.WriteByte('}')
		}
	}
}

func writeDeclarations(buf *bytes.Buffer, decls []Declaration) {
	for i, d := range decls {
		if i > 0 {
			buf.WriteByte(';')
		}
		buf.WriteString(d.String())
	}
}

// Minify removes comments and whitespace which carries no meaning. It is
// purely lexical and never reorders or merges anything. Whitespace around
// colons is dropped in declarations only and around combinators in selectors
// only, so "a :hover" keeps its meaning.
func Minify(text string) string {
	l := css.NewLexer(parse.NewInput(strings.NewReader(text)))

	var (
		out    []byte
		prev   = css.LeftBraceToken
		delim  byte
		space  bool
		blocks []bool // true for declaration blocks
		at     string // at-keyword of current statement
		fresh  = true
	)
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			return string(out)
		case css.CommentToken, css.CDOToken, css.CDCToken:
			continue
		case css.WhitespaceToken:
			space = true
			continue
		case css.RightBraceToken:
			if prev == css.SemicolonToken {
				out = out[:len(out)-1]
			}
		}

		decl := len(blocks) > 0 && blocks[len(blocks)-1]
		if !decl && fresh {
			at, fresh = "", false
			if tt == css.AtKeywordToken {
				at = strings.ToLower(string(data))
			}
		}
		selector := !decl && len(at) == 0

		if space && !separator(prev, delim, decl, selector) && !separator(tt, firstByte(data), decl, selector) {
			out = append(out, ' ')
		}
		space = false
		out = append(out, data...)
		prev, delim = tt, firstByte(data)

		switch tt {
		case css.LeftBraceToken:
			blocks = append(blocks, decl || !groupingRules[at])
			fresh = true
		case css.RightBraceToken:
			if len(blocks) > 0 {
				blocks = blocks[:len(blocks)-1]
			}
			fresh = true
		case css.SemicolonToken:
			fresh = !decl
		}
	}
}

// at-rules with nested rules rather than declarations
var groupingRules = map[string]bool{
	"@media": true, "@supports": true, "@document": true, "@-moz-document": true,
	"@layer": true, "@container": true, "@scope": true, "@starting-style": true,
}

func separator(tt css.TokenType, delim byte, decl, selector bool) bool {
	switch tt {
	case css.LeftBraceToken, css.RightBraceToken, css.SemicolonToken, css.CommaToken:
		return true
	case css.ColonToken:
		return decl
	case css.DelimToken:
		return selector && (delim == '>' || delim == '+' || delim == '~')
	}
	return false
}

func firstByte(data []byte) byte {
	if len(data) == 0 {
		return 0
	}
	return data[0]
}
