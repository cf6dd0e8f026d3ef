package css

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// ErrStylesheet is returned for stylesheets which cannot be used: too big or
// not parsable. It never affects anything but the stylesheet in question.
var ErrStylesheet = errors.New("unusable stylesheet")

// Parser parses CSS stylesheets into item tree.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet. When limit is positive data
// longer than limit bytes is refused. The optional source parameter
// identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, limit int, source ...string) (*Stylesheet, error) {
	name := ""
	if len(source) > 0 {
		name = source[0]
	}
	if limit > 0 && len(data) > limit {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrStylesheet, name, len(data), limit)
	}

	data = prepare(data)
	p.log.Debug("Parsing CSS", zap.String("source", name), zap.Int("bytes", len(data)))

	parser := css.NewParser(parse.NewInput(bytes.NewReader(data)), false)
	items, _, err := p.parseBlock(parser, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStylesheet, name, err)
	}
	return &Stylesheet{Items: items}, nil
}

// ParseInline parses content of the style attribute.
func (p *Parser) ParseInline(style string) []Declaration {
	parser := css.NewParser(parse.NewInput(strings.NewReader(style)), true)

	var decls []Declaration
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil {
				if !errors.Is(err, io.EOF) {
					p.log.Debug("Inline style parse error", zap.String("style", style), zap.Error(err))
				}
				return decls
			}
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			if d, ok := declaration(data, parser.Values()); ok {
				decls = append(decls, d)
			}
		}
	}
}

// parseBlock collects items and declarations until the end of current
// at-rule block (nested) or end of input.
func (p *Parser) parseBlock(parser *css.Parser, nested bool) ([]Item, []Declaration, error) {
	var (
		items   []Item
		decls   []Declaration
		pending []string
	)
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			err := parser.Err()
			if err == nil {
				// recoverable syntax error, parser skipped offending tokens
				continue
			}
			if errors.Is(err, io.EOF) {
				return items, decls, nil
			}
			return nil, nil, err

		case css.EndAtRuleGrammar:
			if nested {
				return items, decls, nil
			}

		case css.CommentGrammar:
			continue

		case css.AtRuleGrammar:
			items = append(items, Item{AtRule: &AtRule{
				Name:    strings.ToLower(string(data)),
				Prelude: tokens(parser.Values()),
			}})

		case css.BeginAtRuleGrammar:
			at := &AtRule{
				Name:    strings.ToLower(string(data)),
				Prelude: tokens(parser.Values()),
				Block:   true,
			}
			var err error
			if at.Items, at.Declarations, err = p.parseBlock(parser, true); err != nil {
				return nil, nil, err
			}
			p.log.Debug("Parsed @-rule block", zap.String("rule", at.Name), zap.Int("items", len(at.Items)), zap.Int("declarations", len(at.Declarations)))
			items = append(items, Item{AtRule: at})

		case css.QualifiedRuleGrammar:
			// selector group followed by comma, rest of the list comes with the ruleset
			pending = append(pending, selectors(data, parser.Values())...)

		case css.BeginRulesetGrammar:
			rule := &Rule{Selectors: append(pending, selectors(data, parser.Values())...)}
			pending = nil
			var err error
			if rule.Declarations, err = p.parseDeclarations(parser); err != nil {
				return nil, nil, err
			}
			items = append(items, Item{Rule: rule})

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			if d, ok := declaration(data, parser.Values()); ok {
				decls = append(decls, d)
			}
		}
	}
}

// parseDeclarations parses property declarations until EndRulesetGrammar.
func (p *Parser) parseDeclarations(parser *css.Parser) ([]Declaration, error) {
	var decls []Declaration
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			err := parser.Err()
			if err == nil {
				continue
			}
			if errors.Is(err, io.EOF) {
				// unterminated block, keep what we have
				return decls, nil
			}
			return nil, err

		case css.EndRulesetGrammar:
			return decls, nil

		case css.BeginRulesetGrammar:
			// nested rules are not supported by readers, drop them
			p.log.Debug("Skipping nested ruleset", zap.String("selector", renderTokens(tokens(parser.Values()))))
			if err := p.skipRuleset(parser); err != nil {
				return nil, err
			}

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			if d, ok := declaration(data, parser.Values()); ok {
				decls = append(decls, d)
			}
		}
	}
}

// skipRuleset skips tokens until the matching end of a ruleset.
func (p *Parser) skipRuleset(parser *css.Parser) error {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
	return nil
}

func declaration(data []byte, values []css.Token) (Declaration, bool) {
	d := Declaration{
		Property: strings.TrimSpace(string(data)),
		Value:    trimTokens(tokens(values)),
	}
	return d, len(d.Property) > 0 && len(d.Value) > 0
}

// tokens copies parser values. Quoted url(...) sometimes arrives as a
// function token followed by string, it is folded into single url token so
// callers see one form only.
func tokens(values []css.Token) []Token {
	res := make([]Token, 0, len(values))
	for i := 0; i < len(values); i++ {
		v := values[i]
		if v.TokenType == css.FunctionToken && strings.EqualFold(string(v.Data), "url(") {
			if ref, next, ok := foldURL(values, i+1); ok {
				res = append(res, Token{Type: css.URLToken, Data: makeURL(ref)})
				i = next
				continue
			}
		}
		res = append(res, Token{Type: v.TokenType, Data: string(v.Data)})
	}
	return res
}

// foldURL expects [ws] string [ws] ")" starting at values[i], returns
// unquoted reference and index of the closing parenthesis.
func foldURL(values []css.Token, i int) (string, int, bool) {
	skip := func() {
		for i < len(values) && values[i].TokenType == css.WhitespaceToken {
			i++
		}
	}
	skip()
	if i >= len(values) || values[i].TokenType != css.StringToken {
		return "", 0, false
	}
	ref := unquote(string(values[i].Data))
	i++
	skip()
	if i >= len(values) || values[i].TokenType != css.RightParenthesisToken {
		return "", 0, false
	}
	return ref, i, true
}

func trimTokens(t []Token) []Token {
	for len(t) > 0 && t[0].Type == css.WhitespaceToken {
		t = t[1:]
	}
	for len(t) > 0 && t[len(t)-1].Type == css.WhitespaceToken {
		t = t[:len(t)-1]
	}
	return t
}

// selectors splits selector list on top level commas.
func selectors(data []byte, values []css.Token) []string {
	all := make([]Token, 0, len(values)+1)
	if len(data) > 0 {
		all = append(all, Token{Type: css.IdentToken, Data: string(data)})
	}
	all = append(all, tokens(values)...)

	var (
		res   []string
		start int
		depth int
	)
	flush := func(end int) {
		if s := strings.TrimSpace(renderTokens(all[start:end])); len(s) > 0 {
			res = append(res, s)
		}
		start = end + 1
	}
	for i, t := range all {
		switch t.Type {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case css.CommaToken:
			if depth == 0 {
				flush(i)
			}
		}
	}
	flush(len(all))
	return res
}
