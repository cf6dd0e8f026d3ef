package markup

import (
	"iter"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// DefaultEnding is appended to truncated text.
const DefaultEnding = "..."

// character reference in raw text, cut never goes through one
var entity = regexp.MustCompile(`^&(?:[0-9A-Za-z]{2,8}|#[0-9]{1,7}|#[xX][0-9A-Fa-f]{1,6});`)

// elements which never have closing tag
var voidTags = map[string]bool{
	"area": true, "base": true, "basefont": true, "br": true, "col": true,
	"embed": true, "frame": true, "hr": true, "img": true, "input": true,
	"isindex": true, "keygen": true, "link": true, "meta": true, "param": true,
	"source": true, "track": true, "wbr": true,
}

type token struct {
	kind html.TokenType
	name string // lower case, tags only
	raw  string
}

// tokens walks fragment token by token. Raw text of every token is kept
// intact so concatenation of all raw values gives back the fragment.
func tokens(fragment string) iter.Seq[token] {
	return func(yield func(token) bool) {
		z := html.NewTokenizer(strings.NewReader(fragment))
		for {
			tt := z.Next()
			if tt == html.ErrorToken {
				// io.EOF, reading from string never fails otherwise
				return
			}
			tok := token{kind: tt, raw: string(z.Raw())}
			if tt == html.StartTagToken || tt == html.EndTagToken || tt == html.SelfClosingTagToken {
				name, _ := z.TagName()
				tok.name = string(name)
			}
			if !yield(tok) {
				return
			}
		}
	}
}

// Truncate shortens markup fragment to length characters of text, tags do
// not count and each character reference counts as one. Cut is moved back
// to the last whitespace if there is one, ending is appended and all tags
// left open are closed. Fragments which are short enough are returned
// unchanged, zero or negative length produces empty string.
func Truncate(fragment string, length int, ending string) string {
	if length <= 0 {
		return ""
	}
	if PlainLength(fragment) <= length {
		return fragment
	}

	var (
		out       strings.Builder
		total     int
		lastSpace = -1
	)
	keep := func(text string) {
		if len(strings.TrimSpace(text)) > 0 {
			base := out.Len()
			for i, r := range text {
				if unicode.IsSpace(r) {
					lastSpace = base + i
				}
			}
		}
		out.WriteString(text)
	}

	for tok := range tokens(fragment) {
		if tok.kind != html.TextToken {
			out.WriteString(tok.raw)
			continue
		}
		if n := countChars(tok.raw); total+n < length {
			keep(tok.raw)
			total += n
			continue
		}
		keep(takeChars(tok.raw, length-total))
		break
	}

	res := out.String()
	if lastSpace >= 0 {
		res = res[:lastSpace]
	}

	var sb strings.Builder
	sb.WriteString(res)
	sb.WriteString(ending)
	for _, name := range slices.Backward(openTags(res)) {
		sb.WriteString("</")
		sb.WriteString(name)
		sb.WriteByte('>')
	}
	return sb.String()
}

// PlainLength counts text characters in markup fragment, each character
// reference counts as one.
func PlainLength(fragment string) int {
	total := 0
	for tok := range tokens(fragment) {
		if tok.kind == html.TextToken {
			total += countChars(tok.raw)
		}
	}
	return total
}

// openTags returns names of elements left open at the end of fragment in the
// order they were opened.
func openTags(fragment string) []string {
	var stack []string
	for tok := range tokens(fragment) {
		switch tok.kind {
		case html.StartTagToken:
			if !voidTags[tok.name] {
				stack = append(stack, tok.name)
			}
		case html.EndTagToken:
			// closes the innermost element with the same name
			for j := len(stack) - 1; j >= 0; j-- {
				if stack[j] == tok.name {
					stack = slices.Delete(stack, j, j+1)
					break
				}
			}
		}
	}
	return stack
}

// countChars counts characters in text run, character references count as one.
func countChars(text string) int {
	n := 0
	for i := 0; i < len(text); n++ {
		i += charLen(text[i:])
	}
	return n
}

// takeChars returns prefix of text run holding n characters.
func takeChars(text string, n int) string {
	i := 0
	for ; n > 0 && i < len(text); n-- {
		i += charLen(text[i:])
	}
	return text[:i]
}

func charLen(s string) int {
	if s[0] == '&' {
		if m := entity.FindString(s); len(m) > 0 {
			return len(m)
		}
	}
	_, size := utf8.DecodeRuneInString(s)
	return size
}
