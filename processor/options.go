package processor

import (
	"errors"
	"fmt"

	"epubres/epub"
	"epubres/markup"
)

// ErrOptions is returned by New for contradicting or out of range options.
var ErrOptions = errors.New("invalid options")

const (
	DefaultNamespacePrefix = "#epub_c"
	DefaultStyleSizeLimit  = 200 * 1024
)

// Validator decides whether spine item should be rendered, last is set for
// the final item of the spine.
type Validator func(item *epub.SpineItem, last bool) bool

type options struct {
	percent    float64
	maxLength  int
	length     int
	byPercent  bool
	byLength   bool
	external   bool
	internal   bool
	inline     markup.StyleFilter
	publicPath string
	nsPrefix   string
	validator  Validator
	includeNav bool
	styleLimit int
	ending     string
}

// Option configures Processor.
type Option func(*options)

func defaultOptions() options {
	return options{
		inline:     markup.StripStyles(),
		nsPrefix:   DefaultNamespacePrefix,
		styleLimit: DefaultStyleSizeLimit,
		ending:     markup.DefaultEnding,
	}
}

// WithTruncatePercent limits rendered text to pct percent of the whole book
// but no more than maxLength characters (no cap when maxLength <= 0).
// Percentage of 100 and above disables truncation.
func WithTruncatePercent(pct float64, maxLength int) Option {
	return func(o *options) {
		o.percent, o.maxLength, o.byPercent = pct, maxLength, true
	}
}

// WithTruncateLength limits rendered text to n characters.
func WithTruncateLength(n int) Option {
	return func(o *options) {
		o.length, o.byLength = n, true
	}
}

// WithExternalStylesheets enables processing of <link rel="stylesheet">.
func WithExternalStylesheets(enable bool) Option {
	return func(o *options) { o.external = enable }
}

// WithInternalStylesheets enables processing of <style> in document head.
func WithInternalStylesheets(enable bool) Option {
	return func(o *options) { o.internal = enable }
}

// WithInlineStyles sets style attribute filter, nil keeps attributes as is.
// By default style attributes are removed.
func WithInlineStyles(filter markup.StyleFilter) Option {
	return func(o *options) { o.inline = filter }
}

// WithPublicPath sets base prepended to produced file names in rewritten
// references.
func WithPublicPath(base string) Option {
	return func(o *options) { o.publicPath = base }
}

// WithNamespacePrefix sets selector prefix, chapter order is appended to it.
func WithNamespacePrefix(prefix string) Option {
	return func(o *options) { o.nsPrefix = prefix }
}

// WithChapterValidator sets spine item filter.
func WithChapterValidator(v Validator) Option {
	return func(o *options) { o.validator = v }
}

// WithIncludeNav makes result report all navigation entries, not only used
// ones.
func WithIncludeNav(enable bool) Option {
	return func(o *options) { o.includeNav = enable }
}

// WithStyleSizeLimit sets stylesheet size ceiling in bytes, <= 0 means no
// limit.
func WithStyleSizeLimit(n int) Option {
	return func(o *options) { o.styleLimit = n }
}

// WithEnding sets marker appended to truncated text.
func WithEnding(ending string) Option {
	return func(o *options) { o.ending = ending }
}

func (o *options) check() error {
	if o.byPercent && o.byLength {
		return fmt.Errorf("%w: truncation by percentage and by length are mutually exclusive", ErrOptions)
	}
	if o.byPercent && o.percent < 0 {
		return fmt.Errorf("%w: negative truncation percentage %v", ErrOptions, o.percent)
	}
	if o.byLength && o.length < 0 {
		return fmt.Errorf("%w: negative truncation length %d", ErrOptions, o.length)
	}
	return nil
}

// budget returns number of characters to render, bounded is false when
// content is rendered in full.
func (o *options) budget(total int) (limit int, bounded bool) {
	switch {
	case o.byPercent && o.percent < 100:
		limit = int(float64(total) * o.percent / 100)
		if o.maxLength > 0 {
			limit = min(limit, o.maxLength)
		}
		return limit, true
	case o.byLength:
		return o.length, true
	}
	return 0, false
}
