// Package processor turns loaded e-book into set of web-safe resources:
// sanitized and optionally truncated chapters, namespaced stylesheets,
// relocated images and flattened table of contents.
package processor

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"epubres/common"
	"epubres/css"
	"epubres/epub"
	"epubres/markup"
	"epubres/resource"
	"epubres/utils/paths"
)

// Processor runs the pipeline over single package once. Processor is not
// safe for concurrent use, separate processors may run in parallel.
type Processor struct {
	pkg    epub.Package
	log    *zap.Logger
	opts   options
	parser *css.Parser
	reg    *resource.Registry

	state State
	runID uuid.UUID
	errs  error
}

// New creates processor for the package.
func New(pkg epub.Package, log *zap.Logger, opts ...Option) (*Processor, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if pkg == nil {
		return nil, fmt.Errorf("%w: no package", ErrOptions)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.check(); err != nil {
		return nil, err
	}

	log = log.Named("processor")
	return &Processor{
		pkg:    pkg,
		log:    log,
		opts:   o,
		parser: css.NewParser(log),
		reg:    resource.NewRegistry(),
	}, nil
}

// State returns current pipeline stage.
func (p *Processor) State() State {
	return p.state
}

func (p *Processor) enter(s State) {
	p.log.Debug("Entering state", zap.Stringer("state", s), zap.Stringer("from", p.state))
	p.state = s
}

// Run executes the pipeline. Context is checked between chapters, on
// cancellation run is aborted and its error returned.
func (p *Processor) Run(ctx context.Context) (*Result, error) {
	if p.state != StateIdle {
		return nil, fmt.Errorf("processor already ran (state %s)", p.state)
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	p.runID = id
	p.log = p.log.With(zap.Stringer("run", id))

	p.enter(StateGathering)
	p.gather()

	p.enter(StateSpining)
	total, err := p.spine(ctx)
	if err != nil {
		return nil, err
	}

	p.enter(StateNavigating)
	p.navigate()

	limit, bounded := p.opts.budget(total)
	p.log.Debug("Budget resolved", zap.Int("total", total), zap.Int("limit", limit), zap.Bool("bounded", bounded))

	if !bounded || limit > 0 {
		p.enter(StateSampling)
		if err := p.sample(ctx, limit, bounded); err != nil {
			return nil, err
		}

		p.enter(StateResolvingStyles)
		p.resolveStyles()

		p.syncNavigation()
	}

	p.enter(StateFinalized)
	res := &Result{
		runID:      p.runID,
		reg:        p.reg,
		includeNav: p.opts.includeNav,
		limit:      limit,
		bounded:    bounded,
		err:        p.errs,
	}
	p.log.Debug("Run complete",
		zap.Int("chapters", len(p.reg.Chapters(true))),
		zap.Int("images", len(p.reg.Images(true))),
		zap.Int("stylesheets", len(p.reg.Stylesheets(true))),
		zap.Error(p.errs))
	return res, nil
}

// fail records scoped error.
func (p *Processor) fail(msg string, err error, fields ...zap.Field) {
	p.log.Warn(msg, append(fields, zap.Error(err))...)
	p.errs = multierr.Append(p.errs, err)
}

func (p *Processor) gather() {
	coverID, _ := p.pkg.Meta("cover")
	for _, mi := range p.pkg.Manifest() {
		switch {
		case mi.IsImage():
		case mi.IsStylesheet():
			p.reg.Add(resource.NewStylesheet(mi, p.parser, p.opts.styleLimit))
			continue
		case len(mi.MediaType) == 0 || mi.MediaType == "application/octet-stream":
			data, err := mi.Content()
			if err != nil {
				continue
			}
			mt, ok := resource.SniffImage(data)
			if !ok {
				continue
			}
			p.log.Debug("Image detected by content", zap.String("href", mi.Href), zap.String("type", mt))
		default:
			continue
		}
		cover := (len(coverID) > 0 && mi.ID == coverID) || mi.HasProperty("cover-image")
		p.reg.Add(resource.NewImage(mi, cover))
	}
}

// spine creates chapters in reading order and returns total length of
// content when it is needed for percentage budget.
func (p *Processor) spine(ctx context.Context) (int, error) {
	items := p.pkg.Spine()
	measure := p.opts.byPercent && p.opts.percent < 100

	var total int
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		ch := resource.NewChapter(item, p.log)
		ch.SetValid(p.opts.validator == nil || p.opts.validator(item, i == len(items)-1))
		if measure {
			n, err := ch.Length()
			if err != nil {
				p.fail("Unable to measure chapter", err, zap.String("href", ch.Href()))
				ch.SetValid(false)
			}
			total += n
		}
		p.reg.Add(ch)
	}
	return total, nil
}

func (p *Processor) navigate() {
	nav := p.pkg.Navigation()
	if nav == nil {
		return
	}
	dir := paths.Dir(nav.Src)

	var walk func(points []epub.NavPoint, depth int)
	walk = func(points []epub.NavPoint, depth int) {
		for _, pt := range points {
			p.reg.Add(resource.NewNavEntry(pt, depth, dir))
			walk(pt.Children, depth+1)
		}
	}
	walk(nav.Points, 0)
}

func (p *Processor) sample(ctx context.Context, limit int, bounded bool) error {
	remaining := limit
	for _, ch := range p.reg.Chapters(false) {
		if !ch.IsValid() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := ch.Document(); err != nil {
			ch.SetValid(false)
			p.fail("Unable to load chapter", err, zap.String("href", ch.Href()))
			continue
		}
		ch.SetUsed(true)

		cut, stop := -1, false
		if bounded {
			n, err := ch.Length()
			if err != nil {
				p.fail("Unable to measure chapter", err, zap.String("href", ch.Href()))
				continue
			}
			remaining -= n
			if remaining <= 0 {
				stop = true
				if remaining < 0 {
					cut = n + remaining
				}
			}
		}

		err := ch.Run(func(doc *markup.Document) error {
			if cut >= 0 {
				p.log.Debug("Truncating chapter", zap.String("href", ch.Href()), zap.Int("length", cut))
				if err := doc.Truncate(cut, p.opts.ending); err != nil {
					return err
				}
			}
			p.resolveImages(ch, doc)
			p.resolveChapterStyles(ch, doc)
			doc.Sanitize(markup.Policy{Styles: p.opts.inline})
			return nil
		})
		if err != nil {
			ch.SetUsed(false)
			p.fail("Unable to process chapter", err, zap.String("href", ch.Href()))
		}
		if stop {
			break
		}
	}
	return nil
}

func (p *Processor) publicURL(filename string) string {
	return p.opts.publicPath + "/" + filename
}

// local reports whether reference points inside the book.
func local(ref string) bool {
	if len(ref) == 0 || strings.HasPrefix(ref, "#") {
		return false
	}
	u, err := url.Parse(ref)
	if err != nil {
		// unparsable references are still tried against registry
		return true
	}
	return len(u.Scheme) == 0 && len(u.Host) == 0
}

// useImage marks image referenced from dir used and returns its public URL.
func (p *Processor) useImage(dir, ref string) (string, bool) {
	if !local(ref) {
		return "", false
	}
	r := p.reg.Find(common.ResourceTypeImage, paths.Join(dir, ref))
	if r == nil {
		p.log.Debug("Image reference not resolved", zap.String("dir", dir), zap.String("ref", ref))
		return "", false
	}
	r.SetUsed(true)
	return p.publicURL(r.Filename()), true
}

func (p *Processor) resolveImages(ch *resource.Chapter, doc *markup.Document) {
	dir := paths.Dir(ch.Href())
	doc.Images().Each(func(_ int, img *goquery.Selection) {
		if u, ok := p.useImage(dir, strings.TrimSpace(img.AttrOr("src", ""))); ok {
			img.SetAttr("src", u)
		}
	})
}

func (p *Processor) resolveChapterStyles(ch *resource.Chapter, doc *markup.Document) {
	dir := paths.Dir(ch.Href())
	ns := p.opts.nsPrefix + strconv.Itoa(ch.Order())

	if p.opts.external {
		doc.Each(`head link[rel~="stylesheet"]`, func(_ int, link *goquery.Selection) {
			defer link.Remove()
			href := strings.TrimSpace(link.AttrOr("href", ""))
			if !local(href) {
				return
			}
			st, ok := p.reg.Find(common.ResourceTypeStylesheet, paths.Join(dir, href)).(*resource.Stylesheet)
			if !ok {
				p.log.Debug("Stylesheet link not resolved", zap.String("chapter", ch.Href()), zap.String("href", href))
				return
			}
			st.SetUsed(true)
			st.AddNamespace(ns)
		})
	}

	if p.opts.internal {
		styles := doc.Find("head style")
		if styles.Length() == 0 {
			return
		}
		var text strings.Builder
		styles.Each(func(_ int, s *goquery.Selection) {
			text.WriteString(s.Text())
			text.WriteByte('\n')
		})
		styles.Remove()

		st := resource.NewInlineStylesheet(ch.Order(), []byte(text.String()), p.parser, p.opts.styleLimit)
		st.SetRelativePath(dir)
		st.AddNamespace(ns)
		p.reg.Add(st)
	}
}

// resolveStyles relocates images referenced from used stylesheets, scopes
// rules and renders final text. Broken stylesheet is excluded from result.
func (p *Processor) resolveStyles() {
	for _, st := range p.reg.Stylesheets(true) {
		dir := paths.Dir(st.Href())
		err := st.Run(func(tree *css.Stylesheet) {
			tree.EachURL(func(ref string) (string, bool) {
				return p.useImage(dir, ref)
			})
		})
		if err == nil {
			err = st.Flush()
		}
		if err != nil {
			st.SetUsed(false)
			p.fail("Stylesheet is unusable", err, zap.String("href", st.Href()))
		}
	}
}

// syncNavigation copies reading order, validity and usage of target
// chapters to navigation entries.
func (p *Processor) syncNavigation() {
	for _, e := range p.reg.NavEntries(false) {
		target := paths.Normalize(paths.StripFragment(e.Href()))
		ch, ok := p.reg.Find(common.ResourceTypeChapter, target).(*resource.Chapter)
		if !ok {
			continue
		}
		e.SetOrder(ch.Order())
		e.SetValid(ch.IsValid())
		e.SetUsed(ch.IsUsed())
	}
}
