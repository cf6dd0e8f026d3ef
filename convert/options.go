package convert

import (
	"fmt"
	"slices"

	"epubres/common"
	"epubres/config"
	"epubres/epub"
	"epubres/markup"
	"epubres/processor"
)

// processorOptions translates configuration into processor options.
func processorOptions(cfg *config.ProcessingConfig) ([]processor.Option, error) {
	opts := []processor.Option{
		processor.WithExternalStylesheets(cfg.Styles.External),
		processor.WithInternalStylesheets(cfg.Styles.Internal),
		processor.WithNamespacePrefix(cfg.Styles.NamespacePrefix),
		processor.WithStyleSizeLimit(cfg.Styles.SizeLimit),
		processor.WithPublicPath(cfg.PublicPath),
		processor.WithIncludeNav(cfg.IncludeNav),
		processor.WithEnding(cfg.Truncate.Ending),
		processor.WithChapterValidator(chapterValidator(&cfg.Chapters)),
	}

	// negative values disable truncation, processor rejects both set
	if cfg.Truncate.Percent >= 0 {
		opts = append(opts, processor.WithTruncatePercent(cfg.Truncate.Percent, cfg.Truncate.MaxLength))
	}
	if cfg.Truncate.Length >= 0 {
		opts = append(opts, processor.WithTruncateLength(cfg.Truncate.Length))
	}

	filter, err := inlineFilter(&cfg.Styles.Inline)
	if err != nil {
		return nil, err
	}
	return append(opts, processor.WithInlineStyles(filter)), nil
}

func inlineFilter(cfg *config.InlineStylesConfig) (markup.StyleFilter, error) {
	switch cfg.Mode {
	case common.InlineStyleModeAll:
		return nil, nil
	case common.InlineStyleModeList:
		filter, err := markup.AllowStyles(cfg.Allowed)
		if err != nil {
			return nil, fmt.Errorf("unable to use inline styles allow list: %w", err)
		}
		return filter, nil
	default:
		return markup.StripStyles(), nil
	}
}

// chapterValidator rejects excluded and, when requested, non-linear spine
// items. Everything passes when nothing is configured.
func chapterValidator(cfg *config.ChaptersConfig) processor.Validator {
	if len(cfg.ExcludeIDs) == 0 && !cfg.SkipNonLinear {
		return nil
	}
	return func(item *epub.SpineItem, _ bool) bool {
		if slices.Contains(cfg.ExcludeIDs, item.ID) {
			return false
		}
		return item.Linear || !cfg.SkipNonLinear
	}
}
