package convert

import (
	"errors"
	"testing"

	"epubres/common"
	"epubres/config"
	"epubres/epub"
	"epubres/processor"
)

func defaultProcessing(t *testing.T) config.ProcessingConfig {
	t.Helper()
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg.Processing
}

func TestProcessorOptions(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*config.ProcessingConfig)
		wantErr bool
	}{
		{name: "defaults"},
		{
			name:   "percent",
			modify: func(c *config.ProcessingConfig) { c.Truncate.Percent = 10 },
		},
		{
			name:   "length",
			modify: func(c *config.ProcessingConfig) { c.Truncate.Length = 0 },
		},
		{
			name: "both budgets",
			modify: func(c *config.ProcessingConfig) {
				c.Truncate.Percent, c.Truncate.Length = 10, 100
			},
			wantErr: true,
		},
		{
			name: "allow list",
			modify: func(c *config.ProcessingConfig) {
				c.Styles.Inline.Mode = common.InlineStyleModeList
				c.Styles.Inline.Allowed = map[string]string{"text-align": "left|right"}
			},
		},
		{
			name: "broken allow list",
			modify: func(c *config.ProcessingConfig) {
				c.Styles.Inline.Mode = common.InlineStyleModeList
				c.Styles.Inline.Allowed = map[string]string{"text-align": "(left"}
			},
			wantErr: true,
		},
		{
			name:   "keep inline styles",
			modify: func(c *config.ProcessingConfig) { c.Styles.Inline.Mode = common.InlineStyleModeAll },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultProcessing(t)
			if tt.modify != nil {
				tt.modify(&cfg)
			}
			opts, err := processorOptions(&cfg)
			if err == nil {
				// processor checks options consistency
				_, err = processor.New(&epub.Book{}, nil, opts...)
			}
			if tt.wantErr != (err != nil) {
				t.Fatalf("processorOptions() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.name == "both budgets" && !errors.Is(err, processor.ErrOptions) {
				t.Errorf("error = %v, want ErrOptions", err)
			}
		})
	}
}

func TestChapterValidator(t *testing.T) {
	item := func(id string, linear bool) *epub.SpineItem {
		return &epub.SpineItem{ManifestItem: epub.NewManifestItem(id, id+".xhtml", "application/xhtml+xml", nil), Linear: linear}
	}

	if v := chapterValidator(&config.ChaptersConfig{}); v != nil {
		t.Error("chapterValidator() without settings should be nil")
	}

	v := chapterValidator(&config.ChaptersConfig{ExcludeIDs: []string{"cover"}, SkipNonLinear: true})
	tests := []struct {
		item *epub.SpineItem
		want bool
	}{
		{item("cover", true), false},
		{item("ch1", true), true},
		{item("notes", false), false},
	}
	for _, tt := range tests {
		if got := v(tt.item, false); got != tt.want {
			t.Errorf("validator(%s) = %v, want %v", tt.item.ID, got, tt.want)
		}
	}

	v = chapterValidator(&config.ChaptersConfig{ExcludeIDs: []string{"cover"}})
	if !v(item("notes", false), true) {
		t.Error("non-linear item rejected without skip_non_linear")
	}
}
