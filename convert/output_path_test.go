package convert

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"epubres/config"
	"epubres/state"
)

func setupTestEnvForOutputPath(t *testing.T, noDirs, transliterate bool, template string) *state.LocalEnv {
	t.Helper()
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Output.FileNameTransliterate = transliterate
	cfg.Output.OutputNameTemplate = template

	return &state.LocalEnv{
		Log:    logger,
		Cfg:    cfg,
		NoDirs: noDirs,
	}
}

func TestBuildOutputPath(t *testing.T) {
	tests := []struct {
		name          string
		noDirs        bool
		transliterate bool
		archive       bool
		template      string
		src           string
		want          string
	}{
		{
			name:   "no dirs",
			noDirs: true,
			src:    "books/author/book.epub",
			want:   filepath.Join("/output", "book"),
		},
		{
			name: "with dirs",
			src:  "books/author/book.epub",
			want: filepath.Join("/output", "books", "author", "book"),
		},
		{
			name:    "archive",
			archive: true,
			src:     "book.epub",
			want:    filepath.Join("/output", "book.zip"),
		},
		{
			name:          "transliterate",
			transliterate: true,
			src:           "Книга.epub",
			want:          filepath.Join("/output", "kniga"),
		},
		{
			name:     "template",
			noDirs:   true,
			template: "{{ .Title }}",
			src:      "books/book.epub",
			want:     filepath.Join("/output", "My Great Book"),
		},
		{
			name:     "template with subdirectories",
			noDirs:   true,
			archive:  true,
			template: "{{ .Language }}/{{ index .Authors 0 }}/{{ .Title }}",
			src:      "book.epub",
			want:     filepath.Join("/output", "en", "Jane Roe", "My Great Book.zip"),
		},
		{
			name:          "template transliterated",
			noDirs:        true,
			transliterate: true,
			template:      "{{ .Title }}",
			src:           "book.epub",
			want:          filepath.Join("/output", "my-great-book"),
		},
		{
			name:     "broken template falls back",
			noDirs:   true,
			template: "{{ .Title ",
			src:      "book.epub",
			want:     filepath.Join("/output", "book"),
		},
		{
			name:     "empty expansion falls back",
			noDirs:   true,
			template: "{{ .Publisher }}",
			src:      "book.epub",
			want:     filepath.Join("/output", "book"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnvForOutputPath(t, tt.noDirs, tt.transliterate, tt.template)
			b := sampleInfo()
			b.meta = fakeMeta{"title": "My Great Book", "creator": "Jane Roe", "language": "en"}
			b.archive = tt.archive

			if got := buildOutputPath(b, tt.src, "/output", env); got != tt.want {
				t.Errorf("buildOutputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitAndCleanPath(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"", []string{}},
		{"file", []string{"file"}},
		{filepath.Join("a", "b", "file"), []string{"a", "b", "file"}},
		{filepath.Join("a", "b") + string(filepath.Separator), []string{"a", "b"}},
	}
	for _, tt := range tests {
		got := splitAndCleanPath(tt.path)
		if len(got) != len(tt.want) {
			t.Errorf("splitAndCleanPath(%q) = %q, want %q", tt.path, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitAndCleanPath(%q) = %q, want %q", tt.path, got, tt.want)
				break
			}
		}
	}
}

func TestAssemblePathWithSubdirs_Empty(t *testing.T) {
	env := setupTestEnvForOutputPath(t, true, false, "")
	if got := assemblePathWithSubdirs("/output", "", false, env); got != "/output" {
		t.Errorf("assemblePathWithSubdirs() = %q", got)
	}
}
