package convert

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"epubres/config"
)

func sampleInfo() bookInfo {
	return bookInfo{
		srcName: "shelf/sample.epub",
		meta: fakeMeta{
			"title":      "My Great Book",
			"creator":    "Jane Roe & John Doe",
			"language":   "en",
			"date":       "2020-01-02",
			"identifier": "urn:isbn:123",
			"publisher":  "House",
		},
		runID: uuid.MustParse("01890a5d-ac96-774b-bcce-b302099a8057"),
	}
}

func TestExpandTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"simple text", "simple-text", "simple-text"},
		{"title", "{{ .Title }}", "My Great Book"},
		{"authors", `{{ join ", " .Authors }}`, "Jane Roe, John Doe"},
		{"first author", "{{ index .Authors 0 }} - {{ .Title }}", "Jane Roe - My Great Book"},
		{"language and date", "{{ .Language }}/{{ .Date }}", "en/2020-01-02"},
		{"source file", "{{ .SourceFile }}", "sample"},
		{"book id", "{{ .BookID | replace \":\" \"_\" }}", "urn_isbn_123"},
		{"run id", "{{ .RunID }}", "01890a5d-ac96-774b-bcce-b302099a8057"},
		{"context and format", "{{ .Context }}.{{ .Format }}", "output_name_template.dir"},
		{"publisher", "{{ .Publisher | upper }}", "HOUSE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandTemplate(sampleInfo(), config.OutputNameTemplateFieldName, tt.template)
			if err != nil {
				t.Fatalf("expandTemplate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandTemplate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpandTemplate_Errors(t *testing.T) {
	_, err := expandTemplate(sampleInfo(), config.OutputNameTemplateFieldName, "{{ .Title ")
	if err == nil || !strings.Contains(err.Error(), "unable to parse template field output_name_template") {
		t.Errorf("expandTemplate() error = %v", err)
	}
	if _, err := expandTemplate(sampleInfo(), config.OutputNameTemplateFieldName, "{{ .Series }}"); err == nil {
		t.Error("expandTemplate() succeeded for unknown value")
	}
}

func TestExpandTemplate_NoMetadata(t *testing.T) {
	b := bookInfo{srcName: "book.epub", archive: true}
	got, err := expandTemplate(b, config.OutputNameTemplateFieldName, "{{ .Title }}|{{ len .Authors }}|{{ .SourceFile }}|{{ .Format }}")
	if err != nil {
		t.Fatalf("expandTemplate() error = %v", err)
	}
	if got != "|0|book|zip" {
		t.Errorf("expandTemplate() = %q", got)
	}
}

func TestBuildAuthors(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Jane Roe", "Jane Roe"},
		{" Jane Roe &  John Doe ", "Jane Roe|John Doe"},
		{"A & & B", "A|B"},
	}
	for _, tt := range tests {
		if got := strings.Join(buildAuthors(tt.in), "|"); got != tt.want {
			t.Errorf("buildAuthors(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
