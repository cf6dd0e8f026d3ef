package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/google/uuid"

	"epubres/config"
)

// metadata is the part of the loaded book output naming depends on.
type metadata interface {
	Meta(name string) (string, bool)
}

// bookInfo is what we know about the book when naming output.
type bookInfo struct {
	srcName string
	meta    metadata
	runID   uuid.UUID
	archive bool
}

func (b bookInfo) get(name string) string {
	if b.meta == nil {
		return ""
	}
	v, _ := b.meta.Meta(name)
	return v
}

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	Title      string
	Language   string
	Date       string
	Authors    []string
	Publisher  string
	Format     string
	SourceFile string
	BookID     string
	RunID      string
}

func buildAuthors(creator string) []string {
	result := make([]string, 0, 1)
	for a := range strings.SplitSeq(creator, "&") {
		if a = strings.TrimSpace(a); len(a) > 0 {
			result = append(result, a)
		}
	}
	return result
}

func expandTemplate(b bookInfo, name config.TemplateFieldName, field string) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	format := "dir"
	if b.archive {
		format = "zip"
	}
	values := Values{
		Context:    string(name),
		Title:      b.get("title"),
		Language:   b.get("language"),
		Date:       b.get("date"),
		Authors:    buildAuthors(b.get("creator")),
		Publisher:  b.get("publisher"),
		Format:     format,
		SourceFile: strings.TrimSuffix(filepath.Base(b.srcName), filepath.Ext(b.srcName)),
		BookID:     b.get("identifier"),
		RunID:      b.runID.String(),
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
