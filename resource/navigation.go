package resource

import (
	"encoding/json"

	"epubres/common"
	"epubres/epub"
)

// NavRecord is serialized form of navigation entry.
type NavRecord struct {
	Title    string `json:"title"`
	Src      string `json:"src"`
	Position int    `json:"position"`
	Depth    int    `json:"depth"`
	Order    int    `json:"order"`
	IsUsed   bool   `json:"is_used"`
	IsValid  bool   `json:"is_valid"`
}

// NavEntry is a single flattened table of contents node.
type NavEntry struct {
	base
	title    string
	position int
	depth    int
	order    int
	valid    bool
}

// NewNavEntry creates entry for navigation point found at depth. Point
// source is relative to navigation document directory dir.
func NewNavEntry(p epub.NavPoint, depth int, dir string) *NavEntry {
	e := &NavEntry{base: newBase(p.Src), title: p.Title, position: p.Position, depth: depth}
	e.SetRelativePath(dir)
	return e
}

func (e *NavEntry) Type() common.ResourceType {
	return common.ResourceTypeNavigationEntry
}

func (e *NavEntry) Title() string {
	return e.title
}

// Src is target as written in navigation document.
func (e *NavEntry) Src() string {
	return e.src
}

func (e *NavEntry) Position() int {
	return e.position
}

func (e *NavEntry) Depth() int {
	return e.depth
}

// Order is reading order of the target chapter.
func (e *NavEntry) Order() int {
	return e.order
}

func (e *NavEntry) SetOrder(order int) {
	e.order = order
}

func (e *NavEntry) IsValid() bool {
	return e.valid
}

func (e *NavEntry) SetValid(valid bool) {
	e.valid = valid
}

// IsUsed is true only for entries pointing to valid content.
func (e *NavEntry) IsUsed() bool {
	return e.valid && e.used
}

func (e *NavEntry) Record() NavRecord {
	return NavRecord{
		Title:    e.title,
		Src:      e.src,
		Position: e.position,
		Depth:    e.depth,
		Order:    e.order,
		IsUsed:   e.IsUsed(),
		IsValid:  e.valid,
	}
}

func (e *NavEntry) Content() ([]byte, error) {
	return json.Marshal(e.Record())
}

// Filename is empty, entries are not stored separately.
func (e *NavEntry) Filename() string {
	return ""
}
