// Package debug renders indented trees for registry dumps and debug reports.
package debug

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// TreeWriter accumulates indented lines, two spaces per level.
type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// Text writes labeled value quoted, so control characters and trailing
// spaces stay visible.
func (tw TreeWriter) Text(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// Flags writes names of set flags in sorted order, nothing when none is set.
func (tw TreeWriter) Flags(depth int, flags map[string]bool) {
	var set []string
	for _, name := range slices.Sorted(maps.Keys(flags)) {
		if flags[name] {
			set = append(set, name)
		}
	}
	if len(set) == 0 {
		return
	}
	tw.indent(depth)
	tw.w.WriteString("[" + strings.Join(set, " ") + "]")
	tw.w.WriteByte('\n')
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
