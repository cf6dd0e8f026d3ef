package resource

import (
	"slices"
	"sort"

	"github.com/maruel/natural"

	"epubres/common"
	"epubres/utils/debug"
)

// String returns a readable dump of the registry. It exists solely for
// manual inspection and debug reports.
func (reg *Registry) String() string {
	if reg == nil {
		return "<nil Registry>"
	}

	tw := debug.NewTreeWriter()
	for _, t := range common.ResourceTypeValues() {
		b, ok := reg.buckets[t]
		if !ok {
			continue
		}
		tw.Line(0, "%s: %d", t, len(b.keys))

		keys := slices.Clone(b.keys)
		sort.Sort(natural.StringSlice(keys))
		for _, k := range keys {
			r := b.items[k]
			tw.Line(1, "%q", k)
			tw.Flags(2, map[string]bool{"used": r.IsUsed(), "cover": isCover(r), "inline": isInline(r)})
			if fn := r.Filename(); len(fn) > 0 {
				tw.Text(2, "filename", fn)
			}
			switch v := r.(type) {
			case *Stylesheet:
				for _, ns := range v.Namespaces() {
					tw.Text(2, "namespace", ns)
				}
			case *Chapter:
				tw.Line(2, "order[%d] valid[%t] length[%d]", v.Order(), v.IsValid(), v.length)
			case *NavEntry:
				tw.Line(2, "order[%d] depth[%d] position[%d] valid[%t]", v.Order(), v.Depth(), v.Position(), v.IsValid())
				tw.Text(2, "title", v.Title())
			}
		}
	}
	return tw.String()
}

func isCover(r Resource) bool {
	img, ok := r.(*Image)
	return ok && img.IsCover()
}

func isInline(r Resource) bool {
	s, ok := r.(*Stylesheet)
	return ok && s.Inline()
}
