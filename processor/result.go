package processor

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"epubres/common"
	"epubres/resource"
)

// Result gives access to resources produced by a run.
type Result struct {
	runID      uuid.UUID
	reg        *resource.Registry
	includeNav bool
	limit      int
	bounded    bool
	err        error
}

// RunID identifies the run, ids of later runs sort after earlier ones.
func (r *Result) RunID() uuid.UUID {
	return r.runID
}

// Registry returns underlying registry.
func (r *Result) Registry() *resource.Registry {
	return r.reg
}

// All returns resources of type t, only used ones when usedOnly is set.
func (r *Result) All(t common.ResourceType, usedOnly bool) []resource.Resource {
	return r.reg.All(t, usedOnly)
}

// Get returns resource by canonical key of href.
func (r *Result) Get(t common.ResourceType, href string) resource.Resource {
	return r.reg.Get(t, href)
}

// Find returns resource by key or partial key.
func (r *Result) Find(t common.ResourceType, href string) resource.Resource {
	return r.reg.Find(t, href)
}

func (r *Result) Chapters() []*resource.Chapter {
	return r.reg.Chapters(true)
}

func (r *Result) Images() []*resource.Image {
	return r.reg.Images(true)
}

func (r *Result) Stylesheets() []*resource.Stylesheet {
	return r.reg.Stylesheets(true)
}

// Navigation returns table of contents entries in document order: all of
// them when processor was asked to include navigation, used ones otherwise.
func (r *Result) Navigation() []*resource.NavEntry {
	return r.reg.NavEntries(!r.includeNav)
}

// Budget returns number of characters allowed for rendering, bounded is
// false when book was rendered in full.
func (r *Result) Budget() (limit int, bounded bool) {
	return r.limit, r.bounded
}

// Err returns combined non-fatal errors of the run, resources affected by
// them are not marked used.
func (r *Result) Err() error {
	return r.err
}

func (r *Result) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s", r.runID)
	if r.bounded {
		fmt.Fprintf(&b, " (limit %d)", r.limit)
	}
	b.WriteByte('\n')
	b.WriteString(r.reg.String())
	return b.String()
}
