package resource

import (
	"strings"

	"epubres/common"
	"epubres/utils/paths"
)

type bucket struct {
	keys  []string
	items map[string]Resource
}

// Registry stores resources by type and canonical path of their href,
// insertion order is preserved per type. Registry is not safe for
// concurrent use.
type Registry struct {
	buckets map[common.ResourceType]*bucket
}

func NewRegistry() *Registry {
	return &Registry{buckets: make(map[common.ResourceType]*bucket)}
}

// Key returns canonical registry key of the resource.
func Key(r Resource) string {
	return paths.Normalize(r.Href())
}

// Add stores resource under its canonical key. Resource with the same type
// and key is replaced keeping original position. Returns the key.
func (reg *Registry) Add(r Resource) string {
	b, ok := reg.buckets[r.Type()]
	if !ok {
		b = &bucket{items: make(map[string]Resource)}
		reg.buckets[r.Type()] = b
	}
	key := Key(r)
	if _, exists := b.items[key]; !exists {
		b.keys = append(b.keys, key)
	}
	b.items[key] = r
	return key
}

// Len returns number of resources of type t.
func (reg *Registry) Len(t common.ResourceType) int {
	if b, ok := reg.buckets[t]; ok {
		return len(b.keys)
	}
	return 0
}

// Keys returns canonical keys of type t in insertion order.
func (reg *Registry) Keys(t common.ResourceType, usedOnly bool) []string {
	b, ok := reg.buckets[t]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(b.keys))
	for _, k := range b.keys {
		if !usedOnly || b.items[k].IsUsed() {
			keys = append(keys, k)
		}
	}
	return keys
}

// All returns resources of type t in insertion order, only used ones when
// usedOnly is set.
func (reg *Registry) All(t common.ResourceType, usedOnly bool) []Resource {
	b, ok := reg.buckets[t]
	if !ok {
		return nil
	}
	res := make([]Resource, 0, len(b.keys))
	for _, k := range b.keys {
		if r := b.items[k]; !usedOnly || r.IsUsed() {
			res = append(res, r)
		}
	}
	return res
}

// Get returns resource by exact canonical key of href, nil when not found.
func (reg *Registry) Get(t common.ResourceType, href string) Resource {
	b, ok := reg.buckets[t]
	if !ok {
		return nil
	}
	return b.items[paths.Normalize(href)]
}

// Find returns resource by exact key or the first one whose key contains
// canonical href. Empty href never matches.
func (reg *Registry) Find(t common.ResourceType, href string) Resource {
	key := paths.Normalize(href)
	if len(key) == 0 {
		return nil
	}
	b, ok := reg.buckets[t]
	if !ok {
		return nil
	}
	if r, ok := b.items[key]; ok {
		return r
	}
	for _, k := range b.keys {
		if strings.Contains(k, key) {
			return b.items[k]
		}
	}
	return nil
}

// FindAll returns every resource whose key contains canonical href.
func (reg *Registry) FindAll(t common.ResourceType, href string) []Resource {
	key := paths.Normalize(href)
	b, ok := reg.buckets[t]
	if !ok || len(key) == 0 {
		return nil
	}
	var res []Resource
	for _, k := range b.keys {
		if strings.Contains(k, key) {
			res = append(res, b.items[k])
		}
	}
	return res
}

func typed[T Resource](reg *Registry, t common.ResourceType, usedOnly bool) []T {
	all := reg.All(t, usedOnly)
	res := make([]T, 0, len(all))
	for _, r := range all {
		if v, ok := r.(T); ok {
			res = append(res, v)
		}
	}
	return res
}

func (reg *Registry) Images(usedOnly bool) []*Image {
	return typed[*Image](reg, common.ResourceTypeImage, usedOnly)
}

func (reg *Registry) Stylesheets(usedOnly bool) []*Stylesheet {
	return typed[*Stylesheet](reg, common.ResourceTypeStylesheet, usedOnly)
}

func (reg *Registry) Chapters(usedOnly bool) []*Chapter {
	return typed[*Chapter](reg, common.ResourceTypeChapter, usedOnly)
}

func (reg *Registry) NavEntries(usedOnly bool) []*NavEntry {
	return typed[*NavEntry](reg, common.ResourceTypeNavigationEntry, usedOnly)
}
