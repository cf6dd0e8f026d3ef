// Package resource holds typed e-book resources and the registry which
// deduplicates and cross-references them by canonical path.
package resource

import (
	"crypto/sha1"
	"encoding/hex"

	"epubres/common"
	"epubres/utils/paths"
)

// Resource is common contract of every produced artifact.
type Resource interface {
	Type() common.ResourceType
	// Href is location relative to the package document, not normalized.
	Href() string
	IsUsed() bool
	SetUsed(used bool)
	// RelativePath is directory of metadata file resource was declared in,
	// "." for package document itself.
	RelativePath() string
	SetRelativePath(dir string)
	Content() ([]byte, error)
	Filename() string
}

// base carries identity and usage shared by all variants.
type base struct {
	src  string
	dir  string
	used bool
}

func newBase(src string) base {
	return base{src: src, dir: "."}
}

func (b *base) Href() string {
	return paths.Join(b.dir, b.src)
}

func (b *base) IsUsed() bool {
	return b.used
}

func (b *base) SetUsed(used bool) {
	b.used = used
}

func (b *base) RelativePath() string {
	return b.dir
}

func (b *base) SetRelativePath(dir string) {
	b.dir = dir
}

func sha1hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
