package resource

import (
	"strings"
	"testing"

	"epubres/common"
	"epubres/epub"
)

func chapter(id, href string, order int) *Chapter {
	return NewChapter(&epub.SpineItem{ManifestItem: item(id, href, "application/xhtml+xml", "<p>x</p>"), Order: order}, nil)
}

func TestRegistry_Collision(t *testing.T) {
	reg := NewRegistry()

	first := NewImage(item("a", "Images/a.png", "image/png", "1"), false)
	other := NewImage(item("b", "Images/b.png", "image/png", "2"), false)
	second := NewImage(item("c", "Text/../Images/./a.png", "image/png", "3"), false)

	if key := reg.Add(first); key != "Images/a.png" {
		t.Errorf("Add() key = %q", key)
	}
	reg.Add(other)
	reg.Add(second)

	if n := reg.Len(common.ResourceTypeImage); n != 2 {
		t.Fatalf("Len() = %d, want 2", n)
	}
	if got := reg.Get(common.ResourceTypeImage, "Images/a.png"); got != second {
		t.Errorf("Get() = %v, want later resource", got)
	}
	all := reg.All(common.ResourceTypeImage, false)
	if all[0] != second || all[1] != other {
		t.Error("replaced resource must keep its position")
	}
}

func TestRegistry_Lookup(t *testing.T) {
	reg := NewRegistry()
	ch1 := chapter("ch1", "Text/ch1.xhtml", 0)
	ch2 := chapter("ch2", "Text/ch2.xhtml", 1)
	kr := chapter("kr", "Text/%EB%8F%84%EC%84%9C.xhtml", 2)
	reg.Add(ch1)
	reg.Add(ch2)
	reg.Add(kr)

	tests := []struct {
		name string
		href string
		want Resource
	}{
		{"exact", "Text/ch2.xhtml", ch2},
		{"dot segments", "./Text/../Text/ch1.xhtml", ch1},
		{"substring", "ch2.xhtml", ch2},
		{"first substring match", "Text", ch1},
		{"decoded href", "Text/도서.xhtml", kr},
		{"empty", "", nil},
		{"missing", "Text/ch9.xhtml", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reg.Find(common.ResourceTypeChapter, tt.href)
			if tt.want == nil {
				if got != nil {
					t.Errorf("Find(%q) = %v, want nil", tt.href, got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Find(%q) = %v, want %v", tt.href, got, tt.want)
			}
		})
	}

	if got := reg.Get(common.ResourceTypeChapter, "ch1.xhtml"); got != nil {
		t.Error("Get() must not match substrings")
	}
	if got := reg.FindAll(common.ResourceTypeChapter, "Text/ch"); len(got) != 2 {
		t.Errorf("FindAll() returned %d resources, want 2", len(got))
	}
	if got := reg.FindAll(common.ResourceTypeChapter, ""); got != nil {
		t.Errorf("FindAll(\"\") = %v, want nil", got)
	}
	if got := reg.Find(common.ResourceTypeImage, "Text/ch1.xhtml"); got != nil {
		t.Error("Find() must not cross resource types")
	}
}

func TestRegistry_UsedOnly(t *testing.T) {
	reg := NewRegistry()
	ch1, ch2 := chapter("ch1", "Text/ch1.xhtml", 0), chapter("ch2", "Text/ch2.xhtml", 1)
	ch1.SetValid(true)
	ch1.SetUsed(true)
	ch2.SetUsed(true)
	reg.Add(ch1)
	reg.Add(ch2)

	if got := reg.All(common.ResourceTypeChapter, true); len(got) != 1 || got[0] != ch1 {
		t.Errorf("All(used) = %v", got)
	}
	if got := reg.Chapters(false); len(got) != 2 {
		t.Errorf("Chapters() = %d, want 2", len(got))
	}
	if got := reg.Keys(common.ResourceTypeChapter, true); len(got) != 1 || got[0] != "Text/ch1.xhtml" {
		t.Errorf("Keys(used) = %v", got)
	}
	if got := reg.All(common.ResourceTypeNavigationEntry, false); len(got) != 0 {
		t.Errorf("All() for empty type = %v", got)
	}
	if got := reg.Images(true); len(got) != 0 {
		t.Errorf("Images() = %v", got)
	}
	if reg.Get(common.ResourceType(42), "x") != nil || reg.Len(common.ResourceType(42)) != 0 {
		t.Error("unknown type must be empty")
	}
}

func TestRegistry_String(t *testing.T) {
	reg := NewRegistry()
	img := NewImage(item("cover", "Images/cover.png", "image/png", ""), true)
	img.SetUsed(true)
	reg.Add(img)
	reg.Add(chapter("ch10", "Text/ch10.xhtml", 1))
	reg.Add(chapter("ch2", "Text/ch2.xhtml", 0))

	out := reg.String()
	for _, want := range []string{"image: 1", "[cover used]", "chapter: 2", `"Images/cover.png"`} {
		if !strings.Contains(out, want) {
			t.Errorf("String() missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "ch2.xhtml") > strings.Index(out, "ch10.xhtml") {
		t.Errorf("keys are not in natural order:\n%s", out)
	}
	var nilReg *Registry
	if nilReg.String() != "<nil Registry>" {
		t.Error("nil registry dump")
	}
}
