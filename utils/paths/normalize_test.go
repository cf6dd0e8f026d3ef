package paths

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"parent", "a/b/../c", "a/c"},
		{"dots", "./a/./b", "a/b"},
		{"leading slashes", "//a//b/", "a/b"},
		{"parent above root", "../../a", "a"},
		{"zero segment kept", "a/0/b", "a/0/b"},
		{"relative to text", "./Text/../Images/cover.png", "Images/cover.png"},
		{"encoded unchanged", "Images/%EB%8F%84%EC%84%9C+%EC%9D%B4%EB%AF%B8%EC%A7%80.jpg", "Images/%EB%8F%84%EC%84%9C+%EC%9D%B4%EB%AF%B8%EC%A7%80.jpg"},
		{"raw unicode", "Images/도서 이미지.jpg", "Images/%EB%8F%84%EC%84%9C+%EC%9D%B4%EB%AF%B8%EC%A7%80.jpg"},
		{"space escaped as percent", "a%20b.css", "a+b.css"},
		{"malformed escape", "a%zz.png", "a%25zz.png"},
		{"escaped parent", "a/b/%2e%2e/c", "a/c"},
		{"escaped parent at end", "a/%2E%2E", ""},
		{"escaped current", "x/%2E/y", "x/y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"", ".", "..", "a/b/../c", "OEBPS/Text/../Images/x y.png",
		"a%zz", "a+b", "%41%42", "Images/도서 이미지.jpg", "x/./y/../../z",
		"a/%2E%2E", "a/b/%2e%2e/c", "x/%2E/y", "%2e%2E/a",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestDir(t *testing.T) {
	tests := map[string]string{
		"a/b/c.xhtml":   "a/b",
		"c.xhtml":       ".",
		"./Text/x.html": "./Text",
		"/x":            "/",
		"":              ".",
	}
	for in, want := range tests {
		if got := Dir(in); got != want {
			t.Errorf("Dir(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStripFragment(t *testing.T) {
	if got := StripFragment("Text/ch1.xhtml#p3"); got != "Text/ch1.xhtml" {
		t.Errorf("StripFragment() = %q", got)
	}
	if got := StripFragment("Text/ch1.xhtml"); got != "Text/ch1.xhtml" {
		t.Errorf("StripFragment() = %q", got)
	}
	if got := StripFragment("#top"); got != "" {
		t.Errorf("StripFragment() = %q", got)
	}
}

func TestJoin(t *testing.T) {
	if got := Join(".", "a.png"); got != "./a.png" {
		t.Errorf("Join() = %q", got)
	}
	if got := Join("", "a.png"); got != "a.png" {
		t.Errorf("Join() = %q", got)
	}
}
