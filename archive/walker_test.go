package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

type entry struct {
	name    string
	content string
}

func writeZip(t *testing.T, files []entry) string {
	t.Helper()

	zipPath := filepath.Join(t.TempDir(), "test.zip")
	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	w := zip.NewWriter(zipFile)
	for _, f := range files {
		fw, err := w.Create(f.name)
		if err != nil {
			t.Fatalf("Failed to create file %s in zip: %v", f.name, err)
		}
		if _, err := fw.Write([]byte(f.content)); err != nil {
			t.Fatalf("Failed to write content for %s: %v", f.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to finish zip: %v", err)
	}
	zipFile.Close()
	return zipPath
}

func TestWalk(t *testing.T) {
	zipPath := writeZip(t, []entry{
		{"OEBPS/Text/ch1.xhtml", "one"},
		{"OEBPS/Text/ch2.xhtml", "two"},
		{"OEBPS/Styles/main.css", "p{}"},
		{"META-INF/container.xml", "<container/>"},
		{"mimetype", "application/epub+zip"},
	})

	a, err := Open(zipPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer a.Close()

	tests := []struct {
		pattern string
		want    int
	}{
		{"OEBPS/Text/", 2},
		{"OEBPS/", 3},
		{"nonexistent/", 0},
		{"", 5},
	}
	for _, tt := range tests {
		t.Run("pattern "+tt.pattern, func(t *testing.T) {
			var visited []string
			err := a.Walk(tt.pattern, func(archive string, file *zip.File) error {
				if archive != zipPath {
					t.Errorf("archive = %s, want %s", archive, zipPath)
				}
				visited = append(visited, file.Name)
				return nil
			})
			if err != nil {
				t.Errorf("Walk() error = %v", err)
			}
			if len(visited) != tt.want {
				t.Errorf("visited %d files, want %d", len(visited), tt.want)
			}
		})
	}

	t.Run("walkFn returns error", func(t *testing.T) {
		stopErr := errors.New("stop walking")
		var visited int
		err := a.Walk("", func(string, *zip.File) error {
			visited++
			if visited == 2 {
				return stopErr
			}
			return nil
		})
		if err != stopErr {
			t.Errorf("Walk() error = %v, want %v", err, stopErr)
		}
		if visited != 2 {
			t.Errorf("visited %d files, want 2 (early termination)", visited)
		}
	})
}

func TestFindAndRead(t *testing.T) {
	zipPath := writeZip(t, []entry{
		{"OEBPS/Images/Cover.JPG", "jpeg"},
		{"OEBPS/content.opf", "<package/>"},
	})

	a, err := Open(zipPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer a.Close()

	t.Run("exact", func(t *testing.T) {
		data, err := a.ReadFile("OEBPS/content.opf")
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if string(data) != "<package/>" {
			t.Errorf("content = %q", data)
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		f := a.Find("oebps/images/cover.jpg")
		if f == nil || f.Name != "OEBPS/Images/Cover.JPG" {
			t.Errorf("Find() = %v, want OEBPS/Images/Cover.JPG", f)
		}
	})

	t.Run("leading slash", func(t *testing.T) {
		if a.Find("/OEBPS/content.opf") == nil {
			t.Error("Find() with leading slash returned nil")
		}
	})

	t.Run("missing", func(t *testing.T) {
		_, err := a.ReadFile("OEBPS/missing.xhtml")
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("ReadFile() error = %v, want fs.ErrNotExist", err)
		}
	})
}

func TestNewReader(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("a.txt")
	fw.Write([]byte("content"))
	w.Close()

	a, err := NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()), "memory")
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	if a.Name() != "memory" {
		t.Errorf("Name() = %q, want memory", a.Name())
	}
	if err := a.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	data, err := a.ReadFile("a.txt")
	if err != nil || string(data) != "content" {
		t.Errorf("ReadFile() = %q, %v", data, err)
	}
}

func TestUnsafeEntries(t *testing.T) {
	zipPath := writeZip(t, []entry{
		{"ok.txt", "fine"},
		{"../evil.txt", "bad"},
	})

	a, err := Open(zipPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer a.Close()

	if a.Find("../evil.txt") != nil {
		t.Error("unsafe entry must not be addressable")
	}
	if err := a.Walk("", func(string, *zip.File) error { return nil }); err == nil {
		t.Error("Walk() must fail on unsafe entry")
	}
}

func TestOpen_Invalid(t *testing.T) {
	t.Run("nonexistent file", func(t *testing.T) {
		if _, err := Open("/nonexistent/file.zip"); err == nil {
			t.Error("Expected error for nonexistent file")
		}
	})

	t.Run("invalid zip file", func(t *testing.T) {
		invalid := filepath.Join(t.TempDir(), "invalid.zip")
		if err := os.WriteFile(invalid, []byte("not a zip file"), 0644); err != nil {
			t.Fatalf("Failed to create invalid zip: %v", err)
		}
		if _, err := Open(invalid); err == nil {
			t.Error("Expected error for invalid zip file")
		}
	})
}

func TestIsSafePath(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"OEBPS/content.opf", true},
		{"a/b/../c", false},
		{"/etc/passwd", false},
		{`\windows`, false},
		{"..", false},
		{"a..b/c", true},
	}
	for _, tt := range tests {
		if got := isSafePath(tt.name); got != tt.want {
			t.Errorf("isSafePath(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
