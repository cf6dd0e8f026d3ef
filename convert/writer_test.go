package convert

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "book")
	s, err := newDirSink(dir)
	if err != nil {
		t.Fatalf("newDirSink() error = %v", err)
	}
	if err := s.Write("a.json", []byte("{}"), true); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "a.json"))
	if err != nil || string(data) != "{}" {
		t.Errorf("a.json = %q, %v", data, err)
	}
}

func TestZipSink(t *testing.T) {
	for _, fix := range []bool{false, true} {
		name := "plain"
		if fix {
			name = "fixed"
		}
		t.Run(name, func(t *testing.T) {
			target := filepath.Join(t.TempDir(), "book.zip")
			s, err := newZipSink(target, fix)
			if err != nil {
				t.Fatalf("newZipSink() error = %v", err)
			}
			tmp := s.f.Name()
			if err := s.Write("index.json", []byte(`{"run_id":"x"}`), true); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if err := s.Write("image.png", []byte("png"), false); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if err := s.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}
			if _, err := os.Stat(tmp); !os.IsNotExist(err) {
				t.Errorf("temporary archive %s was not removed", tmp)
			}

			files := readZip(t, target)
			if len(files) != 2 {
				t.Fatalf("archive has %d entries, want 2", len(files))
			}
			if got := string(readZipEntry(t, files["index.json"])); got != `{"run_id":"x"}` {
				t.Errorf("index.json = %q", got)
			}
			if got := string(readZipEntry(t, files["image.png"])); got != "png" {
				t.Errorf("image.png = %q", got)
			}
			if fix {
				for name, f := range files {
					if f.Flags&0x8 != 0 {
						t.Errorf("%s has data descriptor", name)
					}
				}
			}
		})
	}
}

func TestNewSink(t *testing.T) {
	_, env := setupTestEnv(t)
	dir := t.TempDir()

	s, err := newSink(filepath.Join(dir, "book"), &env.Cfg.Output)
	if err != nil {
		t.Fatalf("newSink() error = %v", err)
	}
	if _, ok := s.(*dirSink); !ok {
		t.Errorf("newSink() = %T, want directory", s)
	}

	env.Cfg.Output.Archive = true
	s, err = newSink(filepath.Join(dir, "book.zip"), &env.Cfg.Output)
	if err != nil {
		t.Fatalf("newSink() error = %v", err)
	}
	zs, ok := s.(*zipSink)
	if !ok {
		t.Fatalf("newSink() = %T, want archive", s)
	}
	if err := zs.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
