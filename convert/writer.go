package convert

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	fixzip "github.com/hidez8891/zip"
	"go.uber.org/multierr"

	"epubres/config"
	"epubres/misc"
	"epubres/processor"
	"epubres/resource"
)

const indexName = "index.json"

// sink receives produced artifacts. All names are flat.
type sink interface {
	Write(name string, data []byte, compress bool) error
	Close() error
}

func newSink(outputName string, cfg *config.OutputConfig) (sink, error) {
	if cfg.Archive {
		return newZipSink(outputName, cfg.FixZip)
	}
	return newDirSink(outputName)
}

type dirSink struct {
	dir string
}

func newDirSink(dir string) (*dirSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create output directory: %w", err)
	}
	return &dirSink{dir: dir}, nil
}

func (s *dirSink) Write(name string, data []byte, _ bool) error {
	return os.WriteFile(filepath.Join(s.dir, name), data, 0644)
}

func (s *dirSink) Close() error {
	return nil
}

// zipSink builds archive in temporary file and moves it to the target on
// Close.
type zipSink struct {
	target string
	fix    bool
	f      *os.File
	zw     *zip.Writer
}

func newZipSink(target string, fix bool) (*zipSink, error) {
	f, err := os.CreateTemp("", misc.GetAppName()+"-*.zip")
	if err != nil {
		return nil, fmt.Errorf("unable to create temporary archive: %w", err)
	}
	return &zipSink{target: target, fix: fix, f: f, zw: zip.NewWriter(f)}, nil
}

func (s *zipSink) Write(name string, data []byte, compress bool) error {
	method := zip.Store
	if compress {
		method = zip.Deflate
	}
	w, err := s.zw.CreateHeader(&zip.FileHeader{Name: name, Method: method, Modified: time.Now()})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func (s *zipSink) Close() (err error) {
	tmpName := s.f.Name()
	// clean temporary file
	defer func() {
		err = multierr.Append(err, os.Remove(tmpName))
	}()

	// make sure buffers are flushed before continuing
	if err := s.zw.Close(); err != nil {
		s.f.Close()
		return fmt.Errorf("unable to close output archive: %w", err)
	}
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("unable to finalize output file: %w", err)
	}
	if s.fix {
		return copyZipWithoutDataDescriptors(tmpName, s.target)
	}
	return copyFile(tmpName, s.target)
}

func copyZipWithoutDataDescriptors(from, to string) error {

	out, err := os.Create(to)
	if err != nil {
		return fmt.Errorf("unable to create target file (%s): %w", to, err)
	}
	defer out.Close()

	r, err := fixzip.OpenReader(from)
	if err != nil {
		return fmt.Errorf("unable to read archive file (%s): %w", from, err)
	}
	defer r.Close()

	w := fixzip.NewWriter(out)

	for _, file := range r.File {
		// unset data descriptor flag.
		file.Flags &= ^fixzip.FlagDataDescriptor

		// copy zip entry
		if err := w.CopyFile(file); err != nil {
			w.Close()
			return fmt.Errorf("unable to write target file (%s): %w", to, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("unable to write target file (%s): %w", to, err)
	}
	return out.Close()
}

func copyFile(src, dst string) error {

	sourceFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer sourceFile.Close()

	destinationFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer destinationFile.Close()

	if _, err = io.Copy(destinationFile, sourceFile); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	if err = destinationFile.Close(); err != nil {
		return fmt.Errorf("failed to close destination file: %w", err)
	}
	return nil
}

type chapterRecord struct {
	ID     string `json:"id"`
	Href   string `json:"href"`
	Order  int    `json:"order"`
	Linear bool   `json:"linear"`
	File   string `json:"file"`
}

type stylesheetRecord struct {
	Href       string   `json:"href"`
	File       string   `json:"file"`
	Inline     bool     `json:"inline,omitempty"`
	Namespaces []string `json:"namespaces"`
}

type imageRecord struct {
	ID        string `json:"id"`
	Href      string `json:"href"`
	File      string `json:"file"`
	MediaType string `json:"media_type"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Cover     bool   `json:"cover,omitempty"`
}

type index struct {
	RunID       string               `json:"run_id"`
	Source      string               `json:"source"`
	Limit       int                  `json:"limit"`
	Chapters    []chapterRecord      `json:"chapters"`
	Stylesheets []stylesheetRecord   `json:"stylesheets"`
	Images      []imageRecord        `json:"images"`
	Navigation  []resource.NavRecord `json:"navigation"`
	Errors      []string             `json:"errors,omitempty"`
}

// writeArtifacts stores content of every used resource and index describing
// them. Limit in the index is -1 when book was rendered in full.
func writeArtifacts(res *processor.Result, src string, s sink) error {
	idx := index{
		RunID:       res.RunID().String(),
		Source:      filepath.ToSlash(src),
		Limit:       -1,
		Chapters:    []chapterRecord{},
		Stylesheets: []stylesheetRecord{},
		Images:      []imageRecord{},
		Navigation:  []resource.NavRecord{},
	}
	if limit, bounded := res.Budget(); bounded {
		idx.Limit = limit
	}

	write := func(r resource.Resource, compress bool) error {
		data, err := r.Content()
		if err != nil {
			return fmt.Errorf("unable to read %s %s: %w", r.Type(), r.Href(), err)
		}
		if err := s.Write(r.Filename(), data, compress); err != nil {
			return fmt.Errorf("unable to write %s: %w", r.Filename(), err)
		}
		return nil
	}

	for _, ch := range res.Chapters() {
		if err := write(ch, true); err != nil {
			return err
		}
		item := ch.Item()
		idx.Chapters = append(idx.Chapters, chapterRecord{
			ID:     item.ID,
			Href:   ch.Href(),
			Order:  ch.Order(),
			Linear: item.Linear,
			File:   ch.Filename(),
		})
	}
	for _, st := range res.Stylesheets() {
		if err := write(st, true); err != nil {
			return err
		}
		idx.Stylesheets = append(idx.Stylesheets, stylesheetRecord{
			Href:       st.Href(),
			File:       st.Filename(),
			Inline:     st.Inline(),
			Namespaces: st.Namespaces(),
		})
	}
	for _, img := range res.Images() {
		// images are compressed already
		if err := write(img, false); err != nil {
			return err
		}
		w, h := img.Dimensions()
		idx.Images = append(idx.Images, imageRecord{
			ID:        img.ID(),
			Href:      img.Href(),
			File:      img.Filename(),
			MediaType: img.MediaType(),
			Width:     w,
			Height:    h,
			Cover:     img.IsCover(),
		})
	}
	for _, e := range res.Navigation() {
		idx.Navigation = append(idx.Navigation, e.Record())
	}
	for _, err := range multierr.Errors(res.Err()) {
		idx.Errors = append(idx.Errors, err.Error())
	}

	data, err := json.MarshalIndent(&idx, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to prepare %s: %w", indexName, err)
	}
	return s.Write(indexName, data, true)
}
