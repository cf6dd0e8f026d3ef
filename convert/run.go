// Package convert drives sampling of ePub books found at the source path
// and stores produced artifacts.
package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/h2non/filetype"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"epubres/archive"
	"epubres/epub"
	"epubres/processor"
	"epubres/state"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Logger("sample")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	// validate processing settings once, before looking at books
	if _, err := processorOptions(&env.Cfg.Processing); err != nil {
		return err
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// process determines the input type (directory, archive with books, or
// single book) and processes accordingly. Path may continue inside of the
// archive.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, dst, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		book, arc, err := detectFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if book && len(tail) == 0 {
			// book cannot have tail
			if err := processBookFile(ctx, head, filepath.Base(head), dst, log); err != nil {
				log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
			}
			break
		}
		if arc {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := processArchive(ctx, head, filepath.ToSlash(tail), "", dst, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}
		return fmt.Errorf("input was not recognized as ePub book (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir walks directory tree finding books and archives with books and
// processes them.
func processDir(ctx context.Context, dir, dst string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		book, arc, err := detectFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		switch {
		case book:
			count++
			if err := processBookFile(ctx, path, rel, dst, log); err != nil {
				log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			}
		case arc:
			count++
			if err := processArchive(ctx, path, "", filepath.Dir(rel), dst, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
		default:
			log.Debug("Skipping file, not recognized as book or archive", zap.String("file", path))
		}
		return nil
	})
	return err
}

// processArchive walks all files inside archive, finds books under "pathIn"
// and processes them. Books are loaded into memory.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, log *zap.Logger) (err error) {
	arc, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer arc.Close()

	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	return arc.Walk(pathIn, func(name string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !isBookName(f.Name) {
			log.Debug("Skipping file, not recognized as book", zap.String("archive", name), zap.String("file", f.Name))
			return nil
		}

		count++

		data, err := readEntry(f)
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", name), zap.String("file", f.Name), zap.Error(err))
			return nil
		}
		book, err := epub.NewReader(bytes.NewReader(data), int64(len(data)), f.Name, log)
		if err == nil {
			err = processBook(ctx, book, filepath.Join(pathOut, filepath.FromSlash(f.Name)), dst, log)
			book.Close()
		}
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", name), zap.String("file", f.Name), zap.Error(err))
		}
		return nil
	})
}

func readEntry(f *zip.File) ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func isBookName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".epub")
}

// detectFile checks file name and content. Stored books are recognized by
// content, everything else by extension.
func detectFile(path string) (book, arc bool, err error) {
	kind, err := filetype.MatchFile(path)
	if err != nil {
		return false, false, err
	}
	switch {
	case kind.Extension == "epub":
		return true, false, nil
	case kind.Extension == "zip" && isBookName(path):
		return true, false, nil
	case kind.Extension == "zip":
		return false, true, nil
	}
	return false, false, nil
}

func processBookFile(ctx context.Context, path, src, dst string, log *zap.Logger) error {
	book, err := epub.Open(path, log)
	if err != nil {
		return err
	}
	defer book.Close()
	return processBook(ctx, book, src, dst, log)
}

// processBook samples single book. "src" is part of the source path (always
// including file name) relative to the original path. When actual file was
// specified it will be just base file name without a path. When looking
// inside archive or directory it will be relative path inside archive or
// directory (including base file name). "dst" is the destination directory
// where artifacts should be written.
func processBook(ctx context.Context, book *epub.Book, src, dst string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var outputName string

	log.Info("Sampling starting", zap.String("from", src))
	defer func(start time.Time) {
		// if multiple books are being processed we do not want to stop
		if r := recover(); r != nil {
			log.Error("Sampling ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("sampling panic: %v", r)
		} else if rerr == nil {
			log.Info("Sampling completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName))
		}
	}(time.Now())

	for _, w := range book.Warnings() {
		log.Debug("Book problem", zap.String("from", src), zap.String("problem", w))
	}

	opts, err := processorOptions(&env.Cfg.Processing)
	if err != nil {
		return err
	}
	p, err := processor.New(book, log, opts...)
	if err != nil {
		return err
	}
	res, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("unable to process book (%s): %w", src, err)
	}
	if err := res.Err(); err != nil {
		log.Warn("Some of the book resources were skipped", zap.String("from", src), zap.Error(err))
	}

	b := bookInfo{srcName: src, meta: book, runID: res.RunID(), archive: env.Cfg.Output.Archive}
	outputName = buildOutputPath(b, src, dst, env)

	if err := env.PrepareOutput(outputName); err != nil {
		return err
	}

	s, err := newSink(outputName, &env.Cfg.Output)
	if err != nil {
		return err
	}
	if err := writeArtifacts(res, src, s); err != nil {
		s.Close()
		return fmt.Errorf("unable to write artifacts: %w", err)
	}
	if err := s.Close(); err != nil {
		return fmt.Errorf("unable to write artifacts: %w", err)
	}

	log.Debug("Artifacts written", zap.Stringer("run", res.RunID()),
		zap.Int("chapters", len(res.Chapters())),
		zap.Int("stylesheets", len(res.Stylesheets())),
		zap.Int("images", len(res.Images())),
		zap.Int("navigation", len(res.Navigation())))

	if err := env.KeepResult(res.RunID().String(), res.String(), outputName); err != nil {
		log.Warn("Unable to store result in report", zap.Error(err))
	}
	return nil
}
