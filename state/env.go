// Package state carries settings and services of a single program run
// through context.
package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"epubres/config"
)

// ErrOutputExists is returned when results would replace earlier output and
// overwriting was not requested.
var ErrOutputExists = errors.New("output already exists")

type ctxKey struct{}

// LocalEnv is shared by all commands: active configuration, program log and
// optional debug report, plus switches of the sample command.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	NoDirs    bool // results go straight to destination, source tree is not mirrored
	Overwrite bool // earlier results are removed

	started    time.Time
	stdLogUndo func()
}

// ContextWithEnv returns ctx carrying fresh LocalEnv.
func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, &LocalEnv{started: time.Now()})
}

// EnvFromContext panics when ctx was not prepared by ContextWithEnv.
func EnvFromContext(ctx context.Context) *LocalEnv {
	env, ok := ctx.Value(ctxKey{}).(*LocalEnv)
	if !ok {
		panic("program environment is missing from context")
	}
	return env
}

// Logger returns named program log. Before log is configured it discards
// everything.
func (e *LocalEnv) Logger(name string) *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log.Named(name)
}

func (e *LocalEnv) Elapsed() time.Duration {
	return time.Since(e.started)
}

// OutputDir is where results for book src (relative to processed source
// root) go under dst.
func (e *LocalEnv) OutputDir(src, dst string) string {
	if e.NoDirs {
		return dst
	}
	return filepath.Join(dst, filepath.Dir(src))
}

// PrepareOutput makes name available for results: parent directory is
// created and earlier results are removed when Overwrite is set.
func (e *LocalEnv) PrepareOutput(name string) error {
	_, err := os.Stat(name)
	switch {
	case err == nil:
		if !e.Overwrite {
			return fmt.Errorf("%w: %s", ErrOutputExists, name)
		}
		e.Logger("output").Warn("Replacing earlier results", zap.String("output", name))
		return os.RemoveAll(name)
	case !os.IsNotExist(err):
		return err
	}
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	return nil
}

// KeepResult puts registry dump and a snapshot of output produced by the run
// into debug report. Without report it does nothing.
func (e *LocalEnv) KeepResult(run, dump, output string) error {
	if e.Rpt == nil {
		return nil
	}
	e.Rpt.StoreData("registry-"+run+".txt", []byte(dump))
	return e.Rpt.StoreCopy("result-"+run, output)
}

// CaptureStdLog sends output of standard library logger to program log.
func (e *LocalEnv) CaptureStdLog() {
	if e.Log != nil {
		e.stdLogUndo = zap.RedirectStdLog(e.Log)
	}
}

// ReleaseStdLog flushes program log and gives standard logger back.
func (e *LocalEnv) ReleaseStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.stdLogUndo != nil {
		e.stdLogUndo()
		e.stdLogUndo = nil
	}
}
