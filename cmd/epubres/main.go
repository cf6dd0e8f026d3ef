package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"epubres/config"
	"epubres/convert"
	"epubres/misc"
	"epubres/state"
)

// set once error went to program log, so main does not repeat it on stderr
var errLogged bool

// setup runs after command line is parsed: loads configuration, opens debug
// report and starts logging.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.NArg() == 0 {
		// help or version only
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)
	cfgName := cmd.String("config")

	var err error
	if env.Cfg, err = config.LoadConfiguration(cfgName); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug report: %w", err)
		}
		if len(cfgName) > 0 {
			if data, err := config.Dump(env.Cfg); err == nil {
				env.Rpt.StoreData("config/"+filepath.Base(cfgName), data)
			}
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.CaptureStdLog()

	env.Log.Debug("Started",
		zap.Strings("args", os.Args),
		zap.String("version", misc.GetVersion()),
		zap.String("git", misc.GetGitHash()),
		zap.String("go", runtime.Version()))
	switch {
	case env.Rpt != nil:
		env.Log.Info("Debug report requested", zap.String("report", env.Rpt.Name()))
	case len(cfgName) == 0:
		env.Log.Info("No configuration file, using defaults")
	}
	return ctx, nil
}

// teardown flushes log, finalizes debug report and drops empty crash log.
// After log is released errors can only be returned.
func teardown(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	env.Logger("").Debug("Finished", zap.Duration("elapsed", env.Elapsed()), zap.Strings("args", cmd.Args().Slice()))
	env.ReleaseStdLog()

	var err error
	if cerr := env.Rpt.Close(); cerr != nil {
		err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", cerr))
	}
	if env.Cfg != nil && len(env.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		err = multierr.Append(err, dropEmptyFile(env.Cfg.Logging.PanicLogName()))
	}
	return err
}

func dropEmptyFile(name string) error {
	fi, err := os.Stat(name)
	if err != nil || fi.Size() > 0 {
		return nil
	}
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("unable to remove empty crash log %q: %w", name, err)
	}
	return nil
}

func logError(ctx context.Context, _ *cli.Command, err error) {
	if log := state.EnvFromContext(ctx).Log; log != nil {
		log.Error("Unable to complete", zap.Error(err))
		errLogged = true
	}
}

func usageError(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func unknownCommand(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Logger("").Warn("Unknown command", zap.String("command", name))
}

const sampleHelp = `%s
SOURCE:
    what to sample, one of
        single book:                  "[dir/]book.epub"
        directory tree:               "[dir/]books" - every .epub and .zip under it, symbolic links are not followed
        book inside of zip archive:   "[dir/]books.zip/[path/]book.epub"
        part of zip archive:          "[dir/]books.zip[/path]" - every .epub under that path

    Archives inside of archives are not opened.

DESTINATION:
    directory to put results into, current directory when absent. Every book
    produces a directory (or zip archive when output.archive is set) with
    index.json, chapters, stylesheets and images.
`

const dumpConfigHelp = `%s

DESTINATION:
    file to write configuration to, STDOUT when absent

Active configuration is the embedded defaults merged with the configuration
file given by --config. Use --default to see defaults alone.
`

func sampleCommand() *cli.Command {
	return &cli.Command{
		Name:         "sample",
		Usage:        "Extracts web ready resources from ePub books",
		ArgsUsage:    "SOURCE [DESTINATION]",
		OnUsageError: usageError,
		Action:       convert.Run,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "nodirs", Aliases: []string{"nd"}, Usage: "put results directly into destination, do not mirror source directories"},
			&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "replace results of earlier runs"},
		},
		CustomHelpTemplate: fmt.Sprintf(sampleHelp, cli.CommandHelpTemplate),
	}
}

func dumpConfigCommand() *cli.Command {
	return &cli.Command{
		Name:         "dumpconfig",
		Usage:        "Writes active or default configuration (YAML)",
		ArgsUsage:    "[DESTINATION]",
		OnUsageError: usageError,
		Action:       dumpConfig,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "default", Usage: "write embedded defaults"},
		},
		CustomHelpTemplate: fmt.Sprintf(dumpConfigHelp, cli.CommandHelpTemplate),
	}
}

func dumpConfig(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Logger("dumpconfig")
	if cmd.Args().Len() > 1 {
		log.Warn("Extra arguments ignored", zap.Strings("args", cmd.Args().Slice()[1:]))
	}

	var (
		kind = "active"
		data []byte
		err  error
	)
	if cmd.Bool("default") {
		kind = "default"
		data, err = config.Prepare()
	} else {
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get %s configuration: %w", kind, err)
	}

	var out io.Writer = os.Stdout
	name := cmd.Args().Get(0)
	if len(name) == 0 {
		name = "STDOUT"
	} else {
		f, err := os.Create(name)
		if err != nil {
			return fmt.Errorf("unable to create %q: %w", name, err)
		}
		defer f.Close()
		out = f
	}
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	log.Info("Configuration written", zap.String("kind", kind), zap.String("to", name))
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "prepares ePub books for web reading: sanitized chapters, scoped stylesheets and images",
		Version:         fmt.Sprintf("%s (%s) : %s", misc.GetVersion(), runtime.Version(), misc.GetGitHash()),
		HideHelpCommand: true,
		Before:          setup,
		After:           teardown,
		OnUsageError:    usageError,
		ExitErrHandler:  logError,
		CommandNotFound: unknownCommand,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "raise log level and collect debug report archive"},
		},
		Commands: []*cli.Command{sampleCommand(), dumpConfigCommand()},
	}

	err := app.Run(ctx, os.Args)
	stop()
	if err == nil {
		return
	}
	if !errLogged {
		fmt.Fprintf(os.Stderr, "%s: %v\n", misc.GetAppName(), err)
	}
	os.Exit(1)
}
