// Command ucg is a parallel source-code search tool: it walks a directory
// tree, classifies files by type, and reports lines matching a pattern.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	gitignore "github.com/denormal/go-gitignore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ravelsoft/ucg/fileid"
	"github.com/ravelsoft/ucg/filetype"
	"github.com/ravelsoft/ucg/internal/argrewrite"
	"github.com/ravelsoft/ucg/internal/cliutil"
	"github.com/ravelsoft/ucg/internal/present"
	"github.com/ravelsoft/ucg/internal/rcfile"
	"github.com/ravelsoft/ucg/internal/watchrun"
	"github.com/ravelsoft/ucg/match"
	"github.com/ravelsoft/ucg/queue"
	"github.com/ravelsoft/ucg/regexeng"
	"github.com/ravelsoft/ucg/scanner"
	"github.com/ravelsoft/ucg/traverse"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args))
}

func run(argv []string) int {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ucg: cannot determine working directory: %v\n", err)
		return cliutil.ExitGeneralError
	}

	rcArgs, err := rcfile.Load(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ucg: reading rc files: %v\n", err)
		return cliutil.ExitConfigInvalid
	}

	reg := filetype.NewRegistry()
	if err := filetype.PopulateDefaults(reg); err != nil {
		fmt.Fprintf(os.Stderr, "ucg: registering default file types: %v\n", err)
		return cliutil.ExitConfigInvalid
	}

	// §6: user rc args, project rc args, then the real command line from
	// position 1 onward (argv[0] is left out; the flag parser never sees it).
	combined := append(append([]string{}, rcArgs...), argv[1:]...)

	residual, toggles, err := argrewrite.Rewrite(combined, reg, cliutil.KnownLongFlags())
	if err != nil {
		fmt.Fprintf(os.Stderr, "ucg: %v\n", err)
		return cliutil.ExitConfigInvalid
	}

	fs, cfg := cliutil.NewFlagSet("ucg")
	if err := cliutil.Parse(fs, cfg, residual); err != nil {
		if cfg.ShowHelp {
			cliutil.PrintUsage(os.Stdout, fs)
			return cliutil.ExitMatchFound
		}
		fmt.Fprintf(os.Stderr, "ucg: %v\n", err)
		cliutil.PrintUsage(os.Stderr, fs)
		return cliutil.ExitUsageError
	}
	if cfg.ShowVersion {
		cliutil.PrintVersion(os.Stdout, version)
		return cliutil.ExitMatchFound
	}
	if cfg.ShowHelp {
		cliutil.PrintUsage(os.Stdout, fs)
		return cliutil.ExitMatchFound
	}

	argrewrite.Apply(reg, toggles)
	if err := applyTypeConfig(reg, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "ucg: %v\n", err)
		return cliutil.ExitConfigInvalid
	}
	attachGitignore(reg, cwd)

	logger := setupLogger(cfg.LogLevel, cfg.LogFile)

	ignoreCase := cliutil.ResolveIgnoreCase(cfg.Pattern, cfg.IgnoreCase, cfg.IgnoreCaseSet, cfg.NoSmartCase)
	eng, err := regexeng.Compile(cfg.Pattern, regexeng.Options{
		IgnoreCase: ignoreCase,
		Literal:    cfg.Literal,
		WordRegexp: cfg.WordRegexp,
	})
	if err != nil {
		logger.Error("pattern compile failed", "error", err)
		fmt.Fprintf(os.Stderr, "ucg: %v\n", err)
		return cliutil.ExitRegexCompile
	}

	useColor := present.ResolveColor(cfg.Color, os.Stdout.Fd())
	printer := present.NewPrinter(os.Stdout, cfg.Format, useColor, cfg.Column, cfg.Count)

	runOnce := func() (matched bool, scanErr error) {
		return scanOnce(reg, eng, cfg, printer, logger)
	}

	if !cfg.Watch {
		matched, scanErr := runOnce()
		if scanErr != nil {
			fmt.Fprintf(os.Stderr, "ucg: %v\n", scanErr)
		}
		if matched {
			return cliutil.ExitMatchFound
		}
		if scanErr != nil {
			return cliutil.ExitGeneralError
		}
		return cliutil.ExitNoMatch
	}

	watcher, err := watchrun.New(cfg.Paths, reg, logger, 200*time.Millisecond)
	if err != nil {
		logger.Error("failed to start watcher", "error", err)
		fmt.Fprintf(os.Stderr, "ucg: %v\n", err)
		return cliutil.ExitGeneralError
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT)
	done := make(chan struct{})
	go func() {
		<-sigCh
		close(done)
	}()

	runOnce()
	watchrun.RunLoop(watcher, done, func() { runOnce() })
	return cliutil.ExitMatchFound
}

// scanOnce runs the full traversal -> scan -> present pipeline once and
// reports whether at least one match was found, per §6 "Exit codes". A
// non-nil error means at least one root argument could not be resolved
// (traverse.Pool.Run's fatal case); the scan still runs to completion over
// whatever roots were valid.
func scanOnce(reg *filetype.Registry, eng *regexeng.Engine, cfg *cliutil.Config, printer *present.Printer, logger *slog.Logger) (bool, error) {
	q1 := queue.New[*fileid.FileIdentity]()
	q2 := queue.New[*match.List]()

	tpool := traverse.NewPool(cfg.DirJobs, reg, logger)
	spool := scanner.NewPool(cfg.ScanJobs, eng, logger)

	go func() {
		spool.Run(q1, q2)
		q2.Close()
	}()

	traversalErrCh := make(chan error, 1)
	go func() {
		err := tpool.Run(cfg.Paths, q1)
		if err != nil {
			logger.Error("traversal failed", "error", err)
		}
		q1.Close()
		traversalErrCh <- err
	}()

	var stats present.Stats
	matched := false
	for {
		list, status := q2.Pull()
		if status == queue.StatusClosed {
			break
		}
		stats.FilesMatched++
		stats.TotalMatches += list.Len()
		matched = true
		if err := printer.Print(list); err != nil {
			logger.Error("writing output failed", "error", err)
		}
	}

	filesScanned, bytesScanned := spool.Stats()
	stats.FilesScanned = int(filesScanned)
	stats.BytesScanned = bytesScanned

	if cfg.Stats {
		present.PrintStats(os.Stderr, stats)
	}
	return matched, <-traversalErrCh
}

// applyTypeConfig installs --type-set/--type-add/--type-del/--ignore-dir/
// --noignore-dir/--exclude/--ignore/--include/--ignore-file from cfg into
// reg, per §6's type-operations grammar.
func applyTypeConfig(reg *filetype.Registry, cfg *cliutil.Config) error {
	if cfg.Unrestricted {
		reg.SetKnownTypesOnly(false)
	}
	for _, spec := range cfg.TypeSet {
		name, ruleSpec, err := splitTypeSpec(spec)
		if err != nil {
			return err
		}
		if err := reg.AddRule(name, ruleSpec, true); err != nil {
			return err
		}
	}
	for _, spec := range cfg.TypeAdd {
		name, ruleSpec, err := splitTypeSpec(spec)
		if err != nil {
			return err
		}
		if err := reg.AddRule(name, ruleSpec, false); err != nil {
			return err
		}
	}
	for _, name := range cfg.TypeDel {
		reg.DeleteType(name)
	}
	for _, name := range cfg.ExcludeDirs {
		reg.ExcludeDir(name)
	}
	for _, name := range cfg.IncludeDirs {
		reg.IncludeDir(name)
	}
	for _, glob := range cfg.ExcludeGlobs {
		if err := reg.AddIgnoreFileRule("globx:" + glob); err != nil {
			return err
		}
	}
	for _, glob := range cfg.IncludeGlobs {
		reg.AddIncludeGlobRule(glob)
	}
	for _, spec := range cfg.IgnoreFile {
		if err := reg.AddIgnoreFileRule(spec); err != nil {
			return err
		}
	}
	return nil
}

// splitTypeSpec parses "NAME:KIND:ARGS" into ("NAME", "KIND:ARGS").
func splitTypeSpec(spec string) (name, ruleSpec string, err error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", "", fmt.Errorf("malformed type spec %q, want NAME:KIND:ARGS", spec)
	}
	return parts[0], parts[1], nil
}

// attachGitignore loads a .gitignore at cwd, if present, as the optional
// enrichment layer documented in SPEC_FULL.md §11.
func attachGitignore(reg *filetype.Registry, cwd string) {
	path := filepath.Join(cwd, ".gitignore")
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	reg.SetGitignore(gitignore.New(f, cwd, nil))
}

// setupLogger builds the structured logger per SPEC_FULL.md §10.1: stderr
// by default (stdout carries match output), rotated through lumberjack when
// a log file is requested.
func setupLogger(level, logFile string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	var out io.Writer = os.Stderr

	if logFile != "" {
		out = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
