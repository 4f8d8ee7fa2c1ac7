// Package cliutil implements the canonical flag parser, exit-code-carrying
// errors, smart-case resolution, and version/usage text described in
// SPEC_FULL.md §10.2, §10.3, and §12.
package cliutil

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
)

// Exit codes per spec.md §6 "Exit codes" and §7.
const (
	ExitMatchFound    = 0
	ExitNoMatch       = 1
	ExitGeneralError  = 2
	ExitRegexCompile  = 2
	ExitUsageError    = 255
	ExitConfigInvalid = 255
)

// CLIError wraps an error with the process exit code it should produce.
type CLIError struct {
	Code int
	Err  error
}

func (e *CLIError) Error() string { return e.Err.Error() }
func (e *CLIError) Unwrap() error { return e.Err }

// NewCLIError builds a CLIError, wrapping err with a formatted boundary
// message in the teacher's "...: %w" style.
func NewCLIError(code int, format string, args ...any) *CLIError {
	return &CLIError{Code: code, Err: fmt.Errorf(format, args...)}
}

// Config is the fully-resolved set of options for one scan run.
type Config struct {
	Pattern string
	Paths   []string

	IgnoreCase    bool
	IgnoreCaseSet bool // true if -i/--ignore-case was explicitly given
	NoSmartCase   bool
	WordRegexp    bool
	Literal       bool

	DirJobs  int
	ScanJobs int

	Color      string // "auto", "always", "never"
	Format     string // "text", "json"
	Column       bool
	Count        bool
	Stats        bool
	Unrestricted bool // --unrestricted: scan files Classify would otherwise reject for not matching a known type

	Watch bool

	LogLevel string
	LogFile  string

	ExcludeDirs  []string
	IncludeDirs  []string
	ExcludeGlobs []string
	IncludeGlobs []string
	IgnoreFile   []string
	TypeAdd      []string
	TypeSet      []string
	TypeDel      []string

	// ShowVersion/ShowHelp short-circuit the rest of Config when set.
	ShowVersion bool
	ShowHelp    bool
}

// NewFlagSet builds the pflag.FlagSet used to parse the residual argv left
// over after internal/argrewrite has pulled out `--TYPE`/`--noTYPE` tokens.
// It returns the flag set and a Config whose fields are bound to it; call
// fs.Parse(args) and then read cfg.
func NewFlagSet(name string) (*pflag.FlagSet, *Config) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	cfg := &Config{}

	fs.BoolVarP(&cfg.IgnoreCase, "ignore-case", "i", false, "match case-insensitively, overriding smart-case")
	fs.BoolVar(&cfg.NoSmartCase, "no-smart-case", false, "disable the smart-case heuristic (on by default)")
	fs.BoolVarP(&cfg.WordRegexp, "word-regexp", "w", false, "wrap the pattern in word-boundary assertions")
	fs.BoolVarP(&cfg.Literal, "literal", "Q", false, "treat the pattern as a literal string, not a regex")

	fs.IntVar(&cfg.DirJobs, "dirjobs", DefaultDirJobs(), "number of traversal worker goroutines")
	fs.IntVarP(&cfg.ScanJobs, "jobs", "j", DefaultScanJobs(), "number of scanner worker goroutines")

	fs.StringVar(&cfg.Color, "color", "auto", `colorize output: "auto", "always", or "never"`)
	fs.StringVar(&cfg.Format, "format", "text", `output format: "text" or "json"`)
	fs.BoolVar(&cfg.Column, "column", false, "report the 1-based byte column of each match")
	fs.BoolVarP(&cfg.Count, "count", "c", false, "print only the per-file match count")
	fs.BoolVar(&cfg.Stats, "stats", false, "print a post-scan summary table to stderr")
	fs.BoolVarP(&cfg.Unrestricted, "unrestricted", "u", false, "also scan files that match no known type")

	fs.BoolVar(&cfg.Watch, "watch", false, "re-run the scan whenever the tree changes")

	fs.StringVar(&cfg.LogLevel, "log-level", "info", "debug, info, warn, or error")
	fs.StringVar(&cfg.LogFile, "log-file", "", "write logs to this file (rotated) instead of stderr")

	fs.StringArrayVar(&cfg.ExcludeDirs, "ignore-dir", nil, "exclude a directory basename from traversal")
	fs.StringArrayVar(&cfg.IncludeDirs, "noignore-dir", nil, "un-exclude a directory basename")
	fs.StringArrayVar(&cfg.ExcludeGlobs, "exclude", nil, "append globx:GLOB to the ignore-file type")
	fs.StringArrayVar(&cfg.IncludeGlobs, "include", nil, "append glob:GLOB to the include type")
	fs.StringArrayVar(&cfg.IgnoreFile, "ignore-file", nil, "append KIND:ARGS to the ignore-file type")
	fs.StringArrayVar(&cfg.TypeAdd, "type-add", nil, "append KIND:ARGS to NAME's rule list (NAME:KIND:ARGS)")
	fs.StringArrayVar(&cfg.TypeSet, "type-set", nil, "replace NAME's rule list (NAME:KIND:ARGS)")
	fs.StringArrayVar(&cfg.TypeDel, "type-del", nil, "delete a registered type by name")

	fs.BoolVar(&cfg.ShowVersion, "version", false, "print the version and exit")
	fs.BoolVarP(&cfg.ShowHelp, "help", "h", false, "print usage and exit")

	return fs, cfg
}

// Parse runs fs.Parse(args), then fills in the positional PATTERN/PATHS
// fields and records whether -i/--ignore-case was explicitly given (as
// opposed to merely defaulting to false).
func Parse(fs *pflag.FlagSet, cfg *Config, args []string) error {
	if err := fs.Parse(args); err != nil {
		return NewCLIError(ExitUsageError, "parsing arguments: %w", err)
	}
	cfg.IgnoreCaseSet = fs.Changed("ignore-case")

	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	positional := fs.Args()
	if len(positional) < 1 {
		return NewCLIError(ExitUsageError, "missing PATTERN argument")
	}
	cfg.Pattern = positional[0]
	cfg.Paths = positional[1:]
	if len(cfg.Paths) == 0 {
		cfg.Paths = []string{"."}
	}
	return nil
}

// KnownLongFlags returns every long flag name NewFlagSet registers, for
// internal/argrewrite to leave untouched while scanning for `--TYPE` tokens.
func KnownLongFlags() map[string]bool {
	fs, _ := NewFlagSet("probe")
	known := make(map[string]bool)
	fs.VisitAll(func(f *pflag.Flag) {
		known[f.Name] = true
	})
	return known
}

// DefaultDirJobs returns 2, matching UniversalCodeGrep's f_default_dirjobs:
// empirically, two traversal workers keep directory metadata I/O warm
// without contending heavily on the visited-directory mutex.
func DefaultDirJobs() int { return 2 }

// DefaultScanJobs returns the host's hardware concurrency, minimum 1.
func DefaultScanJobs() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}

// ResolveIgnoreCase implements spec.md §8 scenario 6: -i always wins; absent
// that, --no-smart-case disables the heuristic (case-sensitive); absent
// that, smart-case applies (case-insensitive unless the pattern itself
// contains an uppercase letter).
func ResolveIgnoreCase(pattern string, ignoreCase, ignoreCaseSet, noSmartCase bool) bool {
	if ignoreCaseSet {
		return ignoreCase
	}
	if noSmartCase {
		return false
	}
	return !strings.ContainsFunc(pattern, func(r rune) bool {
		return r >= 'A' && r <= 'Z'
	})
}

// PrintVersion writes a one-line version banner, modeled on ArgParse.cpp's
// argp_program_version table but newly authored here.
func PrintVersion(w io.Writer, version string) {
	fmt.Fprintf(w, "ucg %s\n", version)
}

// PrintUsage writes the flag set's generated usage text, prefixed with a
// one-line invocation summary.
func PrintUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "usage: ucg [OPTION]... PATTERN [PATH]...")
	fmt.Fprintln(w, fs.FlagUsagesWrapped(0))
}
