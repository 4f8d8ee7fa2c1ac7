// Package regexeng compiles the user's search pattern once and scans file
// buffers for line-bounded matches.
//
// Go's standard regexp package (RE2) has no callout mechanism, so this
// engine uses the line-slicing strategy spec.md §4.E offers as the
// behaviorally-equivalent alternative to PCRE2-style match callouts: the
// buffer is split into lines up front, and each line is matched in
// isolation. A match can therefore never span a '\n' by construction, and
// at most one match is ever reported per line, without needing an explicit
// "did this match cross a newline" callout check.
package regexeng

import (
	"fmt"
	"regexp"

	"github.com/ravelsoft/ucg/match"
)

// Options controls the pre-compile transformations applied to the user's
// pattern, per §4.E.
type Options struct {
	IgnoreCase bool
	Literal    bool // wrap as quoted literal text rather than a regex
	WordRegexp bool // wrap with \b...\b word-boundary assertions
}

// Engine holds a compiled pattern, shared read-only across scanner
// goroutines; ScanBuffer carries all per-call state.
type Engine struct {
	re *regexp.Regexp
}

// CompileError wraps a regex compilation failure with the transformed
// pattern that failed, per §7 kind 2 "Regex compile error".
type CompileError struct {
	Pattern string
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to compile pattern %q: %v", e.Pattern, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Compile applies the §4.E pre-compile transformations to pattern in order
// (literal-quote, then word-boundary wrap, then the case-insensitivity
// flag) and compiles the result.
func Compile(pattern string, opts Options) (*Engine, error) {
	p := pattern
	if opts.Literal {
		p = regexp.QuoteMeta(p)
	}
	if opts.WordRegexp {
		p = `\b(?:` + p + `)\b`
	}
	if opts.IgnoreCase {
		p = `(?i)` + p
	}

	re, err := regexp.Compile(p)
	if err != nil {
		return nil, &CompileError{Pattern: p, Err: err}
	}
	return &Engine{re: re}, nil
}

// line is one line of the buffer: its byte range, exclusive of any
// terminating '\n' or trailing '\r'.
type line struct {
	start, end int // [start, end) within the original buffer
}

// splitLines returns the line table for buf, matching the buffer's own line
// numbering (1-based) via the index into the returned slice.
func splitLines(buf []byte) []line {
	var lines []line
	start := 0
	for i := 0; i < len(buf); i++ {
		if buf[i] == '\n' {
			end := i
			if end > start && buf[end-1] == '\r' {
				end--
			}
			lines = append(lines, line{start: start, end: end})
			start = i + 1
		}
	}
	if start < len(buf) {
		end := len(buf)
		if end > start && buf[end-1] == '\r' {
			end--
		}
		lines = append(lines, line{start: start, end: end})
	}
	return lines
}

// ScanBuffer scans buf for matches, returning at most one Record per line,
// none of which spans a '\n', per §8's invariants.
func (e *Engine) ScanBuffer(buf []byte) *match.List {
	list := &match.List{}
	for lineNo, ln := range splitLines(buf) {
		lineBytes := buf[ln.start:ln.end]
		loc := e.re.FindIndex(lineBytes)
		if loc == nil {
			continue
		}
		list.Add(match.Record{
			ByteOffsetStart: ln.start + loc[0],
			ByteOffsetEnd:   ln.start + loc[1],
			LineNumber:      lineNo + 1,
			LineBytes:       lineBytes,
			LineStartOffset: ln.start,
		})
	}
	return list
}
