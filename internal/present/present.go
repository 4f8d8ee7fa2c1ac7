// Package present renders a scan's MatchLists and summary statistics, per
// SPEC_FULL.md §12 ("--column", "--count") and §11 (color, JSON, stats
// table). None of this lives in the core scan pipeline: the driver drains
// Q2 and hands each MatchList to a Printer.
package present

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"

	"github.com/ravelsoft/ucg/match"
)

// Stats accumulates post-scan summary counters for the --stats table.
type Stats struct {
	FilesScanned int
	FilesMatched int
	TotalMatches int
	BytesScanned int64
}

// Printer renders MatchLists to an io.Writer in one of two formats (text,
// json), optionally colorized and optionally count-only.
type Printer struct {
	w         io.Writer
	useColor  bool
	format    string
	showCol   bool
	countOnly bool

	pathColor  *color.Color
	lineColor  *color.Color
	matchColor *color.Color

	jsonAPI jsoniter.API
}

// ResolveColor decides the effective color policy for mode ("auto",
// "always", "never") against the destination file descriptor, consulting
// go-isatty directly rather than relying solely on fatih/color's own
// detection, so NO_COLOR and --color=always/never both behave predictably.
func ResolveColor(mode string, fd uintptr) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
}

// NewPrinter builds a Printer writing to w.
func NewPrinter(w io.Writer, format string, useColor, showColumn, countOnly bool) *Printer {
	return &Printer{
		w:          w,
		useColor:   useColor,
		format:     format,
		showCol:    showColumn,
		countOnly:  countOnly,
		pathColor:  color.New(color.FgMagenta, color.Bold),
		lineColor:  color.New(color.FgGreen),
		matchColor: color.New(color.FgRed, color.Bold),
		jsonAPI:    jsoniter.ConfigCompatibleWithStandardLibrary,
	}
}

// jsonRecord is the wire shape for one reported match in --format=json mode.
type jsonRecord struct {
	Path   string `json:"path"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
	Text   string `json:"text"`
}

// Print renders one file's match list. In count mode it prints a single
// "path:count" line (or nothing for an empty list); otherwise one line per
// match.
func (p *Printer) Print(list *match.List) error {
	if list.Empty() {
		return nil
	}

	if p.countOnly {
		return p.printCount(list)
	}
	if p.format == "json" {
		return p.printJSON(list)
	}
	return p.printText(list)
}

func (p *Printer) printCount(list *match.List) error {
	_, err := fmt.Fprintf(p.w, "%s:%d\n", list.Path, list.Len())
	return err
}

func (p *Printer) printText(list *match.List) error {
	for _, rec := range list.Records {
		path := list.Path
		lineNo := fmt.Sprintf("%d", rec.LineNumber)
		text := string(rec.LineBytes)

		if p.useColor {
			path = p.pathColor.Sprint(path)
			lineNo = p.lineColor.Sprint(lineNo)
			text = highlightMatch(rec, p.matchColor)
		}

		var err error
		if p.showCol {
			_, err = fmt.Fprintf(p.w, "%s:%s:%d:%s\n", path, lineNo, rec.Column(), text)
		} else {
			_, err = fmt.Fprintf(p.w, "%s:%s:%s\n", path, lineNo, text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) printJSON(list *match.List) error {
	for _, rec := range list.Records {
		out := jsonRecord{
			Path: list.Path,
			Line: rec.LineNumber,
			Text: string(rec.LineBytes),
		}
		if p.showCol {
			out.Column = rec.Column()
		}
		b, err := p.jsonAPI.Marshal(out)
		if err != nil {
			return err
		}
		if _, err := p.w.Write(append(b, '\n')); err != nil {
			return err
		}
	}
	return nil
}

// highlightMatch re-renders rec.LineBytes with the matched span (recovered
// via ByteOffsetStart/End relative to LineStartOffset) wrapped in
// matchColor.
func highlightMatch(rec match.Record, matchColor *color.Color) string {
	line := rec.LineBytes
	start := rec.ByteOffsetStart - rec.LineStartOffset
	end := rec.ByteOffsetEnd - rec.LineStartOffset
	if start < 0 || end > len(line) || start > end {
		return string(line)
	}
	return string(line[:start]) + matchColor.Sprint(string(line[start:end])) + string(line[end:])
}

// PrintStats writes a summary table to w via olekukonko/tablewriter.
func PrintStats(w io.Writer, s Stats) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"metric", "value"})
	table.SetBorder(false)
	table.Append([]string{"files scanned", fmt.Sprintf("%d", s.FilesScanned)})
	table.Append([]string{"files matched", fmt.Sprintf("%d", s.FilesMatched)})
	table.Append([]string{"total matches", fmt.Sprintf("%d", s.TotalMatches)})
	table.Append([]string{"bytes scanned", fmt.Sprintf("%d", s.BytesScanned)})
	table.Render()
}

// StderrIsTerminal reports whether os.Stderr is a TTY. --stats always
// writes its table to stderr; this lets a caller decide whether that table
// could be colorized.
func StderrIsTerminal() bool {
	return isatty.IsTerminal(os.Stderr.Fd())
}
