package present

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/ravelsoft/ucg/match"
)

func Test_Printer_PrintText_FormatsPathLineText(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "text", false, false, false)

	list := &match.List{Path: "a.go", Records: []match.Record{
		{LineNumber: 3, ByteOffsetStart: 10, ByteOffsetEnd: 14, LineStartOffset: 8, LineBytes: []byte("  needle here")},
	}}
	if err := p.Print(list); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "a.go:3:  needle here\n" {
		t.Fatalf("got %q", got)
	}
}

func Test_Printer_PrintText_WithColumn(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "text", false, true, false)

	list := &match.List{Path: "a.go", Records: []match.Record{
		{LineNumber: 1, ByteOffsetStart: 2, ByteOffsetEnd: 8, LineStartOffset: 0, LineBytes: []byte("  needle")},
	}}
	if err := p.Print(list); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "a.go:1:3:  needle\n" {
		t.Fatalf("got %q, want column 3", got)
	}
}

func Test_Printer_PrintCount_OneLinePerFile(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "text", false, false, true)

	list := &match.List{Path: "a.go", Records: []match.Record{
		{LineNumber: 1}, {LineNumber: 2}, {LineNumber: 3},
	}}
	if err := p.Print(list); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "a.go:3\n" {
		t.Fatalf("got %q, want a.go:3", got)
	}
}

func Test_Printer_PrintText_EmptyListPrintsNothing(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "text", false, false, false)
	if err := p.Print(&match.List{Path: "a.go"}); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output for an empty match list, got %q", buf.String())
	}
}

func Test_Printer_PrintJSON_EmitsOneObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "json", false, false, false)

	list := &match.List{Path: "a.go", Records: []match.Record{
		{LineNumber: 1, LineBytes: []byte("needle")},
		{LineNumber: 2, LineBytes: []byte("another needle")},
	}}
	if err := p.Print(list); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], `"path":"a.go"`) || !strings.Contains(lines[0], `"line":1`) {
		t.Fatalf("unexpected json record: %s", lines[0])
	}
}

func Test_HighlightMatch_PreservesTextOutsideNoColorMode(t *testing.T) {
	color.NoColor = true
	rec := match.Record{ByteOffsetStart: 2, ByteOffsetEnd: 8, LineStartOffset: 0, LineBytes: []byte("  needle rest")}
	got := highlightMatch(rec, color.New(color.FgRed))
	if got != "  needle rest" {
		t.Fatalf("got %q, want the line unchanged (color.NoColor strips escapes)", got)
	}
}

func Test_HighlightMatch_OutOfRangeSpanFallsBackToPlainLine(t *testing.T) {
	rec := match.Record{ByteOffsetStart: 100, ByteOffsetEnd: 200, LineStartOffset: 0, LineBytes: []byte("short")}
	got := highlightMatch(rec, color.New(color.FgRed))
	if got != "short" {
		t.Fatalf("got %q, want the line unchanged when the span is out of range", got)
	}
}

func Test_ResolveColor_AlwaysAndNeverOverrideTTYDetection(t *testing.T) {
	if !ResolveColor("always", 0) {
		t.Fatal("--color=always must force color on regardless of fd")
	}
	if ResolveColor("never", 0) {
		t.Fatal("--color=never must force color off regardless of fd")
	}
}
