package regexeng

import (
	"testing"

	"github.com/ravelsoft/ucg/match"
)

func Test_Engine_SingleFileLiteralMatch(t *testing.T) {
	eng, err := Compile("foo", Options{})
	if err != nil {
		t.Fatal(err)
	}
	buf := []byte("foo\nFOO\nfoo bar\n")
	list := eng.ScanBuffer(buf)

	got := lineNumbersOf(list)
	want := []int{1, 3}
	if !equalInts(got, want) {
		t.Fatalf("got lines %v, want %v", got, want)
	}
}

func Test_Engine_SingleFileLiteralMatch_IgnoreCase(t *testing.T) {
	eng, err := Compile("foo", Options{IgnoreCase: true})
	if err != nil {
		t.Fatal(err)
	}
	buf := []byte("foo\nFOO\nfoo bar\n")
	list := eng.ScanBuffer(buf)

	got := lineNumbersOf(list)
	want := []int{1, 2, 3}
	if !equalInts(got, want) {
		t.Fatalf("got lines %v, want %v", got, want)
	}
}

func Test_Engine_WordBoundary(t *testing.T) {
	eng, err := Compile("foo", Options{WordRegexp: true})
	if err != nil {
		t.Fatal(err)
	}
	buf := []byte("foo foobar barfoo foo!\n")
	list := eng.ScanBuffer(buf)

	if list.Len() != 1 {
		t.Fatalf("expected exactly one match line (dedup-per-line), got %d", list.Len())
	}
	rec := list.Records[0]
	if rec.LineNumber != 1 {
		t.Fatalf("LineNumber = %d, want 1", rec.LineNumber)
	}
	// The first "foo" (a standalone word) should be the one reported, since
	// scanning proceeds left to right and only the first match per line is kept.
	if rec.ByteOffsetStart != 0 {
		t.Fatalf("ByteOffsetStart = %d, want 0 (the leading standalone foo)", rec.ByteOffsetStart)
	}
}

func Test_Engine_MultilineGuard_DoesNotBridgeNewline(t *testing.T) {
	eng, err := Compile(`a\s+b`, Options{})
	if err != nil {
		t.Fatal(err)
	}
	buf := []byte("a\nb\na b\n")
	list := eng.ScanBuffer(buf)

	if list.Len() != 1 {
		t.Fatalf("expected exactly one match, got %d: %+v", list.Len(), list.Records)
	}
	if list.Records[0].LineNumber != 3 {
		t.Fatalf("LineNumber = %d, want 3", list.Records[0].LineNumber)
	}
}

func Test_Engine_Literal_QuotesRegexMetacharacters(t *testing.T) {
	eng, err := Compile("a.b", Options{Literal: true})
	if err != nil {
		t.Fatal(err)
	}
	buf := []byte("a.b\naxb\n")
	list := eng.ScanBuffer(buf)

	got := lineNumbersOf(list)
	want := []int{1}
	if !equalInts(got, want) {
		t.Fatalf("literal mode: got lines %v, want %v (axb must not match a.b literally)", got, want)
	}
}

func Test_Engine_AtMostOneMatchPerLine(t *testing.T) {
	eng, err := Compile("x", Options{})
	if err != nil {
		t.Fatal(err)
	}
	buf := []byte("x x x x\n")
	list := eng.ScanBuffer(buf)
	if list.Len() != 1 {
		t.Fatalf("expected dedup to one record for a line with many matches, got %d", list.Len())
	}
}

func Test_Engine_NoTrailingNewline_LastLineStillScanned(t *testing.T) {
	eng, err := Compile("bar", Options{})
	if err != nil {
		t.Fatal(err)
	}
	buf := []byte("foo\nbar")
	list := eng.ScanBuffer(buf)
	if list.Len() != 1 || list.Records[0].LineNumber != 2 {
		t.Fatalf("got %+v, want one match on line 2", list.Records)
	}
}

func lineNumbersOf(l *match.List) []int {
	var out []int
	for _, r := range l.Records {
		out = append(out, r.LineNumber)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
