// Package match defines the MatchRecord/MatchList data model produced by
// the scan pipeline's final stage.
package match

// Record is a single matched line: the byte offsets of the match within the
// file, the 1-based line number, and the raw bytes of the containing line
// (without its trailing newline).
type Record struct {
	ByteOffsetStart int
	ByteOffsetEnd   int
	LineNumber      int
	LineBytes       []byte
	LineStartOffset int // file byte offset of LineBytes[0]
}

// Column returns the 1-based byte column of the match start within its
// line, an enrichment beyond spec.md (SPEC_FULL.md §12 "--column").
func (r Record) Column() int {
	return r.ByteOffsetStart - r.LineStartOffset + 1
}

// List aggregates Records for a single file, in ascending line order, with
// at most one match retained per line (§3 "MatchRecord").
type List struct {
	Path    string
	Records []Record
}

// Add appends rec, enforcing the "not the same line as the last append"
// dedup rule. It is the caller's (RegexEngine's) responsibility to only
// call Add with strictly-increasing-or-equal line numbers; Add itself only
// checks against the immediately preceding record for O(1) dedup, matching
// the scan loop's own left-to-right traversal.
func (l *List) Add(rec Record) {
	if n := len(l.Records); n > 0 && l.Records[n-1].LineNumber == rec.LineNumber {
		return
	}
	l.Records = append(l.Records, rec)
}

// Empty reports whether the list has no records.
func (l *List) Empty() bool {
	return len(l.Records) == 0
}

// Len returns the number of retained matches.
func (l *List) Len() int {
	return len(l.Records)
}
