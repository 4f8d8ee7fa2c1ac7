package filetype

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/danwakefield/fnmatch"
)

// Kind identifies which of the four filter-rule shapes a Rule implements.
type Kind int

const (
	KindExt Kind = iota
	KindIs
	KindGlob
	KindGlobX
	KindFirstLineMatch
)

func (k Kind) String() string {
	switch k {
	case KindExt:
		return "ext"
	case KindIs:
		return "is"
	case KindGlob:
		return "glob"
	case KindGlobX:
		return "globx"
	case KindFirstLineMatch:
		return "firstlinematch"
	default:
		return "unknown"
	}
}

// FirstLineFunc returns a file's first line (without trailing newline). It
// is invoked at most once per file, and only when no cheaper rule already
// decided the outcome.
type FirstLineFunc func() (string, error)

// Rule is one filter-rule clause of a FileType. Rules within a FileType
// compose disjunctively: the type matches a file if any of its rules match.
type Rule struct {
	Kind  Kind
	Exts  map[string]struct{} // KindExt
	Names map[string]struct{} // KindIs
	Glob  string              // KindGlob, KindGlobX
	Re    *regexp.Regexp      // KindFirstLineMatch
	spec  string              // original spec string, for error messages
}

// Match reports whether this rule matches a file with the given basename
// and path relative to the scan root. openFirstLine is consulted only for
// KindFirstLineMatch rules.
func (r Rule) Match(basename, relPath string, openFirstLine FirstLineFunc) bool {
	switch r.Kind {
	case KindExt:
		ext := extensionOf(basename)
		if ext == "" {
			return false
		}
		_, ok := r.Exts[ext]
		return ok
	case KindIs:
		_, ok := r.Names[basename]
		return ok
	case KindGlob:
		return fnmatch.Match(r.Glob, basename, 0)
	case KindGlobX:
		normalized := strings.ReplaceAll(relPath, "\\", "/")
		matched, err := doublestar.Match(r.Glob, normalized)
		return err == nil && matched
	case KindFirstLineMatch:
		if openFirstLine == nil || r.Re == nil {
			return false
		}
		line, err := openFirstLine()
		if err != nil {
			return false
		}
		return r.Re.MatchString(line)
	default:
		return false
	}
}

// extensionOf returns the basename's final extension (after the last '.'),
// without the leading dot. A leading-dot dotfile with no further dot (e.g.
// ".gitignore") has no extension.
func extensionOf(basename string) string {
	idx := strings.LastIndexByte(basename, '.')
	if idx <= 0 || idx == len(basename)-1 {
		return ""
	}
	return basename[idx+1:]
}

// ParseError describes a malformed filter spec, identifying the offending
// spec string per §4.B "Failure".
type ParseError struct {
	Spec   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid filter spec %q: %s", e.Spec, e.Reason)
}

// ParseFilterSpec parses a `<kind>:<args>` filter spec string, per §6's
// grammar: ext/is take comma-separated lists, glob/globx take a single
// pattern, and firstlinematch takes a slash-delimited regex with optional
// trailing flags.
func ParseFilterSpec(spec string) (Rule, error) {
	kindStr, args, found := strings.Cut(spec, ":")
	if !found {
		return Rule{}, &ParseError{Spec: spec, Reason: "missing ':' separating kind from args"}
	}

	switch kindStr {
	case "ext":
		return parseListRule(spec, KindExt, args)
	case "is":
		return parseListRule(spec, KindIs, args)
	case "glob":
		if args == "" {
			return Rule{}, &ParseError{Spec: spec, Reason: "glob pattern must not be empty"}
		}
		return Rule{Kind: KindGlob, Glob: args, spec: spec}, nil
	case "globx":
		if args == "" {
			return Rule{}, &ParseError{Spec: spec, Reason: "globx pattern must not be empty"}
		}
		return Rule{Kind: KindGlobX, Glob: args, spec: spec}, nil
	case "firstlinematch":
		return parseFirstLineRule(spec, args)
	default:
		return Rule{}, &ParseError{Spec: spec, Reason: fmt.Sprintf("unknown rule kind %q", kindStr)}
	}
}

func parseListRule(spec string, kind Kind, args string) (Rule, error) {
	if args == "" {
		return Rule{}, &ParseError{Spec: spec, Reason: "expected a comma-separated list of values"}
	}
	items := strings.Split(args, ",")
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			return Rule{}, &ParseError{Spec: spec, Reason: "empty item in comma-separated list"}
		}
		set[item] = struct{}{}
	}
	r := Rule{Kind: kind, spec: spec}
	if kind == KindExt {
		r.Exts = set
	} else {
		r.Names = set
	}
	return r, nil
}

// parseFirstLineRule parses "/pattern/flags". The closing delimiter is the
// last '/' in the string, so a flags suffix (e.g. "i") can follow it.
func parseFirstLineRule(spec, args string) (Rule, error) {
	if len(args) < 2 || args[0] != '/' {
		return Rule{}, &ParseError{Spec: spec, Reason: "expected /regex/ optionally followed by flags"}
	}
	closing := strings.LastIndexByte(args, '/')
	if closing <= 0 {
		return Rule{}, &ParseError{Spec: spec, Reason: "missing closing '/' delimiter"}
	}
	pattern := args[1:closing]
	flags := args[closing+1:]

	prefix := ""
	for _, f := range flags {
		switch f {
		case 'i':
			prefix += "i"
		default:
			return Rule{}, &ParseError{Spec: spec, Reason: fmt.Sprintf("unknown firstlinematch flag %q", string(f))}
		}
	}
	if prefix != "" {
		pattern = "(?" + prefix + ")" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, &ParseError{Spec: spec, Reason: fmt.Sprintf("bad regex: %v", err)}
	}
	return Rule{Kind: KindFirstLineMatch, Re: re, spec: spec}, nil
}
