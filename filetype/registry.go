// Package filetype implements the file-type filter engine: a registry of
// named FileType definitions (each an ordered, disjunctive list of filter
// rules), the enabled-type include set, and the classification algorithm
// that decides whether a discovered path is scanned.
package filetype

import (
	"sort"
	"strings"
	"sync"

	gitignore "github.com/denormal/go-gitignore"
)

// FileType is a named, ordered list of filter rules. A file matches the
// type if any of its rules match (§3 "Per-type invariant").
type FileType struct {
	Name  string
	Rules []Rule
}

func (t *FileType) match(basename, relPath string, openFirstLine FirstLineFunc) bool {
	for _, r := range t.Rules {
		if r.Match(basename, relPath, openFirstLine) {
			return true
		}
	}
	return false
}

// Registry is the TypeManager: it owns the FileType definitions, the
// enabled-type include set, the anonymous ignore-file and include types,
// and (as an enrichment beyond spec.md, see SPEC_FULL.md §11) an optional
// .gitignore layer consulted alongside the ignore-file type.
//
// A Registry is built up during argument parsing and is immutable once
// scanning starts; concurrent Classify calls from traversal goroutines are
// safe because nothing mutates the registry after that point. The mutex
// guards against the (rare) case of a caller still registering types from
// multiple goroutines.
type Registry struct {
	mu sync.RWMutex

	types map[string]*FileType

	enabled        map[string]struct{}
	disabled       map[string]struct{}
	explicitEnable bool // true once the first Enable() call replaces the "all known types" default

	ignoreFile *FileType
	include    *FileType

	excludeDirs map[string]struct{}

	knownTypesOnly bool

	gitignore gitignore.GitIgnore
}

// NewRegistry creates an empty registry in "known-types-only" mode with the
// default excluded-directory set.
func NewRegistry() *Registry {
	return &Registry{
		types:          make(map[string]*FileType),
		enabled:        make(map[string]struct{}),
		disabled:       make(map[string]struct{}),
		ignoreFile:     &FileType{Name: "(ignore-file)"},
		include:        &FileType{Name: "(include)"},
		excludeDirs:    defaultExcludedDirs(),
		knownTypesOnly: true,
	}
}

func defaultExcludedDirs() map[string]struct{} {
	names := []string{
		".git", ".svn", ".hg", ".bzr", "_darcs",
		"node_modules", ".venv", "venv", "__pycache__",
		".idea", ".vscode", ".vs", ".next", ".nuxt",
		".cache", "CVS", ".tox",
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// SetGitignore attaches a loaded .gitignore matcher, consulted (in addition
// to the ignore-file type) during Classify's reject-first pass.
func (r *Registry) SetGitignore(gi gitignore.GitIgnore) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gitignore = gi
}

// AddRule adds ruleSpec to the named type. If replaceExisting is true (a
// `--type-set`), any prior rules for the type are discarded first; otherwise
// (a `--type-add`) the rule is appended, creating the type if it doesn't
// already exist.
func (r *Registry) AddRule(typeName, ruleSpec string, replaceExisting bool) error {
	rule, err := ParseFilterSpec(ruleSpec)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.types[typeName]
	if !ok || replaceExisting {
		t = &FileType{Name: typeName}
		r.types[typeName] = t
	}
	t.Rules = append(t.Rules, rule)
	return nil
}

// DeleteType removes a type. Idempotent: removing an unknown type is not an
// error. It is also dropped from the enabled set, if present.
func (r *Registry) DeleteType(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.types, name)
	delete(r.enabled, name)
}

// Enable adds name to the include set. The first call to Enable replaces
// the implicit "all known types" default with the explicit list.
func (r *Registry) Enable(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.explicitEnable = true
	r.enabled[name] = struct{}{}
	delete(r.disabled, name)
}

// Disable removes name from whichever set is in effect, without itself
// switching the registry into explicit-allowlist mode: a disable-only
// invocation (e.g. `--nocpp` with no enable given) still scans every other
// known type, per spec.md §4.B ("if an enable is the first enable call...").
func (r *Registry) Disable(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.enabled, name)
	r.disabled[name] = struct{}{}
}

// AddIgnoreFileRule appends ruleSpec to the anonymous ignore-file type.
func (r *Registry) AddIgnoreFileRule(ruleSpec string) error {
	rule, err := ParseFilterSpec(ruleSpec)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ignoreFile.Rules = append(r.ignoreFile.Rules, rule)
	return nil
}

// AddIncludeGlobRule appends a `glob:pattern` rule to the anonymous include
// type. When the include type is non-empty, only matching files survive
// classification.
func (r *Registry) AddIncludeGlobRule(pattern string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.include.Rules = append(r.include.Rules, Rule{Kind: KindGlob, Glob: pattern})
}

// ExcludeDir adds name to the excluded-directory-basename set.
func (r *Registry) ExcludeDir(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.excludeDirs[name] = struct{}{}
}

// IncludeDir removes name from the excluded-directory-basename set
// (`--noignore-dir`).
func (r *Registry) IncludeDir(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.excludeDirs, name)
}

// IsDirExcluded reports whether basename is in the excluded-directory set.
func (r *Registry) IsDirExcluded(basename string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.excludeDirs[basename]
	return ok
}

// SetKnownTypesOnly toggles known-types-only mode (on by default).
func (r *Registry) SetKnownTypesOnly(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.knownTypesOnly = v
}

// Classify applies the rules in order, per §4.B:
//  1. any ignore-file rule (or the optional .gitignore layer) matches -> reject
//  2. the include type is non-empty and none of its rules match -> reject
//  3. known-types-only (default) and no enabled type matches -> reject
//  4. otherwise -> accept
func (r *Registry) Classify(basename, relPath string, openFirstLine FirstLineFunc) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if openFirstLine != nil {
		fetch := openFirstLine
		var once sync.Once
		var line string
		var lineErr error
		openFirstLine = func() (string, error) {
			once.Do(func() { line, lineErr = fetch() })
			return line, lineErr
		}
	}

	if r.ignoreFile.match(basename, relPath, openFirstLine) {
		return false
	}
	if r.gitignore != nil {
		isDir := false // callers only classify regular files
		if m := r.gitignore.Relative(relPath, isDir); m != nil && m.Ignore() {
			return false
		}
	}

	if len(r.include.Rules) > 0 && !r.include.match(basename, relPath, openFirstLine) {
		return false
	}

	if !r.knownTypesOnly {
		return true
	}

	// The first pass tests only the rules that need no file contents; the
	// first line is read only if none of them matched.
	enabledNames := r.effectiveEnabledLocked()
	for _, firstLine := range []FirstLineFunc{nil, openFirstLine} {
		for _, name := range enabledNames {
			t, ok := r.types[name]
			if !ok {
				continue
			}
			if t.match(basename, relPath, firstLine) {
				return true
			}
		}
	}
	return false
}

// effectiveEnabledLocked returns the names to test in known-types-only mode:
// the explicit include set once an Enable call has switched the registry out
// of its implicit default (minus anything Disabled since), otherwise every
// registered type name except those explicitly Disabled.
func (r *Registry) effectiveEnabledLocked() []string {
	if r.explicitEnable {
		names := make([]string, 0, len(r.enabled))
		for name := range r.enabled {
			names = append(names, name)
		}
		return names
	}
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		if _, off := r.disabled[name]; off {
			continue
		}
		names = append(names, name)
	}
	return names
}

// ResolvePrefix returns just partial when it is an exact type name, and
// otherwise every type name it is a prefix of, sorted (more than one means
// the prefix is ambiguous). It is used to disambiguate `--partial`/
// `--nopartial` CLI forms before the canonical flag parser ever sees them.
func (r *Registry) ResolvePrefix(partial string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.types[partial]; ok {
		return []string{partial}
	}

	var matches []string
	for name := range r.types {
		if strings.HasPrefix(name, partial) {
			matches = append(matches, name)
		}
	}
	sort.Strings(matches)
	return matches
}

// TypeNames returns every registered type name, sorted, for help text and
// --list-file-types-style output.
func (r *Registry) TypeNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Type returns the named type definition, for introspection.
func (r *Registry) Type(name string) (*FileType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}
