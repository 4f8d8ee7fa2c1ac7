// Package argrewrite implements the §6/§9 pre-parser step: scanning argv for
// `--TYPE` / `--noTYPE` tokens, resolving TYPE as a unique prefix of a
// registered file type name, and pulling them out of the vector before the
// canonical flag parser (spf13/pflag, which cannot register flags it
// doesn't know about ahead of time) ever sees them.
package argrewrite

import (
	"fmt"
	"strings"

	"github.com/ravelsoft/ucg/filetype"
)

// Toggle is one resolved `--TYPE`/`--noTYPE` instruction.
type Toggle struct {
	TypeName string
	Enable   bool
}

// AmbiguousError reports a `--PARTIAL` token that matched more than one
// registered type name.
type AmbiguousError struct {
	Token   string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous type flag %q: matches %s", e.Token, strings.Join(e.Matches, ", "))
}

// Rewrite splits args into the residual vector pflag should parse and the
// type toggles this pre-parser resolved. knownLongFlags lists every
// statically-registered `--name` flag (without leading dashes); any token
// naming one of those is left untouched and passed through to pflag as-is.
func Rewrite(args []string, reg *filetype.Registry, knownLongFlags map[string]bool) (residual []string, toggles []Toggle, err error) {
	for _, arg := range args {
		if !strings.HasPrefix(arg, "--") || arg == "--" {
			residual = append(residual, arg)
			continue
		}
		body := arg[2:]
		if strings.Contains(body, "=") {
			// Type-enable/disable flags never take an explicit value; a
			// token with one belongs to the static flag set (or is an
			// error pflag will report).
			residual = append(residual, arg)
			continue
		}
		if knownLongFlags[body] {
			residual = append(residual, arg)
			continue
		}

		// Try body as a positive "--TYPE" prefix first, so a type actually
		// named e.g. "nodejs" isn't shadowed by the negation heuristic.
		enable := true
		matches := reg.ResolvePrefix(body)
		if len(matches) == 0 && strings.HasPrefix(body, "no") {
			enable = false
			matches = reg.ResolvePrefix(body[2:])
		}
		if len(matches) == 0 {
			// Not a recognized type prefix either; let pflag report
			// "unknown flag" on it.
			residual = append(residual, arg)
			continue
		}
		if len(matches) > 1 {
			return nil, nil, &AmbiguousError{Token: arg, Matches: matches}
		}
		toggles = append(toggles, Toggle{TypeName: matches[0], Enable: enable})
	}
	return residual, toggles, nil
}

// Apply installs each toggle into reg, in order.
func Apply(reg *filetype.Registry, toggles []Toggle) {
	for _, tg := range toggles {
		if tg.Enable {
			reg.Enable(tg.TypeName)
		} else {
			reg.Disable(tg.TypeName)
		}
	}
}
