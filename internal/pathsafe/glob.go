// Package pathsafe validates project paths against dangerous locations and
// compiles the exclusion glob syntax used for user-defined exclusions
// (component C15).
package pathsafe

import (
	"fmt"
	"regexp"
	"strings"
)

// Matcher tests a project-relative path against a single compiled glob
// pattern.
type Matcher struct {
	pattern string
	re      *regexp.Regexp
}

// Pattern returns the original glob pattern this Matcher was compiled from.
func (m *Matcher) Pattern() string { return m.pattern }

// Match reports whether relPath (forward-slash separated, relative to the
// project root) matches the pattern.
func (m *Matcher) Match(relPath string) bool {
	relPath = strings.ReplaceAll(relPath, "\\", "/")
	return m.re.MatchString(relPath)
}

// CompileGlob compiles a glob pattern using the semantics from §3:
//
//   - `**` matches any path including `/`
//   - `*` matches any non-`/` run
//   - `?` matches any one character
//   - a pattern that contains `/` is anchored at the path start; a pattern
//     without `/` can match at any path depth
func CompileGlob(pattern string) (*Matcher, error) {
	if pattern == "" {
		return nil, fmt.Errorf("empty exclusion pattern")
	}

	var b strings.Builder
	b.WriteString("^")

	anchored := strings.Contains(pattern, "/")
	if !anchored {
		// An unanchored single-segment pattern (e.g. "*.log") may match at
		// any path depth.
		b.WriteString("(?:.*/)?")
	}

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '*' && i+1 < len(runes) && runes[i+1] == '*':
			// `**` — consume any run, including extra `/` that may follow
			// (`**/`) so it degenerates cleanly to "anything".
			i++
			if i+1 < len(runes) && runes[i+1] == '/' {
				i++
				b.WriteString("(?:.*/)?")
			} else {
				b.WriteString(".*")
			}
		case c == '*':
			b.WriteString("[^/]*")
		case c == '?':
			b.WriteString("[^/]")
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("(?:/.*)?$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("invalid exclusion pattern %q: %w", pattern, err)
	}
	return &Matcher{pattern: pattern, re: re}, nil
}
