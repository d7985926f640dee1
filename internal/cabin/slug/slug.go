// Package slug derives URL-safe identifiers from display names.
package slug

import "strings"

// Generate lowercases and trims name, strips everything outside
// [a-z0-9\s-], turns whitespace runs into single hyphens and collapses
// repeated hyphens. A name with no usable characters yields "".
func Generate(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n', r == '\r', r == '\f', r == '\v':
			b.WriteByte(' ')
		}
	}

	out := strings.Join(strings.Fields(b.String()), "-")

	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}

	return strings.Trim(out, "-")
}
