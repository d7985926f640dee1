package httpmetrics

import (
	"regexp"
	"strings"
)

var (
	uuidRegex = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
)

var staticCabinSubpaths = map[string]bool{
	"mine":   true,
	"events": true,
}

// NormalizePath collapses identifying path segments so metric labels stay
// bounded: uuids, numeric ids, and cabin slugs all become placeholders.
func NormalizePath(path string) string {
	if path == "" {
		return "/"
	}

	normalized := uuidRegex.ReplaceAllString(path, "{id}")

	parts := strings.Split(normalized, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, "{") || isNumeric(part) {
			parts[i] = "{param}"
			continue
		}
		if i >= 2 && parts[i-1] == "cabins" && !staticCabinSubpaths[part] {
			parts[i] = "{slug}"
		}
	}

	result := strings.Join(parts, "/")
	if result == "" {
		return "/"
	}

	return result
}

func isNumeric(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
