// Package sanitize strips markup from free text before it reaches the core.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text removes every HTML element and returns plain, trimmed text.
// bluemonday escapes entities on output, so they are decoded back.
func Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// Fields sanitizes each argument and drops the ones left empty
func Fields(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if v := Text(a); v != "" {
			out = append(out, v)
		}
	}
	return out
}
