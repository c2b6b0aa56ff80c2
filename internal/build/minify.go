package build

import (
	"regexp"
	"strings"
)

var (
	whitespaceRuns = regexp.MustCompile(`\s+`)
	interTagSpace  = regexp.MustCompile(`>\s+<`)
	htmlComments   = regexp.MustCompile(`(?s)<!--.*?-->`)
)

// Minify performs best-effort textual HTML compaction: whitespace runs
// collapse to a single space, inter-tag whitespace is removed, and HTML
// comments are stripped.
//
// This is not a parser. Meaningful whitespace inside <pre>, <script> or
// <textarea> blocks is not preserved; the site's pages carry none.
func Minify(html string) string {
	html = whitespaceRuns.ReplaceAllString(html, " ")
	html = interTagSpace.ReplaceAllString(html, "><")
	html = htmlComments.ReplaceAllString(html, "")
	return strings.TrimSpace(html)
}
