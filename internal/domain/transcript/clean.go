package transcript

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// Inline word timings from auto captions: <00:00:01.234> or <01:02.500>.
	reTimingTag = regexp.MustCompile(`<\d{1,2}:\d{2}(?::\d{2})?[.,]\d{1,3}>`)
	reMarker    = regexp.MustCompile(`>{2,}`)
	reBracketed = regexp.MustCompile(`\[[^\]]*\]`)

	markup = bluemonday.StrictPolicy()
)

// CleanText strips caption markup from a single cue and collapses whitespace.
func CleanText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	s = reTimingTag.ReplaceAllString(s, " ")
	// The strict policy drops every tag and re-escapes text, so entities are
	// decoded only once, after sanitizing.
	s = markup.Sanitize(s)
	s = html.UnescapeString(s)
	s = reMarker.ReplaceAllString(s, " ")
	s = reBracketed.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// ExtractNewText returns the part of cur that is not a repeat of last.
// Auto captions often re-emit the previous cue's words before adding new
// ones; matching is case-insensitive.
func ExtractNewText(last, cur string) string {
	if len(cur) >= len(last) && strings.EqualFold(cur[:len(last)], last) {
		return strings.TrimSpace(cur[len(last):])
	}
	cw := strings.Fields(cur)
	k := wordOverlap(strings.Fields(last), cw)
	return strings.Join(cw[k:], " ")
}

// wordOverlap returns the largest k such that the last k words of prev equal
// the first k words of next.
func wordOverlap(prev, next []string) int {
	for k := min(len(prev), len(next)); k > 0; k-- {
		if wordsEqualFold(prev[len(prev)-k:], next[:k]) {
			return k
		}
	}
	return 0
}

func wordsEqualFold(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}
