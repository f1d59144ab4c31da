package translate

import (
	"regexp"
	"strings"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// ContainsHTML reports whether the text carries markup that must survive
// translation byte-for-byte.
func ContainsHTML(text string) bool {
	return htmlTagPattern.MatchString(text)
}

// htmlPart is one run of either markup or plain text.
type htmlPart struct {
	tag  bool
	text string
}

// splitHTML breaks text into alternating tag and text runs. Joining the runs
// back reproduces the input exactly.
func splitHTML(text string) []htmlPart {
	parts := []htmlPart{}
	last := 0
	for _, loc := range htmlTagPattern.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			parts = append(parts, htmlPart{text: text[last:loc[0]]})
		}
		parts = append(parts, htmlPart{tag: true, text: text[loc[0]:loc[1]]})
		last = loc[1]
	}
	if last < len(text) {
		parts = append(parts, htmlPart{text: text[last:]})
	}
	return parts
}

func joinHTML(parts []htmlPart) string {
	var b strings.Builder
	for _, part := range parts {
		b.WriteString(part.text)
	}
	return b.String()
}
