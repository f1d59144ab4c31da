package translate

import "strings"

// sentenceBreaks are the boundaries chunking prefers, in order.
var sentenceBreaks = []string{". ", "! ", "? ", "\n"}

// SplitIntoChunks breaks text into pieces no larger than maxBytes, preferring
// sentence boundaries and falling back to word boundaries. A single word
// larger than the budget is emitted whole rather than split mid-word.
func SplitIntoChunks(text string, maxBytes int) []string {
	if maxBytes <= 0 || len(text) <= maxBytes {
		return []string{text}
	}

	chunks := []string{}
	var current strings.Builder
	for _, sentence := range splitSentences(text) {
		if current.Len() > 0 && current.Len()+len(sentence) > maxBytes {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if len(sentence) > maxBytes {
			chunks = append(chunks, splitWords(sentence, maxBytes)...)
			continue
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// splitSentences cuts text after sentence-ending punctuation, keeping the
// delimiter with the preceding sentence so rejoining is lossless.
func splitSentences(text string) []string {
	out := []string{}
	rest := text
	for rest != "" {
		cut := -1
		for _, brk := range sentenceBreaks {
			if idx := strings.Index(rest, brk); idx >= 0 {
				end := idx + len(brk)
				if cut < 0 || end < cut {
					cut = end
				}
			}
		}
		if cut < 0 {
			out = append(out, rest)
			break
		}
		out = append(out, rest[:cut])
		rest = rest[cut:]
	}
	return out
}

func splitWords(text string, maxBytes int) []string {
	out := []string{}
	var current strings.Builder
	for _, word := range strings.SplitAfter(text, " ") {
		if current.Len() > 0 && current.Len()+len(word) > maxBytes {
			out = append(out, current.String())
			current.Reset()
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}
