package translate

import (
	"fmt"
	"regexp"
	"strings"
)

// Segment is one translatable string inside a layout document, addressed by
// its path, e.g. components[2].props.heading.
type Segment struct {
	Path string
	Text string
}

// skipFields never carry human language: identifiers, asset references, and
// machine-facing component settings.
var skipFields = map[string]bool{
	"id":          true,
	"src":         true,
	"link":        true,
	"url":         true,
	"image":       true,
	"images":      true,
	"avatar":      true,
	"logo":        true,
	"phonenumber": true,
	"email":       true,
	"date":        true,
	"rating":      true,
	"version":     true,
	"sort_order":  true,
	"level":       true,
	"required":    true,
	"value":       true,
	"type":        true,
	"key":         true,
}

// identifierPattern matches slug- and token-like strings: one run of
// word characters without spaces. Prose always contains spaces or
// punctuation, so anything matching this is configuration, not copy.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ExtractSegments walks the document and returns every string that looks like
// human-readable copy, with the path needed to put a translation back.
func ExtractSegments(doc map[string]any) []Segment {
	segments := []Segment{}
	walkMap(doc, "", func(path, text string) {
		segments = append(segments, Segment{Path: path, Text: text})
	})
	return segments
}

// Reinject returns a copy of the document with translated strings substituted
// at their original paths. Paths without a translation keep the source text.
func Reinject(doc map[string]any, translations map[string]string) map[string]any {
	cloned := cloneMap(doc)
	walkMapMutate(cloned, "", translations)
	return cloned
}

func walkMap(node map[string]any, prefix string, visit func(path, text string)) {
	for key, value := range node {
		path := joinPath(prefix, key)
		walkValue(value, key, path, visit)
	}
}

func walkValue(value any, field, path string, visit func(path, text string)) {
	switch typed := value.(type) {
	case string:
		if Translatable(field, typed) {
			visit(path, typed)
		}
	case map[string]any:
		walkMap(typed, path, visit)
	case []any:
		for i, item := range typed {
			walkValue(item, field, fmt.Sprintf("%s[%d]", path, i), visit)
		}
	}
}

// Translatable reports whether a string field holds copy worth sending to the
// translator.
func Translatable(field, text string) bool {
	if skipFields[strings.ToLower(field)] {
		return false
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	// Anything that starts with http or a path separator is a link, not copy.
	if strings.HasPrefix(trimmed, "http") || strings.HasPrefix(trimmed, "/") {
		return false
	}
	if identifierPattern.MatchString(trimmed) {
		return false
	}
	return true
}

func walkMapMutate(node map[string]any, prefix string, translations map[string]string) {
	for key, value := range node {
		path := joinPath(prefix, key)
		node[key] = mutateValue(value, key, path, translations)
	}
}

func mutateValue(value any, field, path string, translations map[string]string) any {
	switch typed := value.(type) {
	case string:
		if translated, ok := translations[path]; ok {
			return translated
		}
		return typed
	case map[string]any:
		walkMapMutate(typed, path, translations)
		return typed
	case []any:
		for i, item := range typed {
			typed[i] = mutateValue(item, field, fmt.Sprintf("%s[%d]", path, i), translations)
		}
		return typed
	default:
		return value
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func cloneMap(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return cloneMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return value
	}
}
