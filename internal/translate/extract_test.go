package translate

import (
	"reflect"
	"testing"
)

func layoutDoc() map[string]any {
	return map[string]any{
		"components": []any{
			map[string]any{
				"id":   "hero-1",
				"type": "hero",
				"props": map[string]any{
					"heading":    "Welcome to our site",
					"subheading": "We build things.",
					"image":      "hero.png",
					"link":       "/contact",
					"cta":        "Get in touch!",
				},
			},
			map[string]any{
				"id":   "features-1",
				"type": "features",
				"props": map[string]any{
					"items": []any{
						map[string]any{"title": "Fast delivery", "icon": "bolt"},
						map[string]any{"title": "Fair pricing", "url": "https://example.com/pricing"},
					},
				},
			},
		},
	}
}

func TestExtractSegmentsSkipsNonCopy(t *testing.T) {
	segments := ExtractSegments(layoutDoc())

	got := make(map[string]string, len(segments))
	for _, segment := range segments {
		got[segment.Path] = segment.Text
	}
	want := map[string]string{
		"components[0].props.heading":        "Welcome to our site",
		"components[0].props.subheading":     "We build things.",
		"components[0].props.cta":            "Get in touch!",
		"components[1].props.items[0].title": "Fast delivery",
		"components[1].props.items[1].title": "Fair pricing",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractSegments() = %v, want %v", got, want)
	}
}

func TestTranslatableRules(t *testing.T) {
	cases := []struct {
		field string
		text  string
		want  bool
	}{
		{"heading", "Hello there", true},
		{"heading", "hero-1", false},
		{"heading", "   ", false},
		{"heading", "https://example.com", false},
		{"heading", "http shortcut text", false},
		{"heading", "httpbin.org/anything", false},
		{"heading", "/about-us", false},
		{"id", "Hello there", false},
		{"URL", "Hello there", false},
		{"phoneNumber", "call me maybe", false},
		{"description", "One. Two.", true},
	}
	for _, tc := range cases {
		if got := Translatable(tc.field, tc.text); got != tc.want {
			t.Fatalf("Translatable(%q, %q) = %v, want %v", tc.field, tc.text, got, tc.want)
		}
	}
}

func TestReinjectRoundTrip(t *testing.T) {
	doc := layoutDoc()
	segments := ExtractSegments(doc)
	translations := make(map[string]string, len(segments))
	for _, segment := range segments {
		translations[segment.Path] = "[fr] " + segment.Text
	}

	out := Reinject(doc, translations)

	heading := out["components"].([]any)[0].(map[string]any)["props"].(map[string]any)["heading"]
	if heading != "[fr] Welcome to our site" {
		t.Fatalf("expected translated heading, got %v", heading)
	}
	// Skipped fields survive untouched.
	props := out["components"].([]any)[0].(map[string]any)["props"].(map[string]any)
	if props["image"] != "hero.png" || props["link"] != "/contact" {
		t.Fatalf("expected non-copy fields untouched, got %v", props)
	}
	// The input document is not mutated.
	original := layoutDoc()
	if !reflect.DeepEqual(doc, original) {
		t.Fatal("Reinject mutated its input")
	}
}

func TestSplitIntoChunksRespectsBudget(t *testing.T) {
	text := "First sentence here. Second sentence follows! Third one asks? Fourth closes."
	chunks := SplitIntoChunks(text, 30)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	var rebuilt string
	for _, chunk := range chunks {
		if len(chunk) > 30 {
			t.Fatalf("chunk over budget: %q (%d bytes)", chunk, len(chunk))
		}
		rebuilt += chunk
	}
	if rebuilt != text {
		t.Fatalf("chunks do not rebuild input:\n%q\n%q", rebuilt, text)
	}
}

func TestSplitIntoChunksOversizedWord(t *testing.T) {
	word := "supercalifragilisticexpialidocious"
	chunks := SplitIntoChunks(word, 10)
	if len(chunks) != 1 || chunks[0] != word {
		t.Fatalf("expected oversized word emitted whole, got %v", chunks)
	}
}

func TestSplitHTMLPreservesMarkup(t *testing.T) {
	text := `<p>Hello <strong>world</strong></p>`
	parts := splitHTML(text)
	if joinHTML(parts) != text {
		t.Fatalf("splitHTML/joinHTML not lossless: %q", joinHTML(parts))
	}
	tags := 0
	for _, part := range parts {
		if part.tag {
			tags++
		}
	}
	if tags != 4 {
		t.Fatalf("expected 4 tag runs, got %d", tags)
	}
}
