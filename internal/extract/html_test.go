package extract

import (
	"strings"
	"testing"
)

func TestLooksLikeHTML(t *testing.T) {
	cases := []struct {
		name string
		text string
		want bool
	}{
		{"doctype", "<!DOCTYPE html>\n<html><body>x</body></html>", true},
		{"html prefix", "<html lang=\"en\"><head></head></html>", true},
		{"leading whitespace", "\n\t  <!doctype html><html></html>", true},
		{"xml declaration", "<?xml version=\"1.0\"?>\n<html xmlns=\"http://www.w3.org/1999/xhtml\"></html>", true},
		{"plain text", "Brown v. Board of Education, 347 U.S. 483 (1954)", false},
		{"tag mentioned mid-text", "The brief described an <html> element in passing.", false},
		{"empty", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := LooksLikeHTML(tc.text); got != tc.want {
				t.Errorf("Expected %v for %q, got %v", tc.want, tc.name, got)
			}
		})
	}
}

func TestTextFromHTML_SkipsInvisibleElements(t *testing.T) {
	page := `
	<html>
	<head>
		<script>var cite = "999 U.S. 111";</script>
		<style>body { color: red; }</style>
	</head>
	<body>
		<p>Visible paragraph text.</p>
		<noscript>Noscript content</noscript>
		<iframe src="example.com">Iframe content</iframe>
		<p>Another visible paragraph.</p>
	</body>
	</html>
	`

	text := TextFromHTML(page)

	if !strings.Contains(text, "Visible paragraph") {
		t.Error("Expected to keep visible paragraph text")
	}
	if !strings.Contains(text, "Another visible paragraph") {
		t.Error("Expected to keep second visible paragraph")
	}
	if strings.Contains(text, "999 U.S. 111") {
		t.Error("Should not keep script content")
	}
	if strings.Contains(text, "color: red") {
		t.Error("Should not keep style content")
	}
	if strings.Contains(text, "Noscript content") {
		t.Error("Should not keep noscript content")
	}
	if strings.Contains(text, "Iframe content") {
		t.Error("Should not keep iframe content")
	}
}

func TestTextFromHTML_CitationSurvivesInlineMarkup(t *testing.T) {
	page := `<html><body><p>Brown v. Board of Education, 347 <i>U.S.</i> 483 (1954)</p></body></html>`

	text := TextFromHTML(page)

	if !strings.Contains(text, "347 U.S. 483") {
		t.Errorf("Expected citation to survive inline tags, got %q", text)
	}

	cites := newTestExtractor().Extract(text)
	if len(cites) != 1 {
		t.Fatalf("Expected 1 citation from flattened page, got %d", len(cites))
	}
	if cites[0].ExtractedCaseName != "Brown v. Board of Education" {
		t.Errorf("Expected case name to survive flattening, got %q", cites[0].ExtractedCaseName)
	}
}

func TestTextFromHTML_BlockBoundariesBreakLines(t *testing.T) {
	page := `<html><body><p>Miranda v. Arizona was decided in 1966.</p><p>See 384 U.S. 436.</p></body></html>`

	text := TextFromHTML(page)

	first := strings.Index(text, "1966.")
	second := strings.Index(text, "See")
	if first == -1 || second == -1 {
		t.Fatalf("Expected both paragraphs in output, got %q", text)
	}
	between := text[first:second]
	if !strings.Contains(between, "\n") {
		t.Errorf("Expected a line break between paragraphs, got %q", text)
	}
}

func TestTextFromHTML_EmptyPage(t *testing.T) {
	if got := TextFromHTML("<html><body></body></html>"); got != "" {
		t.Errorf("Expected empty output for empty page, got %q", got)
	}
}
