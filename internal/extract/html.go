package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// Documents arrive either as plain text or as saved web pages (an
// opinion or brief downloaded from a court site). Markup has to be
// flattened before scanning: citation spans must not be interrupted
// by tags, and case names must not bleed across block boundaries.

var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "ul": true, "ol": true,
	"tr": true, "table": true, "blockquote": true, "pre": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "header": true, "footer": true,
}

// LooksLikeHTML sniffs whether a document is a web page rather than
// plain text. Only a document that opens with markup qualifies; legal
// text that merely mentions a tag somewhere is left alone.
func LooksLikeHTML(text string) bool {
	head := text
	if len(head) > 1024 {
		head = head[:1024]
	}
	head = strings.ToLower(strings.TrimLeft(head, " \t\r\n\uFEFF"))

	if strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html") {
		return true
	}
	// XHTML pages open with an XML declaration before the root element
	if strings.HasPrefix(head, "<?xml") && strings.Contains(head, "<html") {
		return true
	}
	return false
}

// TextFromHTML renders a page down to its visible text. Script, style,
// noscript and iframe subtrees are dropped. Inline elements join with
// spaces, so a citation split across tags ("347 <i>U.S.</i> 483")
// survives as one span; block elements end with a newline, so a case
// name in one paragraph cannot attach to a citation in the next. An
// unparseable document comes back unchanged.
func TextFromHTML(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return content
	}

	var b strings.Builder
	var walk func(*html.Node)

	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			case "br":
				b.WriteByte('\n')
				return
			}
		}

		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				b.WriteString(text)
				b.WriteByte(' ')
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blockTags[n.Data] {
			b.WriteByte('\n')
		}
	}

	walk(doc)
	return strings.TrimSpace(b.String())
}
