package draftdb

import (
	"strings"

	"golang.org/x/net/html"
)

// renderPlainText extracts the text content of an item template. Block
// boundaries and <br> become newlines so the result reads like the source
// paste the template was generated from.
func renderPlainText(src string) string {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		// Not expected: html.Parse is error-tolerant. Fall back to the raw
		// source rather than dropping the item.
		return strings.TrimSpace(src)
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			switch n.Data {
			case "br", "p", "div", "li", "tr":
				b.WriteString("\n")
			case "script", "style":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	lines := strings.Split(b.String(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return strings.Join(out, "\n")
}
