package remote

import (
	"strings"

	"golang.org/x/net/html"
)

// HTMLToText flattens an HTML fragment to plain text. Block elements become line
// breaks, runs of whitespace collapse, and script or style content is dropped.
func HTMLToText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}

	var sb strings.Builder
	extractText(doc, &sb, 0)
	return cleanText(sb.String())
}

func extractText(n *html.Node, sb *strings.Builder, depth int) {
	if depth > 100 {
		return
	}

	switch n.Type {
	case html.TextNode:
		sb.WriteString(strings.ReplaceAll(n.Data, "\n", " "))
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template":
			return
		case "br":
			sb.WriteString("\n")
			return
		case "p", "div", "section", "article", "header", "footer", "blockquote",
			"h1", "h2", "h3", "h4", "h5", "h6", "li", "dd", "dt", "tr":
			sb.WriteString("\n\n")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, sb, depth+1)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "section", "article", "header", "footer", "blockquote",
			"h1", "h2", "h3", "h4", "h5", "h6", "li", "dd", "dt", "tr":
			sb.WriteString("\n\n")
		}
	}
}

// cleanText collapses spaces within lines and blank-line runs between paragraphs.
func cleanText(s string) string {
	var paragraphs []string
	for _, block := range strings.Split(s, "\n\n") {
		var lines []string
		for _, line := range strings.Split(block, "\n") {
			if l := strings.Join(strings.Fields(line), " "); l != "" {
				lines = append(lines, l)
			}
		}
		if len(lines) > 0 {
			paragraphs = append(paragraphs, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(paragraphs, "\n\n")
}
