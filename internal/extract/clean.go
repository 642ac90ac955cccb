package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageText reduces a fetched HTML document to the visible text the model
// should read. Script, style and boilerplate chrome are stripped and
// whitespace collapsed; the result is capped at maxChars to keep prompts
// inside the backend's context window.
func PageText(body []byte, maxChars int) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, svg, iframe, nav, footer").Remove()

	text := strings.Join(strings.Fields(doc.Text()), " ")
	if maxChars > 0 && len(text) > maxChars {
		text = text[:maxChars]
	}
	return text, nil
}
