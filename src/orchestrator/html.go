package orchestrator

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// renderHTML converts a pre-rendered HTML chunk into markdown for the
// terminal transcript. Conversion failures fall back to the plain text of
// the document, and as a last resort the raw HTML.
func (o *Orchestrator) renderHTML(rawHTML string) string {
	cleaned, err := stripScripts(rawHTML)
	if err != nil {
		o.logger.Warn("failed to parse html chunk", "error", err)
		cleaned = rawHTML
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(cleaned)
	if err != nil {
		o.logger.Warn("failed to convert html chunk to markdown", "error", err)
		return extractText(rawHTML)
	}

	markdown = strings.TrimSpace(markdown)
	markdown = strings.ReplaceAll(markdown, "\n\n\n", "\n\n")
	return markdown
}

// stripScripts removes script and style tags before conversion.
func stripScripts(rawHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}
	doc.Find("script, style").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})
	return doc.Html()
}

// extractText returns the plain text of an HTML fragment.
func extractText(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}
	return strings.TrimSpace(doc.Text())
}
