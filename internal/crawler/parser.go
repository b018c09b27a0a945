package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// ExtractTextAndLinks parses an HTML document, returning its visible text and
// the absolute http(s) links it contains, deduplicated in document order.
// Script, style and noscript content never appears in the text.
func ExtractTextAndLinks(htmlSrc, baseURL string) (string, []string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", nil, fmt.Errorf("parse base url %s: %w", baseURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlSrc))
	if err != nil {
		return "", nil, fmt.Errorf("parse html from %s: %w", baseURL, err)
	}

	var links []string
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		abs.Fragment = ""
		link := abs.String()
		if !seen[link] {
			seen[link] = true
			links = append(links, link)
		}
	})

	doc.Find("script, style, noscript, header, footer, nav, form, aside").Remove()
	rendered, err := doc.Html()
	if err != nil {
		return "", nil, fmt.Errorf("render cleaned html: %w", err)
	}
	text := UnescapeAndClean(stripPolicy.Sanitize(rendered))

	return text, links, nil
}
