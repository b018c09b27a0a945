// Package scrape extracts readable article text from a single web page.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/autoresearch/autoresearch/internal/crawler"
	"github.com/autoresearch/autoresearch/internal/nlp"
)

var stripPolicy = bluemonday.StrictPolicy()

// Scraper fetches one page and boils it down to title plus body text.
type Scraper struct {
	Client    *http.Client
	UserAgent string
	MaxChars  int
	MinChars  int
	Log       zerolog.Logger
}

func NewScraper(userAgent string, maxChars, minChars int, logger zerolog.Logger) *Scraper {
	if maxChars <= 0 {
		maxChars = 30000
	}
	if minChars <= 0 {
		minChars = 300
	}
	return &Scraper{
		Client:    &http.Client{Timeout: 25 * time.Second},
		UserAgent: userAgent,
		MaxChars:  maxChars,
		MinChars:  minChars,
		Log:       logger,
	}
}

// Scrape fetches the URL and returns its title and cleaned body text. Pages
// whose extracted text is shorter than MinChars come back with empty content
// so callers can tell a stub from a usable source.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("build request for %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("scrape %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", fmt.Errorf("scrape %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("read body of %s: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", "", fmt.Errorf("parse html from %s: %w", pageURL, err)
	}

	title := crawler.CleanText(doc.Find("title").First().Text())
	doc.Find("script, style, noscript, header, footer, nav, form, aside").Remove()

	content := nlp.TruncateRunes(s.extract(doc), s.MaxChars)
	if len(content) < s.MinChars {
		s.Log.Debug().Str("url", pageURL).Int("chars", len(content)).Msg("page too short, treating as stub")
		return title, "", nil
	}
	return title, content, nil
}

// extract prefers the main content region when the page marks one.
func (s *Scraper) extract(doc *goquery.Document) string {
	for _, region := range []string{"#mw-content-text", "article", "main"} {
		if sel := doc.Find(region).First(); sel.Length() > 0 {
			return textOf(sel)
		}
	}
	return textOf(doc.Find("body").First())
}

func textOf(sel *goquery.Selection) string {
	rendered, err := goquery.OuterHtml(sel)
	if err != nil {
		return ""
	}
	return crawler.UnescapeAndClean(stripPolicy.Sanitize(rendered))
}
