// Package search finds candidate source URLs for a research topic.
package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Provider queries the MediaWiki search API for article URLs. Search failure
// is never fatal: a provider that cannot answer returns an empty slice so the
// caller can fall back to whatever sources the project already has.
type Provider struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
	Log       zerolog.Logger
}

func NewProvider(baseURL, userAgent string, logger zerolog.Logger) *Provider {
	if baseURL == "" {
		baseURL = "https://en.wikipedia.org/w/api.php"
	}
	return &Provider{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		Client:    &http.Client{Timeout: 20 * time.Second},
		Log:       logger,
	}
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

// Search returns up to max article URLs for the topic, or an empty slice when
// the API is unreachable or returns nothing usable.
func (p *Provider) Search(ctx context.Context, topic string, max int) []string {
	if max <= 0 {
		max = 5
	}

	api, err := url.Parse(p.BaseURL)
	if err != nil {
		p.Log.Warn().Err(err).Str("base_url", p.BaseURL).Msg("bad search base url")
		return nil
	}
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", topic)
	params.Set("srlimit", "20")
	params.Set("format", "json")
	api.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, api.String(), nil)
	if err != nil {
		p.Log.Warn().Err(err).Msg("build search request")
		return nil
	}
	req.Header.Set("User-Agent", p.UserAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		p.Log.Warn().Err(err).Str("topic", topic).Msg("search request failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.Log.Warn().Int("status", resp.StatusCode).Str("topic", topic).Msg("search returned non-200")
		return nil
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		p.Log.Warn().Err(err).Str("topic", topic).Msg("search response not decodable")
		return nil
	}

	urls := make([]string, 0, max)
	for _, hit := range parsed.Query.Search {
		if hit.Title == "" {
			continue
		}
		urls = append(urls, p.articleURL(api, hit.Title))
		if len(urls) >= max {
			break
		}
	}
	return urls
}

// articleURL maps a search hit title to a page URL on the same wiki host.
func (p *Provider) articleURL(api *url.URL, title string) string {
	page := &url.URL{
		Scheme: api.Scheme,
		Host:   api.Host,
		Path:   "/wiki/" + strings.ReplaceAll(title, " ", "_"),
	}
	return page.String()
}
