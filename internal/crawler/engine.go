// Package crawler walks a project's sources breadth-first, persisting the
// pages it visits and their text chunks.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/autoresearch/autoresearch/internal/nlp"
	"github.com/autoresearch/autoresearch/internal/storage"
)

// Engine drives the per-source BFS crawl.
type Engine struct {
	store      *storage.Store
	fetcher    *Fetcher
	maxPages   int
	chunkChars int
	log        zerolog.Logger
}

func NewEngine(store *storage.Store, fetcher *Fetcher, maxPages int, logger zerolog.Logger) *Engine {
	if maxPages <= 0 {
		maxPages = 20
	}
	return &Engine{
		store:      store,
		fetcher:    fetcher,
		maxPages:   maxPages,
		chunkChars: 1000,
		log:        logger,
	}
}

// CrawlProject crawls every source of the project and returns the number of
// pages stored. A project with no sources is an error; individual page
// failures are logged and skipped.
func (e *Engine) CrawlProject(ctx context.Context, projectID int64) (int, error) {
	sources, err := e.store.ListSources(projectID)
	if err != nil {
		return 0, fmt.Errorf("list sources for project %d: %w", projectID, err)
	}
	if len(sources) == 0 {
		return 0, fmt.Errorf("project %d has no sources to crawl", projectID)
	}

	total := 0
	for _, src := range sources {
		n, err := e.crawlSource(ctx, src)
		if err != nil {
			e.log.Warn().Err(err).Str("url", src.URL).Msg("source crawl failed")
			continue
		}
		total += n
	}
	return total, nil
}

func (e *Engine) crawlSource(ctx context.Context, src storage.Source) (int, error) {
	start, err := normalizeURL(src.URL)
	if err != nil {
		return 0, err
	}
	host := start.Host

	visited := map[string]bool{start.String(): true}
	queue := []string{start.String()}
	stored := 0

	for len(queue) > 0 && stored < e.maxPages {
		if err := ctx.Err(); err != nil {
			return stored, err
		}
		current := queue[0]
		queue = queue[1:]

		body, err := e.fetcher.Fetch(ctx, current)
		if err != nil {
			e.log.Warn().Err(err).Str("url", current).Msg("page fetch failed")
			continue
		}

		text, links, err := ExtractTextAndLinks(body, current)
		if err != nil {
			e.log.Warn().Err(err).Str("url", current).Msg("page parse failed")
			continue
		}

		pageID, err := e.store.AddPage(&storage.Page{
			SourceID:    src.ID,
			URL:         current,
			Status:      storage.PageCrawled,
			RawHTML:     body,
			CleanedText: text,
		})
		if errors.Is(err, storage.ErrConflict) {
			// Already stored by an earlier crawl of this source.
			continue
		}
		if err != nil {
			e.log.Warn().Err(err).Str("url", current).Msg("page store failed")
			continue
		}
		if chunks := nlp.ChunkByChars(text, e.chunkChars); len(chunks) > 0 {
			if err := e.store.AddChunks(src.ID, pageID, chunks); err != nil {
				e.log.Warn().Err(err).Str("url", current).Msg("chunk store failed")
			}
		}
		stored++
		e.log.Debug().Str("url", current).Int("links", len(links)).Msg("page crawled")

		for _, link := range links {
			parsed, err := url.Parse(link)
			if err != nil || parsed.Host != host {
				continue
			}
			if !visited[link] {
				visited[link] = true
				queue = append(queue, link)
			}
		}
	}

	e.log.Info().Str("url", src.URL).Int("pages", stored).Msg("source crawl complete")
	return stored, nil
}

func normalizeURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse source url %s: %w", raw, err)
	}
	if u.Scheme == "" {
		u, err = url.Parse("https://" + raw)
		if err != nil {
			return nil, fmt.Errorf("parse source url %s: %w", raw, err)
		}
	}
	if u.Host == "" {
		return nil, fmt.Errorf("source url %s has no host", raw)
	}
	return u, nil
}
