// Package report turns a project's gathered material into research reports:
// simple section-by-section generation, IEEE expansion, section splitting and
// question answering over the result.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/autoresearch/autoresearch/internal/llm"
	"github.com/autoresearch/autoresearch/internal/nlp"
	"github.com/autoresearch/autoresearch/internal/storage"
)

var (
	// ErrNoUsableSources means no source yielded enough text to write from.
	ErrNoUsableSources = errors.New("no usable sources for report generation")
	// ErrNoBaseReport means IEEE expansion was requested before any report
	// exists.
	ErrNoBaseReport = errors.New("no base report to expand")
)

// LLM is the slice of the Ollama client the report pipeline needs.
type LLM interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
	GenerateStream(ctx context.Context, prompt string, temperature float64) <-chan llm.Token
}

// Searcher finds candidate source URLs for a topic.
type Searcher interface {
	Search(ctx context.Context, topic string, max int) []string
}

// Scraper extracts title and body text from one URL.
type Scraper interface {
	Scrape(ctx context.Context, url string) (string, string, error)
}

type Generator struct {
	store  *storage.Store
	llm    LLM
	search Searcher
	scrape Scraper
	cfg    *storage.Config
	log    zerolog.Logger
}

func NewGenerator(store *storage.Store, model LLM, search Searcher, scrape Scraper, cfg *storage.Config, logger zerolog.Logger) *Generator {
	if cfg == nil {
		cfg = storage.DefaultConfig()
	}
	return &Generator{
		store:  store,
		llm:    model,
		search: search,
		scrape: scrape,
		cfg:    cfg,
		log:    logger,
	}
}

// GenerateSimpleReport produces (or returns) the project's report. A recent
// complete report above the reuse threshold is returned unchanged, so the
// operation is idempotent for a settled project.
func (g *Generator) GenerateSimpleReport(ctx context.Context, projectID int64) (*storage.Report, error) {
	project, err := g.store.GetProject(projectID)
	if err != nil {
		return nil, err
	}

	existing, err := g.store.LatestReport(projectID)
	if err == nil && existing.Status == storage.ReportComplete &&
		len(existing.FullContent) >= g.cfg.Report.ReuseThreshold {
		g.log.Info().Int64("report_id", existing.ID).Msg("reusing existing report")
		return existing, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	reportID, err := g.store.CreateReport(projectID, "Research Report: "+project.Title)
	if err != nil {
		return nil, err
	}

	if err := g.gatherSources(ctx, project); err != nil {
		g.log.Warn().Err(err).Msg("source gathering incomplete")
	}

	pool, err := g.store.LatestChunks(projectID, 40)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		if err := g.store.UpdateReportStatus(reportID, storage.ReportFailed); err != nil {
			g.log.Error().Err(err).Msg("mark report failed")
		}
		return nil, ErrNoUsableSources
	}

	usedSources := make(map[int64]bool, len(pool))
	for _, chunk := range pool {
		usedSources[chunk.SourceID] = true
	}

	var content strings.Builder
	fmt.Fprintf(&content, "# Research Report: %s\n\n", project.Title)
	steps := len(sectionPlan) + 1 // sections plus references
	for i, sec := range sectionPlan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		window := contextWindow(pool, i, g.cfg.Report.ContextChunks, 800)
		text, err := g.llm.Generate(ctx, sectionPrompt(project.Title, sec, window), 0.4)
		if err != nil || len(text) < g.cfg.Report.MinSectionChars {
			if err != nil {
				g.log.Warn().Err(err).Str("section", sec.Key).Msg("section generation failed, using fallback")
			} else {
				g.log.Warn().Str("section", sec.Key).Int("chars", len(text)).Msg("section too short, using fallback")
			}
			text = fallbackSection(sec, window)
		}
		fmt.Fprintf(&content, "## %s\n\n%s\n\n", sec.Title, text)

		progress := (i + 1) * 100 / steps
		if err := g.store.UpdateReportContent(reportID, content.String(), progress, sec.Title); err != nil {
			return nil, err
		}
	}

	sources, err := g.store.ListSources(projectID)
	if err != nil {
		return nil, err
	}
	content.WriteString("## References\n\n")
	ref := 0
	for _, src := range sources {
		if !usedSources[src.ID] {
			continue
		}
		ref++
		fmt.Fprintf(&content, "%d. %s\n", ref, src.URL)
	}
	if err := g.store.UpdateReportContent(reportID, content.String(), 100, "References"); err != nil {
		return nil, err
	}
	if err := g.store.UpdateReportStatus(reportID, storage.ReportComplete); err != nil {
		return nil, err
	}
	g.log.Info().Int64("report_id", reportID).Int("sources", ref).Msg("report complete")

	if g.cfg.Report.AutoIEEE {
		if _, err := g.ExpandToIEEE(ctx, projectID); err != nil {
			g.log.Warn().Err(err).Msg("auto ieee expansion failed")
		}
	}

	return g.store.GetReport(reportID)
}

// gatherSources searches for the topic, scrapes the hits and persists their
// text as word chunks. Per-source failures are logged and skipped.
func (g *Generator) gatherSources(ctx context.Context, project *storage.Project) error {
	urls := g.search.Search(ctx, project.Title, g.cfg.Search.MaxResults)
	usable := 0
	for _, pageURL := range urls {
		if usable >= g.cfg.Report.MaxSources {
			break
		}
		title, text, err := g.scrape.Scrape(ctx, pageURL)
		if err != nil {
			g.log.Warn().Err(err).Str("url", pageURL).Msg("scrape failed")
			continue
		}
		if len(text) < g.cfg.Report.MinSourceChars {
			g.log.Debug().Str("url", pageURL).Msg("source too thin, skipping")
			continue
		}

		sourceID, err := g.store.AddSource(project.ID, pageURL, title)
		if errors.Is(err, storage.ErrConflict) {
			src, lookupErr := g.store.GetSourceByURL(project.ID, pageURL)
			if lookupErr != nil {
				g.log.Warn().Err(lookupErr).Str("url", pageURL).Msg("conflicting source lookup failed")
				continue
			}
			sourceID = src.ID
		} else if err != nil {
			g.log.Warn().Err(err).Str("url", pageURL).Msg("source store failed")
			continue
		}

		if err := g.store.UpdateSourceContent(sourceID, title, text); err != nil {
			g.log.Warn().Err(err).Str("url", pageURL).Msg("source update failed")
			continue
		}
		chunks := nlp.ChunkByWords(text, g.cfg.Report.ChunkWords)
		if err := g.store.AddChunks(sourceID, 0, chunks); err != nil {
			// Already chunked by a previous run.
			g.log.Debug().Err(err).Str("url", pageURL).Msg("chunks not added")
		}
		usable++
	}
	if len(urls) == 0 {
		return fmt.Errorf("search returned no candidates for %q", project.Title)
	}
	return nil
}
