// Package autoresearch is the public API for the research pipeline: project
// management, crawling, report generation, IEEE expansion, question answering
// and document export.
package autoresearch

import (
	"context"
	"errors"
	"fmt"

	"github.com/allegro/bigcache/v3"
	"github.com/rs/zerolog"

	"github.com/autoresearch/autoresearch/internal/crawler"
	"github.com/autoresearch/autoresearch/internal/export"
	"github.com/autoresearch/autoresearch/internal/llm"
	"github.com/autoresearch/autoresearch/internal/report"
	"github.com/autoresearch/autoresearch/internal/scrape"
	"github.com/autoresearch/autoresearch/internal/search"
	"github.com/autoresearch/autoresearch/internal/storage"
)

// Sentinel errors surfaced by the engine. Wrapped values unwrap to these.
var (
	ErrNotFound        = storage.ErrNotFound
	ErrConflict        = storage.ErrConflict
	ErrNoUsableSources = report.ErrNoUsableSources
	ErrNoBaseReport    = report.ErrNoBaseReport
)

// Token is one streamed fragment of a generated answer.
type Token = llm.Token

// Engine wraps the internal storage, crawler, search, scraper and report
// pipeline behind one facade.
type Engine struct {
	store   *storage.Store
	crawler *crawler.Engine
	reports *report.Generator
	answers *report.Answerer
	cache   *bigcache.BigCache
	config  *storage.Config
	log     zerolog.Logger
}

// NewEngine creates a research engine backed by the given SQLite database.
// Ollama is only contacted when generation is requested.
func NewEngine(cfg EngineConfig, logger zerolog.Logger) (*Engine, error) {
	storeCfg := storage.DefaultConfig()
	if cfg.OllamaBaseURL != "" {
		storeCfg.Ollama.BaseURL = cfg.OllamaBaseURL
	}
	if cfg.Model != "" {
		storeCfg.Ollama.Model = cfg.Model
	}
	if cfg.OllamaTimeout > 0 {
		storeCfg.Ollama.Timeout = cfg.OllamaTimeout
	}
	if cfg.SearchBaseURL != "" {
		storeCfg.Search.BaseURL = cfg.SearchBaseURL
	}
	if cfg.UserAgent != "" {
		storeCfg.Crawler.UserAgent = cfg.UserAgent
	}
	if cfg.MaxPagesPerSource > 0 {
		storeCfg.Crawler.MaxPages = cfg.MaxPagesPerSource
	}
	if cfg.MaxSources > 0 {
		storeCfg.Report.MaxSources = cfg.MaxSources
	}
	if cfg.CacheLifeWindow > 0 {
		storeCfg.Cache.LifeWindow = cfg.CacheLifeWindow
	}
	storeCfg.Report.AutoIEEE = cfg.AutoIEEE
	if cfg.DBPath != "" {
		storeCfg.Database.Path = cfg.DBPath
	}

	return NewEngineFromConfig(storeCfg, logger)
}

// NewEngineFromConfig creates an engine from a full config, typically loaded
// from a YAML file.
func NewEngineFromConfig(cfg *storage.Config, logger zerolog.Logger) (*Engine, error) {
	store, err := storage.NewStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	model, err := llm.NewClient(cfg.Ollama.BaseURL, cfg.Ollama.Model, cfg.Ollama.Timeout)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create ollama client: %w", err)
	}

	cache, err := bigcache.New(context.Background(), bigcache.DefaultConfig(cfg.Cache.LifeWindow))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create answer cache: %w", err)
	}

	fetcher := crawler.NewFetcher(cfg.Crawler.UserAgent, cfg.Crawler.RequestsPerSecond, cfg.Crawler.FetchTimeout)
	crawlEngine := crawler.NewEngine(store, fetcher, cfg.Crawler.MaxPages, logger)

	provider := search.NewProvider(cfg.Search.BaseURL, cfg.Crawler.UserAgent, logger)
	scraper := scrape.NewScraper(cfg.Crawler.UserAgent, cfg.Scrape.MaxChars, cfg.Scrape.MinChars, logger)

	generator := report.NewGenerator(store, model, provider, scraper, cfg, logger)
	answerer := report.NewAnswerer(store, model, cache, logger)

	return &Engine{
		store:   store,
		crawler: crawlEngine,
		reports: generator,
		answers: answerer,
		cache:   cache,
		config:  cfg,
		log:     logger,
	}, nil
}

// CreateProject registers a research topic.
func (e *Engine) CreateProject(title, description string) (*Project, error) {
	id, err := e.store.CreateProject(title, description)
	if err != nil {
		return nil, err
	}
	return e.GetProject(id)
}

func (e *Engine) GetProject(projectID int64) (*Project, error) {
	p, err := e.store.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	project := projectFromInternal(*p)
	return &project, nil
}

func (e *Engine) ListProjects() ([]Project, error) {
	internal, err := e.store.ListProjects()
	if err != nil {
		return nil, err
	}
	projects := make([]Project, 0, len(internal))
	for _, p := range internal {
		projects = append(projects, projectFromInternal(p))
	}
	return projects, nil
}

// DeleteProject removes the project and everything derived from it.
func (e *Engine) DeleteProject(projectID int64) error {
	return e.store.DeleteProject(projectID)
}

// AddSource attaches a URL to the project. Adding the same URL twice returns
// ErrConflict.
func (e *Engine) AddSource(projectID int64, url, title string) (*Source, error) {
	if _, err := e.store.GetProject(projectID); err != nil {
		return nil, err
	}
	id, err := e.store.AddSource(projectID, url, title)
	if err != nil {
		return nil, err
	}
	sources, err := e.store.ListSources(projectID)
	if err != nil {
		return nil, err
	}
	for _, s := range sources {
		if s.ID == id {
			source := sourceFromInternal(s)
			return &source, nil
		}
	}
	return nil, fmt.Errorf("source %d: %w", id, ErrNotFound)
}

func (e *Engine) ListSources(projectID int64) ([]Source, error) {
	if _, err := e.store.GetProject(projectID); err != nil {
		return nil, err
	}
	internal, err := e.store.ListSources(projectID)
	if err != nil {
		return nil, err
	}
	sources := make([]Source, 0, len(internal))
	for _, s := range internal {
		sources = append(sources, sourceFromInternal(s))
	}
	return sources, nil
}

// AddFeedSources seeds the project's sources from an RSS or Atom feed.
func (e *Engine) AddFeedSources(ctx context.Context, projectID int64, feedURL string, max int) ([]Source, error) {
	if _, err := e.store.GetProject(projectID); err != nil {
		return nil, err
	}
	links, err := crawler.FeedLinks(ctx, feedURL, max)
	if err != nil {
		return nil, err
	}
	var added []Source
	for _, link := range links {
		src, err := e.AddSource(projectID, link, "")
		if errors.Is(err, ErrConflict) {
			continue
		}
		if err != nil {
			return added, err
		}
		added = append(added, *src)
	}
	return added, nil
}

// StartCrawl runs a crawl over all of the project's sources, tracking it as a
// job. The job record always reaches a terminal state.
func (e *Engine) StartCrawl(ctx context.Context, projectID int64) (*CrawlJob, int, error) {
	if _, err := e.store.GetProject(projectID); err != nil {
		return nil, 0, err
	}
	jobID, err := e.store.CreateCrawlJob(projectID)
	if err != nil {
		return nil, 0, err
	}
	if err := e.store.UpdateCrawlJobStatus(jobID, storage.CrawlRunning, ""); err != nil {
		return nil, 0, err
	}

	pages, crawlErr := e.crawler.CrawlProject(ctx, projectID)
	if crawlErr != nil {
		if err := e.store.UpdateCrawlJobStatus(jobID, storage.CrawlFailed, crawlErr.Error()); err != nil {
			e.log.Error().Err(err).Int64("job_id", jobID).Msg("mark crawl failed")
		}
	} else {
		if err := e.store.UpdateCrawlJobStatus(jobID, storage.CrawlSuccess, ""); err != nil {
			e.log.Error().Err(err).Int64("job_id", jobID).Msg("mark crawl success")
		}
	}

	job, err := e.store.GetCrawlJob(jobID)
	if err != nil {
		return nil, pages, err
	}
	public := jobFromInternal(*job)
	return &public, pages, crawlErr
}

func (e *Engine) ListCrawlJobs(projectID int64) ([]CrawlJob, error) {
	internal, err := e.store.ListCrawlJobs(projectID)
	if err != nil {
		return nil, err
	}
	jobs := make([]CrawlJob, 0, len(internal))
	for _, j := range internal {
		jobs = append(jobs, jobFromInternal(j))
	}
	return jobs, nil
}

// GenerateSimpleReport produces the project's report, gathering sources by
// search when the project has none.
func (e *Engine) GenerateSimpleReport(ctx context.Context, projectID int64) (*Report, error) {
	r, err := e.reports.GenerateSimpleReport(ctx, projectID)
	if err != nil {
		return nil, err
	}
	public := reportFromInternal(*r)
	return &public, nil
}

// GetReport returns the project's latest report.
func (e *Engine) GetReport(projectID int64) (*Report, error) {
	r, err := e.store.LatestReport(projectID)
	if err != nil {
		return nil, err
	}
	public := reportFromInternal(*r)
	return &public, nil
}

// ExpandToIEEE rewrites the latest report into IEEE paper format.
func (e *Engine) ExpandToIEEE(ctx context.Context, projectID int64) (*IEEEReport, error) {
	r, err := e.reports.ExpandToIEEE(ctx, projectID)
	if err != nil {
		return nil, err
	}
	public := ieeeFromInternal(*r)
	return &public, nil
}

// GetIEEE returns the project's latest IEEE report.
func (e *Engine) GetIEEE(projectID int64) (*IEEEReport, error) {
	r, err := e.store.LatestIEEEReport(projectID)
	if err != nil {
		return nil, err
	}
	public := ieeeFromInternal(*r)
	return &public, nil
}

// SplitReport splits the latest report into stored sections.
func (e *Engine) SplitReport(projectID int64) ([]ReportSection, error) {
	internal, err := e.reports.SplitReport(projectID)
	if err != nil {
		return nil, err
	}
	return sectionsFromInternal(internal), nil
}

// GetSections returns the sections of the project's latest report.
func (e *Engine) GetSections(projectID int64) ([]ReportSection, error) {
	r, err := e.store.LatestReport(projectID)
	if err != nil {
		return nil, err
	}
	internal, err := e.store.ListSections(r.ID)
	if err != nil {
		return nil, err
	}
	return sectionsFromInternal(internal), nil
}

// AskFromReport answers a question from the latest report. Repeated
// questions are served from the cache.
func (e *Engine) AskFromReport(ctx context.Context, projectID int64, question string) (string, error) {
	if _, err := e.store.GetProject(projectID); err != nil {
		return "", err
	}
	return e.answers.AskFromReport(ctx, projectID, question)
}

// AskFromReportStream streams the answer token by token.
func (e *Engine) AskFromReportStream(ctx context.Context, projectID int64, question string) (<-chan Token, error) {
	if _, err := e.store.GetProject(projectID); err != nil {
		return nil, err
	}
	return e.answers.AskFromReportStream(ctx, projectID, question)
}

// ExportWord renders the latest report as a .docx download.
func (e *Engine) ExportWord(projectID int64) (*Export, error) {
	r, err := e.store.LatestReport(projectID)
	if err != nil {
		return nil, err
	}
	data, err := export.Word(r.Title, r.FullContent)
	if err != nil {
		return nil, err
	}
	return &Export{
		Filename:    export.Filename("docx"),
		ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Data:        data,
	}, nil
}

// ExportPDF renders the latest report as a PDF download.
func (e *Engine) ExportPDF(projectID int64) (*Export, error) {
	r, err := e.store.LatestReport(projectID)
	if err != nil {
		return nil, err
	}
	data, err := export.PDF(r.Title, r.FullContent)
	if err != nil {
		return nil, err
	}
	return &Export{
		Filename:    export.Filename("pdf"),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

// Close releases the database and cache.
func (e *Engine) Close() error {
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			e.log.Warn().Err(err).Msg("close cache")
		}
	}
	return e.store.Close()
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() *storage.Config {
	return e.config
}

func projectFromInternal(p storage.Project) Project {
	return Project{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}

func sourceFromInternal(s storage.Source) Source {
	return Source{
		ID:        s.ID,
		ProjectID: s.ProjectID,
		URL:       s.URL,
		Title:     s.Title,
		CharCount: len(s.Content),
		CreatedAt: s.CreatedAt,
	}
}

func jobFromInternal(j storage.CrawlJob) CrawlJob {
	return CrawlJob{
		ID:           j.ID,
		ProjectID:    j.ProjectID,
		Status:       string(j.Status),
		StartedAt:    j.StartedAt,
		FinishedAt:   j.FinishedAt,
		ErrorMessage: j.ErrorMessage,
	}
}

func reportFromInternal(r storage.Report) Report {
	return Report{
		ID:          r.ID,
		ProjectID:   r.ProjectID,
		Title:       r.Title,
		Status:      string(r.Status),
		Progress:    r.Progress,
		CurrentStep: r.CurrentStep,
		FullContent: r.FullContent,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func ieeeFromInternal(r storage.IEEEReport) IEEEReport {
	return IEEEReport{
		ID:          r.ID,
		ProjectID:   r.ProjectID,
		Title:       r.Title,
		FullContent: r.FullContent,
		CreatedAt:   r.CreatedAt,
	}
}

func sectionsFromInternal(internal []storage.ReportSection) []ReportSection {
	sections := make([]ReportSection, 0, len(internal))
	for _, s := range internal {
		sections = append(sections, ReportSection{
			ID:         s.ID,
			ReportID:   s.ReportID,
			Title:      s.Title,
			OrderIndex: s.OrderIndex,
			Content:    s.Content,
		})
	}
	return sections
}
