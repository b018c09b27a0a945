package autoresearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// mockWiki serves both the search API and the articles it points at.
func mockWiki(t *testing.T) *httptest.Server {
	t.Helper()
	body := strings.Repeat("Alpha is a well studied research subject with many published results. ", 20)
	mux := http.NewServeMux()
	mux.HandleFunc("/w/api.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"query":{"search":[{"title":"Alpha"}]}}`)
	})
	mux.HandleFunc("/wiki/Alpha", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head><title>Alpha</title></head><body><div id="mw-content-text"><p>%s</p></div></body></html>`, body)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func mockOllama(t *testing.T, response string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintf(w, `{"model":"test","response":%q,"done":false}`+"\n", response)
		fmt.Fprint(w, `{"model":"test","response":"","done":true}`+"\n")
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	wiki := mockWiki(t)
	ollama := mockOllama(t, strings.Repeat("Generated analysis of the subject with enough substance to stand as a section. ", 5))

	engine, err := NewEngine(EngineConfig{
		DBPath:        filepath.Join(t.TempDir(), "test.db"),
		OllamaBaseURL: ollama.URL,
		Model:         "test",
		OllamaTimeout: time.Minute,
		SearchBaseURL: wiki.URL + "/w/api.php",
		UserAgent:     "test-agent",
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine
}

func TestEngineProjectLifecycle(t *testing.T) {
	engine := newTestEngine(t)

	project, err := engine.CreateProject("Quantum Computing", "intro survey")
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if project.Title != "Quantum Computing" {
		t.Errorf("Title = %q", project.Title)
	}

	projects, err := engine.ListProjects()
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("Expected 1 project, got %d", len(projects))
	}

	if err := engine.DeleteProject(project.ID); err != nil {
		t.Fatalf("DeleteProject failed: %v", err)
	}
	if _, err := engine.GetProject(project.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestEngineDuplicateSource(t *testing.T) {
	engine := newTestEngine(t)

	project, _ := engine.CreateProject("Dup", "")
	if _, err := engine.AddSource(project.ID, "https://example.com/a", "A"); err != nil {
		t.Fatalf("AddSource failed: %v", err)
	}
	if _, err := engine.AddSource(project.ID, "https://example.com/a", "A"); !errors.Is(err, ErrConflict) {
		t.Fatalf("Expected ErrConflict, got %v", err)
	}
}

func TestEngineAddFeedSources(t *testing.T) {
	engine := newTestEngine(t)

	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Feed</title>
<item><title>A</title><link>https://example.com/a</link></item>
<item><title>B</title><link>https://example.com/b</link></item>
</channel></rss>`)
	}))
	defer feed.Close()

	project, _ := engine.CreateProject("Feeds", "")

	// One feed entry is already registered; seeding must skip it quietly.
	if _, err := engine.AddSource(project.ID, "https://example.com/a", "A"); err != nil {
		t.Fatalf("AddSource failed: %v", err)
	}

	added, err := engine.AddFeedSources(context.Background(), project.ID, feed.URL, 0)
	if err != nil {
		t.Fatalf("AddFeedSources failed: %v", err)
	}
	if len(added) != 1 || added[0].URL != "https://example.com/b" {
		t.Fatalf("Expected only the new entry added, got %+v", added)
	}
	sources, _ := engine.ListSources(project.ID)
	if len(sources) != 2 {
		t.Errorf("Expected 2 sources after seeding, got %d", len(sources))
	}
}

func TestEngineAddFeedSourcesNonFeed(t *testing.T) {
	engine := newTestEngine(t)

	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>just a web page</body></html>")
	}))
	defer page.Close()

	project, _ := engine.CreateProject("Bad Feed", "")
	if _, err := engine.AddFeedSources(context.Background(), project.ID, page.URL, 0); err == nil {
		t.Fatal("Expected an error for a non-feed URL")
	}
	sources, _ := engine.ListSources(project.ID)
	if len(sources) != 0 {
		t.Errorf("Non-feed URL should add nothing, got %d sources", len(sources))
	}

	if _, err := engine.AddFeedSources(context.Background(), 404, page.URL, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing project, got %v", err)
	}
}

func TestEngineCrawl(t *testing.T) {
	engine := newTestEngine(t)

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>Crawlable page text.</p><a href="/next">next</a></body></html>`)
	}))
	defer site.Close()

	project, _ := engine.CreateProject("Crawl", "")
	if _, err := engine.AddSource(project.ID, site.URL, "Site"); err != nil {
		t.Fatalf("AddSource failed: %v", err)
	}

	job, pages, err := engine.StartCrawl(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("StartCrawl failed: %v", err)
	}
	if job.Status != "success" {
		t.Errorf("Job status = %s, want success", job.Status)
	}
	if job.FinishedAt == nil {
		t.Error("Job should be finished")
	}
	if pages == 0 {
		t.Error("Expected pages crawled")
	}

	jobs, err := engine.ListCrawlJobs(project.ID)
	if err != nil {
		t.Fatalf("ListCrawlJobs failed: %v", err)
	}
	if len(jobs) != 1 {
		t.Errorf("Expected 1 job, got %d", len(jobs))
	}
}

func TestEngineCrawlNoSources(t *testing.T) {
	engine := newTestEngine(t)
	project, _ := engine.CreateProject("Empty", "")

	job, _, err := engine.StartCrawl(context.Background(), project.ID)
	if err == nil {
		t.Fatal("Expected error crawling project with no sources")
	}
	if job == nil || job.Status != "failed" {
		t.Errorf("Expected failed job, got %+v", job)
	}
}

func TestEngineReportPipeline(t *testing.T) {
	engine := newTestEngine(t)

	project, _ := engine.CreateProject("Alpha Research", "")

	report, err := engine.GenerateSimpleReport(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("GenerateSimpleReport failed: %v", err)
	}
	if report.Status != "complete" {
		t.Fatalf("Report status = %s, want complete", report.Status)
	}
	if !strings.Contains(report.FullContent, "## References") {
		t.Error("Report missing references")
	}

	got, err := engine.GetReport(project.ID)
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	if got.ID != report.ID {
		t.Errorf("GetReport returned %d, want %d", got.ID, report.ID)
	}

	sections, err := engine.SplitReport(project.ID)
	if err != nil {
		t.Fatalf("SplitReport failed: %v", err)
	}
	if len(sections) == 0 {
		t.Fatal("Expected sections after split")
	}
	stored, err := engine.GetSections(project.ID)
	if err != nil {
		t.Fatalf("GetSections failed: %v", err)
	}
	if len(stored) != len(sections) {
		t.Errorf("Stored %d sections, split returned %d", len(stored), len(sections))
	}

	ieee, err := engine.ExpandToIEEE(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("ExpandToIEEE failed: %v", err)
	}
	if ieee.FullContent == "" {
		t.Error("IEEE report is empty")
	}
	if _, err := engine.GetIEEE(project.ID); err != nil {
		t.Errorf("GetIEEE failed: %v", err)
	}

	answer, err := engine.AskFromReport(context.Background(), project.ID, "What is Alpha?")
	if err != nil {
		t.Fatalf("AskFromReport failed: %v", err)
	}
	if answer == "" {
		t.Error("Empty answer")
	}

	word, err := engine.ExportWord(project.ID)
	if err != nil {
		t.Fatalf("ExportWord failed: %v", err)
	}
	if len(word.Data) == 0 || !strings.HasSuffix(word.Filename, ".docx") {
		t.Errorf("Bad word export: %s, %d bytes", word.Filename, len(word.Data))
	}
	pdf, err := engine.ExportPDF(project.ID)
	if err != nil {
		t.Fatalf("ExportPDF failed: %v", err)
	}
	if !strings.HasPrefix(string(pdf.Data), "%PDF") {
		t.Error("PDF export lacks header")
	}
}

func TestEngineReportForMissingProject(t *testing.T) {
	engine := newTestEngine(t)
	if _, err := engine.GenerateSimpleReport(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if _, err := engine.ExpandToIEEE(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if _, err := engine.ExportPDF(404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}
