package report

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/rs/zerolog"

	"github.com/autoresearch/autoresearch/internal/llm"
	"github.com/autoresearch/autoresearch/internal/storage"
)

type fakeLLM struct {
	calls    int
	response string
	err      error
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeLLM) GenerateStream(ctx context.Context, prompt string, temperature float64) <-chan llm.Token {
	f.calls++
	tokens := make(chan llm.Token, 2)
	tokens <- llm.Token{Content: f.response}
	tokens <- llm.Token{Done: true}
	close(tokens)
	return tokens
}

type fakeSearch struct {
	urls []string
}

func (f *fakeSearch) Search(ctx context.Context, topic string, max int) []string {
	if max < len(f.urls) {
		return f.urls[:max]
	}
	return f.urls
}

type fakeScrape struct {
	pages map[string]string
}

func (f *fakeScrape) Scrape(ctx context.Context, url string) (string, string, error) {
	text, ok := f.pages[url]
	if !ok {
		return "", "", fmt.Errorf("scrape %s: unexpected status 404", url)
	}
	return "Title of " + url, text, nil
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func longText(sentence string) string {
	return strings.TrimSpace(strings.Repeat(sentence+" ", 40))
}

func testConfig() *storage.Config {
	cfg := storage.DefaultConfig()
	cfg.Report.MaxSources = 2
	return cfg
}

func TestGenerateSimpleReport(t *testing.T) {
	store := newTestStore(t)
	projectID, _ := store.CreateProject("Quantum Computing", "")

	model := &fakeLLM{response: longText("Quantum computers use qubits to represent state.")}
	searcher := &fakeSearch{urls: []string{"https://w/a", "https://w/b"}}
	scraper := &fakeScrape{pages: map[string]string{
		"https://w/a": longText("Source A discusses quantum gates."),
		"https://w/b": longText("Source B discusses decoherence."),
	}}

	gen := NewGenerator(store, model, searcher, scraper, testConfig(), zerolog.Nop())
	report, err := gen.GenerateSimpleReport(context.Background(), projectID)
	if err != nil {
		t.Fatalf("GenerateSimpleReport failed: %v", err)
	}

	if report.Status != storage.ReportComplete {
		t.Errorf("Status = %s, want complete", report.Status)
	}
	if report.Progress != 100 {
		t.Errorf("Progress = %d, want 100", report.Progress)
	}
	if report.Title != "Research Report: Quantum Computing" {
		t.Errorf("Title = %q", report.Title)
	}
	if !strings.HasPrefix(report.FullContent, "# Research Report: Quantum Computing\n") {
		t.Error("Report content should open with the topic-derived title heading")
	}

	for _, sec := range sectionPlan {
		heading := "## " + sec.Title
		if strings.Count(report.FullContent, heading) != 1 {
			t.Errorf("Expected exactly one %q heading", heading)
		}
	}
	if strings.Count(report.FullContent, "## References") != 1 {
		t.Error("Expected exactly one References heading")
	}
	if strings.Count(report.FullContent, "https://w/a") != 1 {
		t.Error("Expected each source URL referenced exactly once")
	}

	sources, _ := store.ListSources(projectID)
	if len(sources) != 2 {
		t.Errorf("Expected 2 stored sources, got %d", len(sources))
	}
	chunks, _ := store.LatestChunks(projectID, 50)
	if len(chunks) == 0 {
		t.Error("Expected chunks from scraped sources")
	}
}

func TestReferencesListOnlyUsedSources(t *testing.T) {
	store := newTestStore(t)
	projectID, _ := store.CreateProject("Selective", "")

	// Registered by hand, never scraped, never chunked.
	if _, err := store.AddSource(projectID, "https://w/unused", "Unused"); err != nil {
		t.Fatalf("AddSource failed: %v", err)
	}

	model := &fakeLLM{response: longText("Section body about the subject.")}
	searcher := &fakeSearch{urls: []string{"https://w/a"}}
	scraper := &fakeScrape{pages: map[string]string{"https://w/a": longText("Source A text.")}}

	gen := NewGenerator(store, model, searcher, scraper, testConfig(), zerolog.Nop())
	report, err := gen.GenerateSimpleReport(context.Background(), projectID)
	if err != nil {
		t.Fatalf("GenerateSimpleReport failed: %v", err)
	}

	if !strings.Contains(report.FullContent, "1. https://w/a") {
		t.Error("Expected the scraped source in References")
	}
	if strings.Contains(report.FullContent, "https://w/unused") {
		t.Error("References should omit sources that contributed no chunks")
	}
}

func TestGenerateSimpleReportIdempotent(t *testing.T) {
	store := newTestStore(t)
	projectID, _ := store.CreateProject("Topic", "")

	model := &fakeLLM{response: longText("Section body text about the topic.")}
	searcher := &fakeSearch{urls: []string{"https://w/a"}}
	scraper := &fakeScrape{pages: map[string]string{"https://w/a": longText("Source text.")}}

	gen := NewGenerator(store, model, searcher, scraper, testConfig(), zerolog.Nop())
	first, err := gen.GenerateSimpleReport(context.Background(), projectID)
	if err != nil {
		t.Fatalf("First generation failed: %v", err)
	}
	callsAfterFirst := model.calls

	second, err := gen.GenerateSimpleReport(context.Background(), projectID)
	if err != nil {
		t.Fatalf("Second generation failed: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("Second call created a new report: %d vs %d", second.ID, first.ID)
	}
	if second.FullContent != first.FullContent {
		t.Error("Report content changed on reuse")
	}
	if model.calls != callsAfterFirst {
		t.Errorf("Reuse still called the model: %d extra calls", model.calls-callsAfterFirst)
	}
}

func TestGenerateSimpleReportNoUsableSources(t *testing.T) {
	store := newTestStore(t)
	projectID, _ := store.CreateProject("Obscure Topic", "")

	model := &fakeLLM{response: longText("Should never be used.")}
	gen := NewGenerator(store, model, &fakeSearch{}, &fakeScrape{}, testConfig(), zerolog.Nop())

	_, err := gen.GenerateSimpleReport(context.Background(), projectID)
	if !errors.Is(err, ErrNoUsableSources) {
		t.Fatalf("Expected ErrNoUsableSources, got %v", err)
	}

	report, err := store.LatestReport(projectID)
	if err != nil {
		t.Fatalf("LatestReport failed: %v", err)
	}
	if report.Status != storage.ReportFailed {
		t.Errorf("Status = %s, want failed", report.Status)
	}
}

func TestSectionFallbackOnShortOutput(t *testing.T) {
	store := newTestStore(t)
	projectID, _ := store.CreateProject("Thin Model", "")

	model := &fakeLLM{response: "too short"}
	searcher := &fakeSearch{urls: []string{"https://w/a"}}
	sourceText := longText("Distinctive source sentence about the subject.")
	scraper := &fakeScrape{pages: map[string]string{"https://w/a": sourceText}}

	gen := NewGenerator(store, model, searcher, scraper, testConfig(), zerolog.Nop())
	report, err := gen.GenerateSimpleReport(context.Background(), projectID)
	if err != nil {
		t.Fatalf("GenerateSimpleReport failed: %v", err)
	}

	if !strings.Contains(report.FullContent, "Distinctive source sentence") {
		t.Error("Fallback sections should carry the raw context")
	}
	if report.Status != storage.ReportComplete {
		t.Errorf("Status = %s, want complete", report.Status)
	}
}

func TestExpandToIEEENoBaseReport(t *testing.T) {
	store := newTestStore(t)
	projectID, _ := store.CreateProject("No Base", "")

	gen := NewGenerator(store, &fakeLLM{}, &fakeSearch{}, &fakeScrape{}, testConfig(), zerolog.Nop())
	_, err := gen.ExpandToIEEE(context.Background(), projectID)
	if !errors.Is(err, ErrNoBaseReport) {
		t.Fatalf("Expected ErrNoBaseReport, got %v", err)
	}

	count, _ := store.CountIEEEReports(projectID)
	if count != 0 {
		t.Errorf("Expected nothing persisted, got %d ieee reports", count)
	}
}

func TestExpandToIEEEFallbackOnModelFailure(t *testing.T) {
	store := newTestStore(t)
	projectID, _ := store.CreateProject("Fallback", "")
	reportID, _ := store.CreateReport(projectID, "Research Report: Fallback")
	base := "## Introduction\n\n" + longText("Base report body.") + "\n\n## References\n\n1. https://w/a\n"
	store.UpdateReportContent(reportID, base, 100, "References")
	store.UpdateReportStatus(reportID, storage.ReportComplete)

	model := &fakeLLM{err: errors.New("model offline")}
	gen := NewGenerator(store, model, &fakeSearch{}, &fakeScrape{}, testConfig(), zerolog.Nop())

	ieee, err := gen.ExpandToIEEE(context.Background(), projectID)
	if err != nil {
		t.Fatalf("ExpandToIEEE failed: %v", err)
	}
	if !strings.Contains(ieee.FullContent, "Abstract") {
		t.Error("Fallback should contain an Abstract block")
	}
	if !strings.Contains(ieee.FullContent, "I. Introduction") {
		t.Error("Fallback should number headings")
	}
	if !strings.Contains(ieee.FullContent, "https://w/a") {
		t.Error("Fallback should preserve reference URLs")
	}
}

func TestExpandToIEEEReusesExisting(t *testing.T) {
	store := newTestStore(t)
	projectID, _ := store.CreateProject("Reuse", "")
	reportID, _ := store.CreateReport(projectID, "Research Report: Reuse")
	store.UpdateReportContent(reportID, longText("Body."), 100, "References")
	store.UpdateReportStatus(reportID, storage.ReportComplete)
	store.CreateIEEEReport(projectID, "IEEE Format: Reuse", longText("Existing ieee content."))

	model := &fakeLLM{response: longText("New content that should not be generated.")}
	gen := NewGenerator(store, model, &fakeSearch{}, &fakeScrape{}, testConfig(), zerolog.Nop())

	ieee, err := gen.ExpandToIEEE(context.Background(), projectID)
	if err != nil {
		t.Fatalf("ExpandToIEEE failed: %v", err)
	}
	if !strings.Contains(ieee.FullContent, "Existing ieee content.") {
		t.Error("Expected the existing ieee report back")
	}
	if model.calls != 0 {
		t.Errorf("Reuse still called the model %d times", model.calls)
	}
}

func TestParseSections(t *testing.T) {
	content := "preamble that is too short\n\n" +
		"## First\n\n" + longText("First section body.") + "\n" +
		"## Tiny\n\nshort\n" +
		"## Second\n\n" + longText("Second section body.") + "\n"

	sections := ParseSections(content, 200)
	if len(sections) != 2 {
		t.Fatalf("Expected 2 sections, got %d", len(sections))
	}
	if sections[0].Title != "First" || sections[1].Title != "Second" {
		t.Errorf("Unexpected titles: %q, %q", sections[0].Title, sections[1].Title)
	}
	if sections[0].OrderIndex != 0 || sections[1].OrderIndex != 1 {
		t.Error("Ordinals are not dense and zero-based")
	}
}

func TestSplitReportIdempotent(t *testing.T) {
	store := newTestStore(t)
	projectID, _ := store.CreateProject("Split", "")
	reportID, _ := store.CreateReport(projectID, "Research Report: Split")
	content := "## Alpha\n\n" + longText("Alpha body.") + "\n## Beta\n\n" + longText("Beta body.") + "\n"
	store.UpdateReportContent(reportID, content, 100, "References")
	store.UpdateReportStatus(reportID, storage.ReportComplete)

	gen := NewGenerator(store, &fakeLLM{}, &fakeSearch{}, &fakeScrape{}, testConfig(), zerolog.Nop())

	first, err := gen.SplitReport(projectID)
	if err != nil {
		t.Fatalf("SplitReport failed: %v", err)
	}
	second, err := gen.SplitReport(projectID)
	if err != nil {
		t.Fatalf("Second SplitReport failed: %v", err)
	}

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("Expected 2 sections both times, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Title != second[i].Title || first[i].Content != second[i].Content {
			t.Errorf("Section %d changed between splits", i)
		}
	}
}

func newTestCache(t *testing.T) *bigcache.BigCache {
	t.Helper()
	cache, err := bigcache.New(context.Background(), bigcache.DefaultConfig(time.Minute))
	if err != nil {
		t.Fatalf("bigcache.New failed: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestAskFromReportCaches(t *testing.T) {
	store := newTestStore(t)
	projectID, _ := store.CreateProject("QA", "")
	reportID, _ := store.CreateReport(projectID, "Research Report: QA")
	store.UpdateReportContent(reportID, longText("Report body about qubits."), 100, "References")
	store.UpdateReportStatus(reportID, storage.ReportComplete)

	model := &fakeLLM{response: "Qubits are two-state systems."}
	answerer := NewAnswerer(store, model, newTestCache(t), zerolog.Nop())

	first, err := answerer.AskFromReport(context.Background(), projectID, "What is a qubit?")
	if err != nil {
		t.Fatalf("AskFromReport failed: %v", err)
	}
	second, err := answerer.AskFromReport(context.Background(), projectID, "What is a qubit?")
	if err != nil {
		t.Fatalf("Second AskFromReport failed: %v", err)
	}

	if first != second {
		t.Error("Cached answer differs from original")
	}
	if model.calls != 1 {
		t.Errorf("Expected exactly 1 model call, got %d", model.calls)
	}

	// A different question misses the cache.
	if _, err := answerer.AskFromReport(context.Background(), projectID, "What is decoherence?"); err != nil {
		t.Fatalf("AskFromReport failed: %v", err)
	}
	if model.calls != 2 {
		t.Errorf("Expected 2 model calls after new question, got %d", model.calls)
	}
}

func TestAskFromReportNoReport(t *testing.T) {
	store := newTestStore(t)
	projectID, _ := store.CreateProject("Empty", "")

	model := &fakeLLM{response: "should not run"}
	answerer := NewAnswerer(store, model, nil, zerolog.Nop())

	answer, err := answerer.AskFromReport(context.Background(), projectID, "Anything?")
	if err != nil {
		t.Fatalf("AskFromReport failed: %v", err)
	}
	if answer != noAnswerText {
		t.Errorf("Answer = %q, want canned no-answer text", answer)
	}
	if model.calls != 0 {
		t.Errorf("Model should not be called without a report, got %d calls", model.calls)
	}
}

func TestAskFromReportStream(t *testing.T) {
	store := newTestStore(t)
	projectID, _ := store.CreateProject("Stream", "")
	reportID, _ := store.CreateReport(projectID, "Research Report: Stream")
	store.UpdateReportContent(reportID, longText("Streaming report body."), 100, "References")
	store.UpdateReportStatus(reportID, storage.ReportComplete)

	model := &fakeLLM{response: "streamed answer"}
	answerer := NewAnswerer(store, model, nil, zerolog.Nop())

	tokens, err := answerer.AskFromReportStream(context.Background(), projectID, "Question?")
	if err != nil {
		t.Fatalf("AskFromReportStream failed: %v", err)
	}
	var collected string
	for tok := range tokens {
		if tok.Err != nil {
			t.Fatalf("Stream error: %v", tok.Err)
		}
		collected += tok.Content
	}
	if collected != "streamed answer" {
		t.Errorf("Streamed = %q", collected)
	}
}
