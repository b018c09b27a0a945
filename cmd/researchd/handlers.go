package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	autoresearch "github.com/autoresearch/autoresearch"
)

// handlers holds dependencies for all HTTP handler methods.
type handlers struct {
	engine *autoresearch.Engine
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps sentinel errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, autoresearch.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, autoresearch.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, autoresearch.ErrNoUsableSources),
		errors.Is(err, autoresearch.ErrNoBaseReport):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"detail": msg})
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) handleProjectCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if body.Title == "" {
		writeBadRequest(w, "title is required")
		return
	}
	project, err := h.engine.CreateProject(body.Title, body.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *handlers) handleProjectList(w http.ResponseWriter, r *http.Request) {
	projects, err := h.engine.ListProjects()
	if err != nil {
		writeError(w, err)
		return
	}
	if projects == nil {
		projects = []autoresearch.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *handlers) handleProjectGet(w http.ResponseWriter, r *http.Request) {
	id := projectIDFromRequest(r)
	if id < 0 {
		writeBadRequest(w, "invalid project id")
		return
	}
	project, err := h.engine.GetProject(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *handlers) handleProjectDelete(w http.ResponseWriter, r *http.Request) {
	id := projectIDFromRequest(r)
	if id < 0 {
		writeBadRequest(w, "invalid project id")
		return
	}
	if err := h.engine.DeleteProject(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "project deleted"})
}

func (h *handlers) handleSourceList(w http.ResponseWriter, r *http.Request) {
	id := projectIDFromRequest(r)
	if id < 0 {
		writeBadRequest(w, "invalid project id")
		return
	}
	sources, err := h.engine.ListSources(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if sources == nil {
		sources = []autoresearch.Source{}
	}
	writeJSON(w, http.StatusOK, sources)
}

func (h *handlers) handleSourceAdd(w http.ResponseWriter, r *http.Request) {
	id := projectIDFromRequest(r)
	if id < 0 {
		writeBadRequest(w, "invalid project id")
		return
	}
	var body struct {
		URL   string `json:"url"`
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if body.URL == "" {
		writeBadRequest(w, "url is required")
		return
	}
	source, err := h.engine.AddSource(id, body.URL, body.Title)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, source)
}

func (h *handlers) handleFeedSeed(w http.ResponseWriter, r *http.Request) {
	id := projectIDFromRequest(r)
	if id < 0 {
		writeBadRequest(w, "invalid project id")
		return
	}
	var body struct {
		FeedURL string `json:"feed_url"`
		Max     int    `json:"max"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if body.FeedURL == "" {
		writeBadRequest(w, "feed_url is required")
		return
	}
	added, err := h.engine.AddFeedSources(r.Context(), id, body.FeedURL, body.Max)
	if err != nil {
		writeError(w, err)
		return
	}
	if added == nil {
		added = []autoresearch.Source{}
	}
	writeJSON(w, http.StatusCreated, added)
}

func (h *handlers) handleCrawl(w http.ResponseWriter, r *http.Request) {
	id := projectIDFromRequest(r)
	if id < 0 {
		writeBadRequest(w, "invalid project id")
		return
	}
	job, pages, err := h.engine.StartCrawl(r.Context(), id)
	if err != nil && job == nil {
		writeError(w, err)
		return
	}
	resp := map[string]interface{}{
		"job":         job,
		"pages_added": pages,
	}
	if err != nil {
		resp["detail"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) handleCrawlJobs(w http.ResponseWriter, r *http.Request) {
	id := projectIDFromRequest(r)
	if id < 0 {
		writeBadRequest(w, "invalid project id")
		return
	}
	jobs, err := h.engine.ListCrawlJobs(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if jobs == nil {
		jobs = []autoresearch.CrawlJob{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (h *handlers) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	id := projectIDFromRequest(r)
	if id < 0 {
		writeBadRequest(w, "invalid project id")
		return
	}
	report, err := h.engine.GenerateSimpleReport(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *handlers) handleReportGet(w http.ResponseWriter, r *http.Request) {
	id := projectIDFromRequest(r)
	if id < 0 {
		writeBadRequest(w, "invalid project id")
		return
	}
	report, err := h.engine.GetReport(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *handlers) handleExpandIEEE(w http.ResponseWriter, r *http.Request) {
	id := projectIDFromRequest(r)
	if id < 0 {
		writeBadRequest(w, "invalid project id")
		return
	}
	ieee, err := h.engine.ExpandToIEEE(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ieee)
}

func (h *handlers) handleIEEEGet(w http.ResponseWriter, r *http.Request) {
	id := projectIDFromRequest(r)
	if id < 0 {
		writeBadRequest(w, "invalid project id")
		return
	}
	ieee, err := h.engine.GetIEEE(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ieee)
}

func (h *handlers) handleSplitReport(w http.ResponseWriter, r *http.Request) {
	id := projectIDFromRequest(r)
	if id < 0 {
		writeBadRequest(w, "invalid project id")
		return
	}
	sections, err := h.engine.SplitReport(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if sections == nil {
		sections = []autoresearch.ReportSection{}
	}
	writeJSON(w, http.StatusOK, sections)
}

func (h *handlers) handleSectionList(w http.ResponseWriter, r *http.Request) {
	id := projectIDFromRequest(r)
	if id < 0 {
		writeBadRequest(w, "invalid project id")
		return
	}
	sections, err := h.engine.GetSections(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if sections == nil {
		sections = []autoresearch.ReportSection{}
	}
	writeJSON(w, http.StatusOK, sections)
}

// question comes as a query parameter, matching the frontend's call shape.
func questionFromRequest(r *http.Request) string {
	return r.URL.Query().Get("question")
}

func (h *handlers) handleAsk(w http.ResponseWriter, r *http.Request) {
	id := projectIDFromRequest(r)
	if id < 0 {
		writeBadRequest(w, "invalid project id")
		return
	}
	question := questionFromRequest(r)
	if question == "" {
		writeBadRequest(w, "question is required")
		return
	}
	answer, err := h.engine.AskFromReport(r.Context(), id, question)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"question": question,
		"answer":   answer,
	})
}

func (h *handlers) handleAskStream(w http.ResponseWriter, r *http.Request) {
	id := projectIDFromRequest(r)
	if id < 0 {
		writeBadRequest(w, "invalid project id")
		return
	}
	question := questionFromRequest(r)
	if question == "" {
		writeBadRequest(w, "question is required")
		return
	}

	tokens, err := h.engine.AskFromReportStream(r.Context(), id, question)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, fmt.Errorf("streaming unsupported"))
		return
	}

	for tok := range tokens {
		if tok.Err != nil {
			sendSSE(w, flusher, map[string]string{"error": tok.Err.Error()})
			return
		}
		sendSSE(w, flusher, map[string]interface{}{
			"content": tok.Content,
			"done":    tok.Done,
		})
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func sendSSE(w http.ResponseWriter, flusher http.Flusher, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

func (h *handlers) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := projectIDFromRequest(r)
	if id < 0 {
		writeBadRequest(w, "invalid project id")
		return
	}

	var (
		doc *autoresearch.Export
		err error
	)
	switch r.PathValue("format") {
	case "word":
		doc, err = h.engine.ExportWord(id)
	case "pdf":
		doc, err = h.engine.ExportPDF(id)
	default:
		writeBadRequest(w, "format must be word or pdf")
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Write(doc.Data)
}
