package main

import (
	"net/http"

	autoresearch "github.com/autoresearch/autoresearch"
)

// newRouter sets up all routes using Go 1.22+ enhanced routing.
func newRouter(engine *autoresearch.Engine) http.Handler {
	mux := http.NewServeMux()

	h := &handlers{engine: engine}

	mux.HandleFunc("GET /healthz", h.handleHealth)

	mux.HandleFunc("POST /projects", h.handleProjectCreate)
	mux.HandleFunc("POST /projects/{$}", h.handleProjectCreate)
	mux.HandleFunc("GET /projects", h.handleProjectList)
	mux.HandleFunc("GET /projects/{$}", h.handleProjectList)
	mux.HandleFunc("GET /projects/{projectID}", h.handleProjectGet)
	mux.HandleFunc("DELETE /projects/{projectID}", h.handleProjectDelete)

	mux.HandleFunc("GET /projects/{projectID}/sources", h.handleSourceList)
	mux.HandleFunc("POST /projects/{projectID}/sources", h.handleSourceAdd)
	mux.HandleFunc("POST /projects/{projectID}/sources/feed", h.handleFeedSeed)

	mux.HandleFunc("POST /projects/{projectID}/crawl", h.handleCrawl)
	mux.HandleFunc("GET /projects/{projectID}/crawl_jobs", h.handleCrawlJobs)

	mux.HandleFunc("POST /projects/{projectID}/generate_simple_report", h.handleGenerateReport)
	mux.HandleFunc("GET /projects/{projectID}/report", h.handleReportGet)
	mux.HandleFunc("POST /projects/{projectID}/expand_to_ieee", h.handleExpandIEEE)
	mux.HandleFunc("GET /projects/{projectID}/ieee", h.handleIEEEGet)
	mux.HandleFunc("POST /projects/{projectID}/split_report", h.handleSplitReport)
	mux.HandleFunc("GET /projects/{projectID}/sections", h.handleSectionList)

	mux.HandleFunc("POST /projects/{projectID}/ask_from_report", h.handleAsk)
	mux.HandleFunc("POST /projects/{projectID}/ask_from_report/stream", h.handleAskStream)
	// GET variant so EventSource clients can subscribe directly.
	mux.HandleFunc("GET /projects/{projectID}/ask_from_report/stream", h.handleAskStream)

	mux.HandleFunc("GET /projects/{projectID}/download/{format}", h.handleDownload)

	return mux
}
