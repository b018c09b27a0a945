package storage

import "fmt"

// CrawlStatus is the lifecycle state of a crawl job. A job is created pending,
// moves to running, and finishes exactly once as success or failed.
type CrawlStatus string

const (
	CrawlPending CrawlStatus = "pending"
	CrawlRunning CrawlStatus = "running"
	CrawlSuccess CrawlStatus = "success"
	CrawlFailed  CrawlStatus = "failed"
)

// Valid reports whether s is a member of the closed status set.
func (s CrawlStatus) Valid() bool {
	switch s {
	case CrawlPending, CrawlRunning, CrawlSuccess, CrawlFailed:
		return true
	}
	return false
}

// Terminal reports whether s is a final state.
func (s CrawlStatus) Terminal() bool {
	return s == CrawlSuccess || s == CrawlFailed
}

// CanTransition reports whether moving from s to next is allowed.
// Finished jobs are never re-opened.
func (s CrawlStatus) CanTransition(next CrawlStatus) bool {
	if !next.Valid() || s.Terminal() {
		return false
	}
	switch s {
	case CrawlPending:
		return next == CrawlRunning || next.Terminal()
	case CrawlRunning:
		return next.Terminal()
	}
	return false
}

// PageStatus is the capture state of a single crawled URL.
type PageStatus string

const (
	PagePending PageStatus = "pending"
	PageCrawled PageStatus = "crawled"
	PageFailed  PageStatus = "failed"
)

func (s PageStatus) Valid() bool {
	switch s {
	case PagePending, PageCrawled, PageFailed:
		return true
	}
	return false
}

// ReportStatus is the generation state of a report.
type ReportStatus string

const (
	ReportGenerating ReportStatus = "generating"
	ReportComplete   ReportStatus = "complete"
	ReportFailed     ReportStatus = "failed"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportGenerating, ReportComplete, ReportFailed:
		return true
	}
	return false
}

func invalidTransition(from, to CrawlStatus) error {
	return fmt.Errorf("invalid crawl status transition %s -> %s", from, to)
}
