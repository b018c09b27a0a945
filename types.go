package autoresearch

import "time"

// EngineConfig configures the research engine.
type EngineConfig struct {
	DBPath            string
	OllamaBaseURL     string
	Model             string
	OllamaTimeout     time.Duration
	SearchBaseURL     string
	UserAgent         string
	MaxPagesPerSource int
	MaxSources        int
	AutoIEEE          bool
	CacheLifeWindow   time.Duration
}

// Project is a research topic and its gathered material.
type Project struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Source is one URL contributing material to a project.
type Source struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	CharCount int       `json:"char_count"`
	CreatedAt time.Time `json:"created_at"`
}

// CrawlJob tracks one crawl run over a project's sources.
type CrawlJob struct {
	ID           int64      `json:"id"`
	ProjectID    int64      `json:"project_id"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
}

// Report is a generated research report.
type Report struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	Progress    int       `json:"progress"`
	CurrentStep string    `json:"current_step,omitempty"`
	FullContent string    `json:"full_content"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ReportSection is one titled slice of a split report.
type ReportSection struct {
	ID         int64  `json:"id"`
	ReportID   int64  `json:"report_id"`
	Title      string `json:"title"`
	OrderIndex int    `json:"order_index"`
	Content    string `json:"content"`
}

// IEEEReport is a report expanded into IEEE paper format.
type IEEEReport struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	Title       string    `json:"title"`
	FullContent string    `json:"full_content"`
	CreatedAt   time.Time `json:"created_at"`
}

// Export is a rendered downloadable document.
type Export struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}
