package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Sentinel errors surfaced to API callers. Handlers map these to structured
// not-found and conflict responses.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type Store struct {
	db *sql.DB
}

type Project struct {
	ID          int64
	Title       string
	Description string
	CreatedAt   time.Time
}

type Source struct {
	ID        int64
	ProjectID int64
	URL       string
	Title     string
	Content   string
	CreatedAt time.Time
}

type Page struct {
	ID          int64
	SourceID    int64
	URL         string
	Status      PageStatus
	RawHTML     string
	CleanedText string
	CreatedAt   time.Time
}

type Chunk struct {
	ID         int64
	SourceID   int64
	PageID     int64 // 0 for source-level chunks
	ChunkIndex int
	Content    string
	CreatedAt  time.Time
}

type CrawlJob struct {
	ID           int64
	ProjectID    int64
	Status       CrawlStatus
	StartedAt    time.Time
	FinishedAt   *time.Time
	ErrorMessage *string
}

type Report struct {
	ID          int64
	ProjectID   int64
	Title       string
	Status      ReportStatus
	Progress    int
	CurrentStep string
	FullContent string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ReportSection struct {
	ID         int64
	ReportID   int64
	Title      string
	OrderIndex int
	Content    string
}

type IEEEReport struct {
	ID          int64
	ProjectID   int64
	Title       string
	FullContent string
	CreatedAt   time.Time
}

// NewStore opens the database and initializes the schema.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Projects

func (s *Store) CreateProject(title, description string) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO projects (title, description) VALUES (?, ?)",
		title, description,
	)
	if err != nil {
		return 0, fmt.Errorf("create project: %w", err)
	}
	return result.LastInsertId()
}

func (s *Store) GetProject(projectID int64) (*Project, error) {
	var p Project
	var desc sql.NullString
	err := s.db.QueryRow(
		"SELECT id, title, description, created_at FROM projects WHERE id = ?",
		projectID,
	).Scan(&p.ID, &p.Title, &desc, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project %d: %w", projectID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project %d: %w", projectID, err)
	}
	p.Description = desc.String
	return &p, nil
}

func (s *Store) ListProjects() ([]Project, error) {
	rows, err := s.db.Query("SELECT id, title, description, created_at FROM projects ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		var desc sql.NullString
		if err := rows.Scan(&p.ID, &p.Title, &desc, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.Description = desc.String
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// DeleteProject removes a project. FK CASCADE deletes sources, pages, chunks,
// crawl jobs, reports, sections, and IEEE reports.
func (s *Store) DeleteProject(projectID int64) error {
	result, err := s.db.Exec("DELETE FROM projects WHERE id = ?", projectID)
	if err != nil {
		return fmt.Errorf("delete project %d: %w", projectID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete project %d: %w", projectID, err)
	}
	if rows == 0 {
		return fmt.Errorf("project %d: %w", projectID, ErrNotFound)
	}
	return nil
}

// Sources

// AddSource registers a source URL for a project. A (project, url) pair is
// unique; re-adding surfaces ErrConflict rather than silently duplicating.
func (s *Store) AddSource(projectID int64, url, title string) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO sources (project_id, url, title) VALUES (?, ?, ?)",
		projectID, url, title,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, fmt.Errorf("source %s in project %d: %w", url, projectID, ErrConflict)
		}
		return 0, fmt.Errorf("add source: %w", err)
	}
	return result.LastInsertId()
}

func (s *Store) GetSourceByURL(projectID int64, url string) (*Source, error) {
	var src Source
	var title, content sql.NullString
	err := s.db.QueryRow(
		"SELECT id, project_id, url, title, content, created_at FROM sources WHERE project_id = ? AND url = ?",
		projectID, url,
	).Scan(&src.ID, &src.ProjectID, &src.URL, &title, &content, &src.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("source %s: %w", url, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get source by url: %w", err)
	}
	src.Title = title.String
	src.Content = content.String
	return &src, nil
}

func (s *Store) ListSources(projectID int64) ([]Source, error) {
	rows, err := s.db.Query(
		"SELECT id, project_id, url, title, content, created_at FROM sources WHERE project_id = ? ORDER BY id",
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var src Source
		var title, content sql.NullString
		if err := rows.Scan(&src.ID, &src.ProjectID, &src.URL, &title, &content, &src.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		src.Title = title.String
		src.Content = content.String
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// UpdateSourceContent stores the scraped title and content for a source.
func (s *Store) UpdateSourceContent(sourceID int64, title, content string) error {
	_, err := s.db.Exec(
		"UPDATE sources SET title = ?, content = ? WHERE id = ?",
		title, content, sourceID,
	)
	if err != nil {
		return fmt.Errorf("update source content: %w", err)
	}
	return nil
}
