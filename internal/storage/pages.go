package storage

import (
	"database/sql"
	"fmt"
	"strings"
)

// AddPage persists one crawled URL's capture. A URL is stored at most once
// per source; re-inserting the same URL surfaces ErrConflict so the crawler's
// visited-set logic stays honest.
func (s *Store) AddPage(page *Page) (int64, error) {
	if !page.Status.Valid() {
		return 0, fmt.Errorf("invalid page status %q", page.Status)
	}
	result, err := s.db.Exec(
		"INSERT INTO pages (source_id, url, status, raw_html, cleaned_text) VALUES (?, ?, ?, ?, ?)",
		page.SourceID, page.URL, string(page.Status), page.RawHTML, page.CleanedText,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, fmt.Errorf("page %s for source %d: %w", page.URL, page.SourceID, ErrConflict)
		}
		return 0, fmt.Errorf("add page: %w", err)
	}
	return result.LastInsertId()
}

func (s *Store) ListPages(sourceID int64) ([]Page, error) {
	rows, err := s.db.Query(
		"SELECT id, source_id, url, status, raw_html, cleaned_text, created_at FROM pages WHERE source_id = ? ORDER BY id",
		sourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		var p Page
		var raw, cleaned sql.NullString
		var status string
		if err := rows.Scan(&p.ID, &p.SourceID, &p.URL, &status, &raw, &cleaned, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		p.Status = PageStatus(status)
		p.RawHTML = raw.String
		p.CleanedText = cleaned.String
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func (s *Store) CountPages(sourceID int64) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM pages WHERE source_id = ?", sourceID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return count, nil
}

// AddChunks stores an ordered set of text segments for a parent in one
// transaction. pageID is 0 for chunks attached directly to a source. The
// ordinal sequence is dense and zero-based in slice order.
func (s *Store) AddChunks(sourceID, pageID int64, texts []string) error {
	if len(texts) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin chunk insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT INTO chunks (source_id, page_id, chunk_index, content) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for idx, text := range texts {
		if _, err := stmt.Exec(sourceID, pageID, idx, text); err != nil {
			return fmt.Errorf("insert chunk %d: %w", idx, err)
		}
	}
	return tx.Commit()
}

// LatestChunks returns the most recent chunks belonging to a project's
// sources, newest first. This is the retrieval backing prompts: recency-based,
// no ranking.
func (s *Store) LatestChunks(projectID int64, limit int) ([]Chunk, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.source_id, c.page_id, c.chunk_index, c.content, c.created_at
		FROM chunks c
		JOIN sources src ON c.source_id = src.id
		WHERE src.project_id = ?
		ORDER BY c.id DESC
		LIMIT ?`,
		projectID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("latest chunks: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.SourceID, &c.PageID, &c.ChunkIndex, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// ChunksForSource returns a source's chunks in ordinal order, page-level
// chunks grouped by page.
func (s *Store) ChunksForSource(sourceID int64) ([]Chunk, error) {
	rows, err := s.db.Query(
		"SELECT id, source_id, page_id, chunk_index, content, created_at FROM chunks WHERE source_id = ? ORDER BY page_id, chunk_index",
		sourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("chunks for source: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.SourceID, &c.PageID, &c.ChunkIndex, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}
