package storage

import (
	"database/sql"
	"fmt"
)

// CreateReport opens a new report record in the generating state.
func (s *Store) CreateReport(projectID int64, title string) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO reports (project_id, title, status) VALUES (?, ?, ?)",
		projectID, title, string(ReportGenerating),
	)
	if err != nil {
		return 0, fmt.Errorf("create report: %w", err)
	}
	return result.LastInsertId()
}

// UpdateReportContent replaces the report's accumulated content and progress
// markers. Called after every completed section so a concurrent reader always
// sees the latest finished prefix.
func (s *Store) UpdateReportContent(reportID int64, content string, progress int, currentStep string) error {
	_, err := s.db.Exec(
		"UPDATE reports SET full_content = ?, progress = ?, current_step = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		content, progress, currentStep, reportID,
	)
	if err != nil {
		return fmt.Errorf("update report content: %w", err)
	}
	return nil
}

func (s *Store) UpdateReportStatus(reportID int64, status ReportStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid report status %q", status)
	}
	_, err := s.db.Exec(
		"UPDATE reports SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		string(status), reportID,
	)
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	return nil
}

// LatestReport returns the newest report for a project.
func (s *Store) LatestReport(projectID int64) (*Report, error) {
	var r Report
	var status string
	var step sql.NullString
	err := s.db.QueryRow(
		`SELECT id, project_id, title, status, progress, current_step, full_content, created_at, updated_at
		 FROM reports WHERE project_id = ? ORDER BY id DESC LIMIT 1`,
		projectID,
	).Scan(&r.ID, &r.ProjectID, &r.Title, &status, &r.Progress, &step, &r.FullContent, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report for project %d: %w", projectID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("latest report: %w", err)
	}
	r.Status = ReportStatus(status)
	r.CurrentStep = step.String
	return &r, nil
}

func (s *Store) GetReport(reportID int64) (*Report, error) {
	var r Report
	var status string
	var step sql.NullString
	err := s.db.QueryRow(
		`SELECT id, project_id, title, status, progress, current_step, full_content, created_at, updated_at
		 FROM reports WHERE id = ?`,
		reportID,
	).Scan(&r.ID, &r.ProjectID, &r.Title, &status, &r.Progress, &step, &r.FullContent, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report %d: %w", reportID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get report %d: %w", reportID, err)
	}
	r.Status = ReportStatus(status)
	r.CurrentStep = step.String
	return &r, nil
}

// ReplaceSections swaps a report's entire section set in one transaction:
// delete all prior rows, then insert the new set with dense ordinals.
func (s *Store) ReplaceSections(reportID int64, sections []ReportSection) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin section replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM report_sections WHERE report_id = ?", reportID); err != nil {
		return fmt.Errorf("delete sections: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO report_sections (report_id, title, order_index, content) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare section insert: %w", err)
	}
	defer stmt.Close()

	for i, sec := range sections {
		if _, err := stmt.Exec(reportID, sec.Title, i, sec.Content); err != nil {
			return fmt.Errorf("insert section %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (s *Store) ListSections(reportID int64) ([]ReportSection, error) {
	rows, err := s.db.Query(
		"SELECT id, report_id, title, order_index, content FROM report_sections WHERE report_id = ? ORDER BY order_index",
		reportID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	var sections []ReportSection
	for rows.Next() {
		var sec ReportSection
		if err := rows.Scan(&sec.ID, &sec.ReportID, &sec.Title, &sec.OrderIndex, &sec.Content); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sections = append(sections, sec)
	}
	return sections, rows.Err()
}

func (s *Store) CreateIEEEReport(projectID int64, title, content string) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO ieee_reports (project_id, title, full_content) VALUES (?, ?, ?)",
		projectID, title, content,
	)
	if err != nil {
		return 0, fmt.Errorf("create ieee report: %w", err)
	}
	return result.LastInsertId()
}

func (s *Store) LatestIEEEReport(projectID int64) (*IEEEReport, error) {
	var r IEEEReport
	err := s.db.QueryRow(
		"SELECT id, project_id, title, full_content, created_at FROM ieee_reports WHERE project_id = ? ORDER BY id DESC LIMIT 1",
		projectID,
	).Scan(&r.ID, &r.ProjectID, &r.Title, &r.FullContent, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("ieee report for project %d: %w", projectID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("latest ieee report: %w", err)
	}
	return &r, nil
}

func (s *Store) CountIEEEReports(projectID int64) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM ieee_reports WHERE project_id = ?", projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count ieee reports: %w", err)
	}
	return count, nil
}
