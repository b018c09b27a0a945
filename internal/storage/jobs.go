package storage

import (
	"database/sql"
	"fmt"
)

// CreateCrawlJob opens a job record for one traversal attempt.
func (s *Store) CreateCrawlJob(projectID int64) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO crawl_jobs (project_id, status) VALUES (?, ?)",
		projectID, string(CrawlPending),
	)
	if err != nil {
		return 0, fmt.Errorf("create crawl job: %w", err)
	}
	return result.LastInsertId()
}

// UpdateCrawlJobStatus moves a job through its lifecycle. Transitions are
// validated against the closed status set; a finished job cannot be re-opened.
// Terminal transitions stamp finished_at.
func (s *Store) UpdateCrawlJobStatus(jobID int64, status CrawlStatus, errMsg string) error {
	job, err := s.GetCrawlJob(jobID)
	if err != nil {
		return err
	}
	if !job.Status.CanTransition(status) {
		return invalidTransition(job.Status, status)
	}

	var msg interface{}
	if errMsg != "" {
		msg = errMsg
	}
	if status.Terminal() {
		_, err = s.db.Exec(
			"UPDATE crawl_jobs SET status = ?, error_message = ?, finished_at = CURRENT_TIMESTAMP WHERE id = ?",
			string(status), msg, jobID,
		)
	} else {
		_, err = s.db.Exec(
			"UPDATE crawl_jobs SET status = ? WHERE id = ?",
			string(status), jobID,
		)
	}
	if err != nil {
		return fmt.Errorf("update crawl job %d: %w", jobID, err)
	}
	return nil
}

func (s *Store) GetCrawlJob(jobID int64) (*CrawlJob, error) {
	var job CrawlJob
	var status string
	var finished sql.NullTime
	var errMsg sql.NullString
	err := s.db.QueryRow(
		"SELECT id, project_id, status, started_at, finished_at, error_message FROM crawl_jobs WHERE id = ?",
		jobID,
	).Scan(&job.ID, &job.ProjectID, &status, &job.StartedAt, &finished, &errMsg)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("crawl job %d: %w", jobID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get crawl job %d: %w", jobID, err)
	}
	job.Status = CrawlStatus(status)
	if finished.Valid {
		t := finished.Time
		job.FinishedAt = &t
	}
	if errMsg.Valid {
		m := errMsg.String
		job.ErrorMessage = &m
	}
	return &job, nil
}

func (s *Store) ListCrawlJobs(projectID int64) ([]CrawlJob, error) {
	rows, err := s.db.Query(
		"SELECT id, project_id, status, started_at, finished_at, error_message FROM crawl_jobs WHERE project_id = ? ORDER BY id DESC",
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list crawl jobs: %w", err)
	}
	defer rows.Close()

	var jobs []CrawlJob
	for rows.Next() {
		var job CrawlJob
		var status string
		var finished sql.NullTime
		var errMsg sql.NullString
		if err := rows.Scan(&job.ID, &job.ProjectID, &status, &job.StartedAt, &finished, &errMsg); err != nil {
			return nil, fmt.Errorf("scan crawl job: %w", err)
		}
		job.Status = CrawlStatus(status)
		if finished.Valid {
			t := finished.Time
			job.FinishedAt = &t
		}
		if errMsg.Valid {
			m := errMsg.String
			job.ErrorMessage = &m
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
